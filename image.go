package propix

import (
	"context"
	"time"
)

// ImageRecord is the provenance entry for one stored listing photo.
// StoragePath is a pure function of ContentHash, so byte-identical images
// always resolve to the same path regardless of which source produced them.
type ImageRecord struct {
	ID             string      `json:"id"`
	PropertyKey    string      `json:"property_key"`
	ContentHash    string      `json:"content_hash"`
	PerceptualHash Fingerprint `json:"perceptual_hash"`
	Source         string      `json:"source"`
	StoragePath    string      `json:"storage_path"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	CreatedByRun   string      `json:"created_by_run_id"`
	DiscoveredAt   time.Time   `json:"discovered_at"`
}

// Validate returns an error if the record contains invalid fields.
func (r *ImageRecord) Validate() error {
	if r.ID == "" {
		return Errorf(EINVALID, "image record ID required")
	}
	if r.PropertyKey == "" {
		return Errorf(EINVALID, "image record property key required")
	}
	if r.ContentHash == "" {
		return Errorf(EINVALID, "image record content hash required")
	}
	return nil
}

// ImageInfo describes a successfully decoded image.
type ImageInfo struct {
	Width  int
	Height int
	Format string // "jpeg", "png", "gif", "webp"
}

// Hasher validates raw image bytes and computes their perceptual fingerprint.
// Bytes that fail to decode or violate size/dimension bounds return EINVALID
// and must never be stored or deduplicated.
type Hasher interface {
	Hash(data []byte) (Fingerprint, *ImageInfo, error)
}

// ReconciliationReport describes divergence between on-disk files and
// manifest entries. Findings are surfaced for operator decision, never
// auto-deleted.
type ReconciliationReport struct {
	// Orphans are files on disk with no manifest entry.
	Orphans []string
	// Dangling are manifest entries whose file is missing.
	Dangling []string
	// Checked is the total number of manifest entries examined.
	Checked int
}

// Clean returns true if files and manifest entries are in 1:1 correspondence.
func (r *ReconciliationReport) Clean() bool {
	return len(r.Orphans) == 0 && len(r.Dangling) == 0
}

// ManifestCounters are the aggregate counters carried by the manifest.
type ManifestCounters struct {
	Images     int `json:"images"`
	Properties int `json:"properties"`
	Duplicates int `json:"duplicates"`
}

// ImageStore is the content-addressed store plus its manifest: the single
// source of truth for what exists on disk.
type ImageStore interface {
	// Put writes data to its content-addressed path if absent and returns
	// the cryptographic content hash. Idempotent: repeated identical bytes
	// never re-write or duplicate disk usage.
	Put(data []byte, ext string) (contentHash string, path string, err error)

	// PathFor returns the storage path for a content hash. Pure, no I/O.
	PathFor(contentHash, ext string) string

	// Record appends an image record to the manifest via an atomic write.
	// Returns ECONFLICT if the record ID already exists.
	Record(ctx context.Context, rec *ImageRecord) error

	// RecordDuplicate bumps the duplicate counter without storing anything.
	RecordDuplicate(ctx context.Context) error

	// Images returns the manifest entries for a property in insertion order.
	Images(propertyKey string) []*ImageRecord

	// AllImages returns every manifest entry in insertion order.
	AllImages() []*ImageRecord

	// Counters returns the manifest's aggregate counters.
	Counters() ManifestCounters

	// Reconcile compares on-disk files to manifest entries.
	Reconcile() (*ReconciliationReport, error)
}
