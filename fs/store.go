package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/propix/propix"
)

// Directory and file names under the store root. The processed/ layout is
// read by downstream collaborators and must not change.
const (
	processedDir = "processed"
	manifestFile = "manifest.json"
	hashPrefix   = 8 // leading hex characters used as the shard directory
)

// Ensure Store implements propix.ImageStore at compile time.
var _ propix.ImageStore = (*Store)(nil)

// Store is the content-addressed image store plus its manifest. Image bytes
// live under root/processed/<hash[:8]>/<hash>.<ext>; the manifest is the
// single source of truth for what exists on disk. Store is safe for
// concurrent use: all manifest mutations funnel through a single-writer
// critical section, readers see the last committed snapshot.
type Store struct {
	root   string
	logger *slog.Logger

	mu       sync.Mutex
	manifest *manifest
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for recovery warnings.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store rooted at dir. Open must be called before use.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{root: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the manifest. A corrupt manifest falls back to the newest
// valid backup; if no backup is valid the manifest is rebuilt from the
// files on disk with a warning.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := loadManifest(s.manifestPath())
	if err == nil {
		s.manifest = m
		return nil
	}
	if propix.ErrorCode(err) != propix.ECORRUPT {
		return err
	}

	s.logger.Warn("manifest corrupt, trying backups", "error", propix.ErrorMessage(err))
	for _, bak := range backupPaths(s.manifestPath()) {
		// loadManifest treats a missing file as a fresh store; here a
		// missing backup is just a generation that never existed.
		if _, statErr := os.Stat(bak); statErr != nil {
			continue
		}
		m, bakErr := loadManifest(bak)
		if bakErr != nil {
			continue
		}
		s.logger.Warn("recovered manifest from backup", "backup", bak)
		s.manifest = m
		return s.commitLocked()
	}

	s.logger.Warn("no valid backup, rebuilding manifest from disk; rebuilt records need re-hashing")
	m, err = s.rebuildFromDisk()
	if err != nil {
		return err
	}
	s.manifest = m
	return s.commitLocked()
}

// Put writes data to its content-addressed path if absent and returns the
// sha256 content hash. Idempotent: identical bytes map to the same path and
// are written at most once.
func (s *Store) Put(data []byte, ext string) (string, string, error) {
	if len(data) == 0 {
		return "", "", propix.Errorf(propix.EINVALID, "refusing to store empty image bytes")
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	path := s.PathFor(hash, ext)

	if _, err := os.Stat(path); err == nil {
		return hash, path, nil
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", "", err
	}
	return hash, path, nil
}

// PathFor returns the storage path for a content hash. Pure, no I/O.
func (s *Store) PathFor(contentHash, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "jpg"
	}
	return filepath.Join(s.root, processedDir, contentHash[:hashPrefix], contentHash+"."+ext)
}

// Record appends an image record to the manifest and commits atomically.
// Returns ECONFLICT if the record ID already exists.
func (s *Store) Record(ctx context.Context, rec *propix.ImageRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manifest.hasID(rec.ID) {
		return propix.Errorf(propix.ECONFLICT, "image record %q already exists", rec.ID)
	}

	prop, ok := s.manifest.Properties[rec.PropertyKey]
	if !ok {
		prop = &manifestProperty{}
		s.manifest.Properties[rec.PropertyKey] = prop
		s.manifest.Counters.Properties++
	}
	clone := *rec
	prop.Images = append(prop.Images, &clone)
	s.manifest.Counters.Images++

	return s.commitLocked()
}

// RecordDuplicate bumps the duplicate counter without storing anything.
func (s *Store) RecordDuplicate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.manifest.Counters.Duplicates++
	return s.commitLocked()
}

// Images returns the manifest entries for a property in insertion order.
func (s *Store) Images(propertyKey string) []*propix.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	prop, ok := s.manifest.Properties[propertyKey]
	if !ok {
		return nil
	}
	out := make([]*propix.ImageRecord, len(prop.Images))
	for i, rec := range prop.Images {
		clone := *rec
		out[i] = &clone
	}
	return out
}

// AllImages returns every manifest entry in insertion order, properties
// sorted by key for determinism.
func (s *Store) AllImages() []*propix.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*propix.ImageRecord
	for _, key := range s.manifest.propertyKeys() {
		for _, rec := range s.manifest.Properties[key].Images {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out
}

// Counters returns the manifest's aggregate counters.
func (s *Store) Counters() propix.ManifestCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest.Counters
}

// Reconcile compares on-disk files to manifest entries and reports orphans
// and dangling entries. Nothing is deleted; findings are for the operator.
func (s *Store) Reconcile() (*propix.ReconciliationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &propix.ReconciliationReport{}

	onDisk := make(map[string]bool)
	base := filepath.Join(s.root, processedDir)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			onDisk[path] = true
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	referenced := make(map[string]bool)
	for _, key := range s.manifest.propertyKeys() {
		for _, rec := range s.manifest.Properties[key].Images {
			report.Checked++
			referenced[rec.StoragePath] = true
			if !onDisk[rec.StoragePath] {
				report.Dangling = append(report.Dangling, rec.StoragePath)
			}
		}
	}
	for path := range onDisk {
		if !referenced[path] {
			report.Orphans = append(report.Orphans, path)
		}
	}

	return report, nil
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.root, manifestFile)
}

// commitLocked persists the manifest with backup rotation. Callers hold mu.
func (s *Store) commitLocked() error {
	s.manifest.Version = manifestVersion
	s.manifest.LastUpdated = time.Now().UTC()
	data, err := s.manifest.marshal()
	if err != nil {
		return err
	}
	return commitWithBackups(s.manifestPath(), data)
}

// rebuildFromDisk is the corruption last resort: every file under
// processed/ becomes a record keyed by its content hash. Perceptual hashes
// and property attribution are unrecoverable and left empty.
func (s *Store) rebuildFromDisk() (*manifest, error) {
	m := newManifest()
	base := filepath.Join(s.root, processedDir)

	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		hash := strings.TrimSuffix(name, filepath.Ext(name))
		if len(hash) < hashPrefix {
			// Not a content-addressed file; leave it for Reconcile to report.
			s.logger.Warn("skipping unrecognized file during rebuild", "path", path)
			return nil
		}
		prop, ok := m.Properties[recoveredPropertyKey]
		if !ok {
			prop = &manifestProperty{}
			m.Properties[recoveredPropertyKey] = prop
			m.Counters.Properties++
		}
		prop.Images = append(prop.Images, &propix.ImageRecord{
			ID:           "recovered-" + hash[:hashPrefix],
			PropertyKey:  recoveredPropertyKey,
			ContentHash:  hash,
			StoragePath:  path,
			DiscoveredAt: time.Now().UTC(),
		})
		m.Counters.Images++
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return m, nil
}

// recoveredPropertyKey groups records rebuilt from disk whose property
// attribution was lost with the manifest.
const recoveredPropertyKey = "_recovered"
