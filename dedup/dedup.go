package dedup

import (
	"sort"
	"sync"

	"github.com/propix/propix"
)

// Ensure Deduplicator implements propix.Deduplicator at compile time.
var _ propix.Deduplicator = (*Deduplicator)(nil)

// entry is one catalog row. seq is the registration order, used as the
// deterministic tie-break when several candidates are equally similar.
type entry struct {
	fp          propix.Fingerprint
	propertyKey string
	source      string
	seq         uint64
}

// Deduplicator detects near-duplicate images across all stored photos.
// The catalog and band index mutate together under one lock, so they can
// never disagree. Deduplicator is safe for concurrent use.
type Deduplicator struct {
	mu        sync.Mutex
	catalog   map[string]entry
	index     *index
	threshold int
	nextSeq   uint64
}

// Option configures a Deduplicator.
type Option func(*config)

type config struct {
	numBands  int
	threshold int
}

// WithNumBands sets the LSH band count. Defaults to DefaultNumBands.
func WithNumBands(n int) Option {
	return func(c *config) { c.numBands = n }
}

// WithThreshold sets the maximum Hamming distance treated as a duplicate.
// Defaults to propix.DefaultSimilarityThreshold.
func WithThreshold(n int) Option {
	return func(c *config) { c.threshold = n }
}

// New creates a Deduplicator and rebuilds its band index from the given
// manifest records. The index is disposable and never persisted; the
// manifest is the durable catalog.
func New(records []*propix.ImageRecord, opts ...Option) (*Deduplicator, error) {
	cfg := config{
		numBands:  DefaultNumBands,
		threshold: propix.DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ix, err := newIndex(cfg.numBands, propix.FingerprintLength)
	if err != nil {
		return nil, err
	}

	d := &Deduplicator{
		catalog:   make(map[string]entry),
		index:     ix,
		threshold: cfg.threshold,
	}

	for _, rec := range records {
		// Records rebuilt from disk after manifest corruption carry empty
		// fingerprints; they are excluded until re-hashed.
		if rec.PerceptualHash == "" {
			continue
		}
		if err := d.Register(rec.ID, rec.PerceptualHash, rec.PropertyKey, rec.Source); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// IsDuplicate reports whether fp matches a registered image within the
// similarity threshold. LSH candidates narrow the search; the exact Hamming
// check gates the decision. Among equally-similar matches the
// earliest-registered image wins, so results are stable across calls.
func (d *Deduplicator) IsDuplicate(fp propix.Fingerprint) (bool, string, error) {
	if err := fp.Validate(); err != nil {
		return false, "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, 8)
	for id := range d.index.candidates(fp) {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return d.catalog[ids[i]].seq < d.catalog[ids[j]].seq
	})

	bestID := ""
	bestDist := d.threshold + 1
	for _, id := range ids {
		dist, err := propix.Distance(fp, d.catalog[id].fp)
		if err != nil {
			return false, "", err
		}
		if dist < bestDist {
			bestDist = dist
			bestID = id
		}
	}
	if bestID == "" {
		return false, "", nil
	}
	return true, bestID, nil
}

// Register adds the image to the catalog and the band index together.
// Returns ECONFLICT if the image ID is already registered.
func (d *Deduplicator) Register(id string, fp propix.Fingerprint, propertyKey, source string) error {
	if err := fp.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.catalog[id]; ok {
		return propix.Errorf(propix.ECONFLICT, "image %q already registered", id)
	}

	d.catalog[id] = entry{
		fp:          fp,
		propertyKey: propertyKey,
		source:      source,
		seq:         d.nextSeq,
	}
	d.nextSeq++
	d.index.insert(id, fp)
	return nil
}

// Remove deletes the image from the catalog and every band bucket.
// Returns ENOTFOUND if the image ID is not registered.
func (d *Deduplicator) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.catalog[id]
	if !ok {
		return propix.Errorf(propix.ENOTFOUND, "image %q not registered", id)
	}
	delete(d.catalog, id)
	d.index.remove(id, e.fp)
	return nil
}

// Clear empties the catalog and the index.
func (d *Deduplicator) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.catalog = make(map[string]entry)
	d.index.clear()
	d.nextSeq = 0
}

// Stats returns bucket statistics for band-count tuning.
func (d *Deduplicator) Stats() propix.DedupStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	buckets, avg, max := d.index.stats()
	return propix.DedupStats{
		Images:        len(d.catalog),
		Buckets:       buckets,
		AvgBucketSize: avg,
		MaxBucketSize: max,
	}
}
