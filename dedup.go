package propix

// DedupStats exposes LSH bucket statistics for tuning the band count per
// corpus size. Average bucket size should stay in single digits; larger
// averages mean the index is degrading toward a linear scan.
type DedupStats struct {
	Images        int
	Buckets       int
	AvgBucketSize float64
	MaxBucketSize int
}

// Deduplicator detects near-duplicate images by perceptual hash. It owns
// an in-memory LSH band index over the persisted catalog; the index is
// disposable and rebuilt from the manifest on construction.
type Deduplicator interface {
	// IsDuplicate reports whether fp is within the similarity threshold of
	// a registered image. LSH candidates only narrow the search; the exact
	// Hamming check gates the decision. When several registered images are
	// equally similar the earliest-registered one wins.
	IsDuplicate(fp Fingerprint) (dup bool, existingID string, err error)

	// Register adds an image to the catalog and the band index together.
	// Returns ECONFLICT if the image ID is already registered.
	Register(id string, fp Fingerprint, propertyKey, source string) error

	// Remove deletes an image from the catalog and every band bucket.
	// Returns ENOTFOUND if the image ID is not registered.
	Remove(id string) error

	// Clear empties the catalog and the index.
	Clear()

	// Stats returns bucket statistics.
	Stats() DedupStats
}
