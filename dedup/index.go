// Package dedup provides near-duplicate image detection using perceptual
// hashes with locality-sensitive-hash banding. The band index turns an
// O(n) scan over registered fingerprints into an expected O(k) candidate
// lookup, k being the handful of images sharing at least one band.
package dedup

import (
	"github.com/cespare/xxhash/v2"

	"github.com/propix/propix"
)

// DefaultNumBands splits the 64-bit fingerprint into 8 bands of 8 bits.
// Pairs within the similarity threshold are very likely, but not guaranteed,
// to share at least one band; this recall/speed trade-off is tuned via the
// band count, not silently dropped.
const DefaultNumBands = 8

// index is the in-memory LSH band structure. It is not safe for concurrent
// use; the owning Deduplicator serializes access.
type index struct {
	numBands int
	bandLen  int
	buckets  map[uint64]map[string]struct{}
}

func newIndex(numBands, fingerprintLen int) (*index, error) {
	if numBands <= 0 {
		return nil, propix.Errorf(propix.EINVALID, "band count must be positive, got %d", numBands)
	}
	if fingerprintLen%numBands != 0 {
		return nil, propix.Errorf(propix.EINVALID, "fingerprint length %d not divisible by %d bands", fingerprintLen, numBands)
	}
	return &index{
		numBands: numBands,
		bandLen:  fingerprintLen / numBands,
		buckets:  make(map[uint64]map[string]struct{}),
	}, nil
}

// bandKeys splits the fingerprint into numBands equal contiguous substrings
// and hashes each with its band position, so identical substrings in
// different bands land in different buckets.
func (ix *index) bandKeys(fp propix.Fingerprint) []uint64 {
	keys := make([]uint64, ix.numBands)
	for i := 0; i < ix.numBands; i++ {
		band := string(fp[i*ix.bandLen : (i+1)*ix.bandLen])
		h := xxhash.New()
		_, _ = h.Write([]byte{byte(i)})
		_, _ = h.WriteString(band)
		keys[i] = h.Sum64()
	}
	return keys
}

// insert adds the image to one bucket per band.
func (ix *index) insert(id string, fp propix.Fingerprint) {
	for _, key := range ix.bandKeys(fp) {
		bucket, ok := ix.buckets[key]
		if !ok {
			bucket = make(map[string]struct{})
			ix.buckets[key] = bucket
		}
		bucket[id] = struct{}{}
	}
}

// remove deletes the image from every band bucket, dropping emptied buckets.
func (ix *index) remove(id string, fp propix.Fingerprint) {
	for _, key := range ix.bandKeys(fp) {
		bucket, ok := ix.buckets[key]
		if !ok {
			continue
		}
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(ix.buckets, key)
		}
	}
}

// candidates returns the union of bucket contents across all bands.
// The result only narrows the search space; callers must still apply the
// exact Hamming check.
func (ix *index) candidates(fp propix.Fingerprint) map[string]struct{} {
	out := make(map[string]struct{})
	for _, key := range ix.bandKeys(fp) {
		for id := range ix.buckets[key] {
			out[id] = struct{}{}
		}
	}
	return out
}

func (ix *index) clear() {
	ix.buckets = make(map[uint64]map[string]struct{})
}

func (ix *index) stats() (buckets int, avg float64, max int) {
	buckets = len(ix.buckets)
	if buckets == 0 {
		return 0, 0, 0
	}
	total := 0
	for _, b := range ix.buckets {
		total += len(b)
		if len(b) > max {
			max = len(b)
		}
	}
	return buckets, float64(total) / float64(buckets), max
}
