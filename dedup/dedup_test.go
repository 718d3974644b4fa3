package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix"
	"github.com/propix/propix/dedup"
)

func TestDeduplicator_IsDuplicate(t *testing.T) {
	t.Parallel()

	t.Run("implements propix.Deduplicator interface", func(t *testing.T) {
		t.Parallel()
		d, err := dedup.New(nil)
		require.NoError(t, err)
		var _ propix.Deduplicator = d
	})

	t.Run("empty catalog has no duplicates", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)

		dup, id, err := d.IsDuplicate("0000000000000000")
		require.NoError(t, err)
		assert.False(t, dup)
		assert.Empty(t, id)
	})

	t.Run("detects near-identical fingerprint within threshold", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)
		require.NoError(t, d.Register("img-1", "0000000000000000", "p1", "zillow"))

		// 8 bits away, shares all but the first band.
		dup, id, err := d.IsDuplicate("ff00000000000000")
		require.NoError(t, err)
		assert.True(t, dup)
		assert.Equal(t, "img-1", id)
	})

	t.Run("rejects fingerprint beyond threshold even when bands overlap", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)
		require.NoError(t, d.Register("img-1", "0000000000000000", "p1", "zillow"))

		// 16 bits away but still shares six of eight bands.
		dup, id, err := d.IsDuplicate("ffff000000000000")
		require.NoError(t, err)
		assert.False(t, dup)
		assert.Empty(t, id)
	})

	t.Run("exact match is a duplicate", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)
		require.NoError(t, d.Register("img-1", "a1b2c3d4e5f60718", "p1", "zillow"))

		dup, id, err := d.IsDuplicate("a1b2c3d4e5f60718")
		require.NoError(t, err)
		assert.True(t, dup)
		assert.Equal(t, "img-1", id)
	})

	t.Run("earliest registered wins among equally similar matches", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)
		require.NoError(t, d.Register("img-2", "0000000000000000", "p1", "zillow"))
		require.NoError(t, d.Register("img-1", "0000000000000000", "p1", "redfin"))

		dup, id, err := d.IsDuplicate("0000000000000000")
		require.NoError(t, err)
		assert.True(t, dup)
		assert.Equal(t, "img-2", id, "registration order breaks the tie, not lexicographic order")
	})

	t.Run("invalid fingerprint returns EINVALID", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)

		_, _, err = d.IsDuplicate("short")
		assert.Equal(t, propix.EINVALID, propix.ErrorCode(err))
	})
}

func TestDeduplicator_Register(t *testing.T) {
	t.Parallel()

	t.Run("duplicate image ID returns ECONFLICT", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)
		require.NoError(t, d.Register("img-1", "0000000000000000", "p1", "zillow"))

		err = d.Register("img-1", "ffffffffffffffff", "p2", "redfin")
		assert.Equal(t, propix.ECONFLICT, propix.ErrorCode(err))
	})

	t.Run("each image occupies one bucket per band", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)
		require.NoError(t, d.Register("img-1", "0123456789abcdef", "p1", "zillow"))

		stats := d.Stats()
		assert.Equal(t, 1, stats.Images)
		assert.Equal(t, 8, stats.Buckets)
		assert.Equal(t, 1, stats.MaxBucketSize)
	})
}

func TestDeduplicator_Remove(t *testing.T) {
	t.Parallel()

	t.Run("register then remove round trip", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)
		require.NoError(t, d.Register("img-1", "0123456789abcdef", "p1", "zillow"))
		require.NoError(t, d.Remove("img-1"))

		dup, _, err := d.IsDuplicate("0123456789abcdef")
		require.NoError(t, err)
		assert.False(t, dup)

		stats := d.Stats()
		assert.Equal(t, 0, stats.Images)
		assert.Equal(t, 0, stats.Buckets, "removed image must be absent from every band bucket")
	})

	t.Run("unknown image ID returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		d, err := dedup.New(nil)
		require.NoError(t, err)

		err = d.Remove("missing")
		assert.Equal(t, propix.ENOTFOUND, propix.ErrorCode(err))
	})
}

func TestDeduplicator_Clear(t *testing.T) {
	t.Parallel()

	d, err := dedup.New(nil)
	require.NoError(t, err)
	require.NoError(t, d.Register("img-1", "0123456789abcdef", "p1", "zillow"))
	require.NoError(t, d.Register("img-2", "fedcba9876543210", "p1", "redfin"))

	d.Clear()

	stats := d.Stats()
	assert.Equal(t, 0, stats.Images)
	assert.Equal(t, 0, stats.Buckets)

	// IDs are reusable after a clear.
	assert.NoError(t, d.Register("img-1", "0123456789abcdef", "p1", "zillow"))
}

func TestNew_RebuildFromManifest(t *testing.T) {
	t.Parallel()

	t.Run("rebuilds index from records", func(t *testing.T) {
		t.Parallel()

		records := []*propix.ImageRecord{
			{ID: "img-1", PerceptualHash: "0000000000000000", PropertyKey: "p1", Source: "zillow"},
			{ID: "img-2", PerceptualHash: "ffffffffffffffff", PropertyKey: "p2", Source: "redfin"},
		}
		d, err := dedup.New(records)
		require.NoError(t, err)

		dup, id, err := d.IsDuplicate("0000000000000001")
		require.NoError(t, err)
		assert.True(t, dup)
		assert.Equal(t, "img-1", id)
	})

	t.Run("skips records without fingerprints", func(t *testing.T) {
		t.Parallel()

		records := []*propix.ImageRecord{
			{ID: "img-1", PerceptualHash: "", PropertyKey: "p1", Source: "zillow"},
		}
		d, err := dedup.New(records)
		require.NoError(t, err)
		assert.Equal(t, 0, d.Stats().Images)
	})

	t.Run("rejects band count that does not divide the fingerprint", func(t *testing.T) {
		t.Parallel()

		_, err := dedup.New(nil, dedup.WithNumBands(5))
		assert.Equal(t, propix.EINVALID, propix.ErrorCode(err))
	})
}

func TestDeduplicator_Stats(t *testing.T) {
	t.Parallel()

	d, err := dedup.New(nil)
	require.NoError(t, err)

	// Two identical fingerprints share all eight buckets.
	require.NoError(t, d.Register("img-1", "0000000000000000", "p1", "zillow"))
	require.NoError(t, d.Register("img-2", "0000000000000000", "p2", "zillow"))

	stats := d.Stats()
	assert.Equal(t, 2, stats.Images)
	assert.Equal(t, 8, stats.Buckets)
	assert.Equal(t, 2, stats.MaxBucketSize)
	assert.InDelta(t, 2.0, stats.AvgBucketSize, 0.001)
}
