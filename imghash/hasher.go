// Package imghash validates downloaded image bytes and computes their
// perceptual fingerprint. Bytes that fail to decode or violate size and
// dimension bounds are rejected before they reach the store or the
// deduplicator.
package imghash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"

	"github.com/propix/propix"
)

// Validation bounds. Listing thumbnails below the minimum dimensions carry
// no assessment value; anything above the byte cap is not a listing photo.
const (
	DefaultMinDimension = 64
	DefaultMaxBytes     = 20 << 20 // 20MB
)

// Ensure Hasher implements propix.Hasher at compile time.
var _ propix.Hasher = (*Hasher)(nil)

// Hasher decodes, validates, and fingerprints image bytes using a 64-bit
// difference hash. Hasher is stateless and safe for concurrent use.
type Hasher struct {
	minDimension int
	maxBytes     int
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithMinDimension sets the minimum accepted width and height.
func WithMinDimension(px int) Option {
	return func(h *Hasher) { h.minDimension = px }
}

// WithMaxBytes sets the maximum accepted payload size.
func WithMaxBytes(n int) Option {
	return func(h *Hasher) { h.maxBytes = n }
}

// NewHasher creates a Hasher with default validation bounds.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		minDimension: DefaultMinDimension,
		maxBytes:     DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash validates data and returns its perceptual fingerprint and decoded
// image info. All rejections are EINVALID; callers must discard rejected
// bytes rather than store them.
func (h *Hasher) Hash(data []byte) (propix.Fingerprint, *propix.ImageInfo, error) {
	if len(data) == 0 {
		return "", nil, propix.Errorf(propix.EINVALID, "empty image payload")
	}
	if len(data) > h.maxBytes {
		return "", nil, propix.Errorf(propix.EINVALID, "image payload %d bytes exceeds limit %d", len(data), h.maxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, propix.Errorf(propix.EINVALID, "image decode failed: %v", err)
	}

	bounds := img.Bounds()
	info := &propix.ImageInfo{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}
	if info.Width < h.minDimension || info.Height < h.minDimension {
		return "", nil, propix.Errorf(propix.EINVALID, "image %dx%d below minimum dimension %d", info.Width, info.Height, h.minDimension)
	}

	dh, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return "", nil, propix.Errorf(propix.EINTERNAL, "difference hash failed: %v", err)
	}

	fp := propix.Fingerprint(fmt.Sprintf("%016x", dh.GetHash()))
	return fp, info, nil
}

// Ext returns the canonical file extension for a decoded format.
func Ext(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "png", "gif", "webp":
		return format
	default:
		return "bin"
	}
}
