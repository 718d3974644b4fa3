package propix

// DefaultSimilarityThreshold is the maximum Hamming distance at which two
// fingerprints are considered the same photo. Calibrated so re-encoded
// copies of one photo match while distinct photos of the same room do not.
const DefaultSimilarityThreshold = 8

// FingerprintLength is the length of a fingerprint in hex characters
// (64 bits).
const FingerprintLength = 16

// Fingerprint is a fixed-length hex perceptual hash of image content.
// Visually similar images produce fingerprints with small Hamming distance;
// collisions between near-identical images are by design.
type Fingerprint string

// Validate returns an error if the fingerprint is malformed.
func (f Fingerprint) Validate() error {
	if len(f) != FingerprintLength {
		return Errorf(EINVALID, "fingerprint must be %d hex characters, got %d", FingerprintLength, len(f))
	}
	for _, c := range f {
		if !isHex(byte(c)) {
			return Errorf(EINVALID, "fingerprint contains non-hex character %q", c)
		}
	}
	return nil
}

// Distance returns the bit-level Hamming distance between two fingerprints.
// Returns EINVALID if the fingerprints have different lengths.
func Distance(a, b Fingerprint) (int, error) {
	if len(a) != len(b) {
		return 0, Errorf(EINVALID, "fingerprint length mismatch: %d vs %d", len(a), len(b))
	}
	var dist int
	for i := 0; i < len(a); i++ {
		x := hexVal(a[i]) ^ hexVal(b[i])
		for x != 0 {
			dist += int(x & 1)
			x >>= 1
		}
	}
	return dist, nil
}

// IsSimilar reports whether two fingerprints are within threshold bits of
// each other. Returns EINVALID if the fingerprints have different lengths.
func IsSimilar(a, b Fingerprint, threshold int) (bool, error) {
	d, err := Distance(a, b)
	if err != nil {
		return false, err
	}
	return d <= threshold, nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
