package mock

import "github.com/propix/propix"

var _ propix.Hasher = (*Hasher)(nil)

// Hasher is a mock implementation of propix.Hasher.
type Hasher struct {
	HashFn func(data []byte) (propix.Fingerprint, *propix.ImageInfo, error)
}

func (h *Hasher) Hash(data []byte) (propix.Fingerprint, *propix.ImageInfo, error) {
	return h.HashFn(data)
}
