package extract

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// URL filter sizing. A filter is scoped to one property, so sources
// re-listing the same CDN URLs within that listing are fetched once, while
// the same URL appearing on another property's listing is still downloaded
// and attributed there. A false positive skips a candidate outright; at
// this sizing that is roughly a one-in-ten-thousand event per URL.
const (
	urlFilterCapacity = 4096
	urlFilterFPRate   = 0.0001
)

// urlFilter tracks candidate URLs already visited for one property. The
// underlying bloom filter is not safe for concurrent use, so access is
// serialized here.
type urlFilter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

func newURLFilter() *urlFilter {
	return &urlFilter{f: bloom.NewWithEstimates(urlFilterCapacity, urlFilterFPRate)}
}

// firstVisit marks the URL seen and reports whether this was the first time.
func (u *urlFilter) firstVisit(url string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.f.TestString(url) {
		return false
	}
	u.f.AddString(url)
	return true
}
