package extract

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SourceLimiter enforces a minimum inter-request interval per source using
// token buckets, with randomized jitter added on top so request timing does
// not form a detectable pattern. Each source gets its own limiter with a
// burst of 1. SourceLimiter is safe for concurrent use.
type SourceLimiter struct {
	interval time.Duration
	jitter   time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewSourceLimiter creates a SourceLimiter with the given minimum interval
// between requests to one source. Up to jitter of extra random delay is
// added to every wait; zero disables jitter.
func NewSourceLimiter(minInterval, jitter time.Duration) *SourceLimiter {
	return &SourceLimiter{
		interval: minInterval,
		jitter:   jitter,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the rate limit allows a request to the source.
// Returns an error if the context is canceled before the wait completes.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[source] = limiter
	}
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	if l.jitter > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rand.N(l.jitter)):
		}
	}
	return nil
}
