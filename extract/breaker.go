package extract

import (
	"sort"
	"sync"
	"time"

	"github.com/propix/propix"
)

// Circuit breaker defaults.
const (
	DefaultMaxFailures = 3
	DefaultCooldown    = 5 * time.Minute
)

// CircuitBreaker tracks per-source failure streaks and opens a circuit
// after too many consecutive failures. An open circuit is skipped entirely
// until its cooldown expires; the breaker then admits a single trial
// request (half-open) and closes on success or re-opens with a doubled
// cooldown on failure. CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu      sync.Mutex
	sources map[string]*health
}

type health struct {
	failures  int
	state     propix.CircuitState
	openUntil time.Time
	cooldown  time.Duration
	trial     bool // half-open trial already handed out
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithMaxFailures sets how many consecutive failures open the circuit.
func WithMaxFailures(n int) BreakerOption {
	return func(b *CircuitBreaker) { b.maxFailures = n }
}

// WithCooldown sets the initial open-circuit cooldown.
func WithCooldown(d time.Duration) BreakerOption {
	return func(b *CircuitBreaker) { b.cooldown = d }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *CircuitBreaker) { b.now = now }
}

// NewCircuitBreaker creates a CircuitBreaker with default thresholds.
func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	b := &CircuitBreaker{
		maxFailures: DefaultMaxFailures,
		cooldown:    DefaultCooldown,
		now:         time.Now,
		sources:     make(map[string]*health),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether the source may be attempted now. An expired
// cooldown transitions the circuit to half-open and admits exactly one
// trial request.
func (b *CircuitBreaker) Allow(source string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.get(source)
	switch h.state {
	case propix.CircuitClosed:
		return true
	case propix.CircuitOpen:
		if b.now().Before(h.openUntil) {
			return false
		}
		h.state = propix.CircuitHalfOpen
		h.trial = true
		return true
	case propix.CircuitHalfOpen:
		if h.trial {
			return false
		}
		h.trial = true
		return true
	}
	return true
}

// RecordSuccess resets the source's failure streak and closes its circuit.
// Call only on a successful download, not on mere URL discovery.
func (b *CircuitBreaker) RecordSuccess(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.get(source)
	h.failures = 0
	h.state = propix.CircuitClosed
	h.cooldown = b.cooldown
	h.trial = false
}

// ReleaseTrial hands back a half-open trial that ended without a definitive
// outcome, so the next Allow admits another trial instead of latching the
// circuit half-open forever. No-op unless the circuit is half-open.
func (b *CircuitBreaker) ReleaseTrial(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.get(source)
	if h.state == propix.CircuitHalfOpen {
		h.trial = false
	}
}

// RecordFailure increments the source's failure streak. Reaching the
// threshold opens the circuit; a failed half-open trial re-opens it with a
// doubled cooldown.
func (b *CircuitBreaker) RecordFailure(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.get(source)
	h.failures++

	if h.state == propix.CircuitHalfOpen {
		h.cooldown *= 2
		h.state = propix.CircuitOpen
		h.openUntil = b.now().Add(h.cooldown)
		h.trial = false
		return
	}
	if h.failures >= b.maxFailures {
		h.state = propix.CircuitOpen
		h.openUntil = b.now().Add(h.cooldown)
	}
}

// Health returns a snapshot of one source's circuit.
func (b *CircuitBreaker) Health(source string) propix.SourceHealth {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.get(source)
	return propix.SourceHealth{
		Source:        source,
		Failures:      h.failures,
		State:         h.state,
		CooldownUntil: h.openUntil,
	}
}

// All returns snapshots for every tracked source, sorted by name.
func (b *CircuitBreaker) All() []propix.SourceHealth {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]propix.SourceHealth, 0, len(b.sources))
	for name, h := range b.sources {
		out = append(out, propix.SourceHealth{
			Source:        name,
			Failures:      h.failures,
			State:         h.state,
			CooldownUntil: h.openUntil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// get returns the health entry for a source. Callers hold mu.
func (b *CircuitBreaker) get(source string) *health {
	h, ok := b.sources[source]
	if !ok {
		h = &health{state: propix.CircuitClosed, cooldown: b.cooldown}
		b.sources[source] = h
	}
	return h
}
