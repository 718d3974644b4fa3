package propix

import "time"

// CircuitState is the failure-isolation state of one source.
type CircuitState string

// Circuit breaker states. An open circuit skips the source entirely until
// its cooldown expires; half-open admits a single trial request.
const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// SourceHealth is a snapshot of one source's failure tracking.
type SourceHealth struct {
	Source        string
	Failures      int
	State         CircuitState
	CooldownUntil time.Time
}
