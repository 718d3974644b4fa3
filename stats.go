package propix

import (
	"context"
	"time"
)

// AttemptOutcome classifies one source attempt for the statistics ledger.
type AttemptOutcome string

// Source attempt outcomes.
const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeFailure   AttemptOutcome = "failure"
	OutcomeChallenge AttemptOutcome = "challenge"
	OutcomeSkipped   AttemptOutcome = "skipped" // circuit open
)

// SourceAttempt is one row in the statistics ledger.
type SourceAttempt struct {
	RunID       string
	PropertyKey string
	Source      string
	Outcome     AttemptOutcome
	Images      int
	Duplicates  int
	Reason      string
	At          time.Time
}

// SourceStat is the aggregate read by the reporting collaborator.
type SourceStat struct {
	Source     string
	Attempts   int
	Successes  int
	Challenges int
	Images     int
	Duplicates int
}

// SuccessRate returns the fraction of attempts that succeeded.
func (s *SourceStat) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts)
}

// StatsService records per-source attempt outcomes and serves aggregate
// extraction statistics.
type StatsService interface {
	// RecordAttempt appends an attempt row.
	RecordAttempt(ctx context.Context, a *SourceAttempt) error

	// SourceStats returns per-source aggregates across all runs.
	SourceStats(ctx context.Context) ([]SourceStat, error)
}
