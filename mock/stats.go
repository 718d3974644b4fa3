package mock

import (
	"context"

	"github.com/propix/propix"
)

var _ propix.StatsService = (*StatsService)(nil)

// StatsService is a mock implementation of propix.StatsService.
type StatsService struct {
	RecordAttemptFn func(ctx context.Context, a *propix.SourceAttempt) error
	SourceStatsFn   func(ctx context.Context) ([]propix.SourceStat, error)
}

func (s *StatsService) RecordAttempt(ctx context.Context, a *propix.SourceAttempt) error {
	return s.RecordAttemptFn(ctx, a)
}

func (s *StatsService) SourceStats(ctx context.Context) ([]propix.SourceStat, error) {
	return s.SourceStatsFn(ctx)
}
