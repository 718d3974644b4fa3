package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix"
	"github.com/propix/propix/sqlite"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStatsService_SourceStats(t *testing.T) {
	t.Parallel()

	svc := sqlite.NewStatsService(openDB(t))
	ctx := context.Background()

	attempts := []*propix.SourceAttempt{
		{RunID: "run-1", PropertyKey: "p1", Source: "zillow", Outcome: propix.OutcomeSuccess, Images: 11, Duplicates: 1},
		{RunID: "run-1", PropertyKey: "p2", Source: "zillow", Outcome: propix.OutcomeChallenge, Reason: "captcha interstitial"},
		{RunID: "run-1", PropertyKey: "p2", Source: "redfin", Outcome: propix.OutcomeSuccess, Images: 8},
		{RunID: "run-2", PropertyKey: "p3", Source: "zillow", Outcome: propix.OutcomeFailure, Reason: "no candidate URL downloaded"},
	}
	for _, a := range attempts {
		require.NoError(t, svc.RecordAttempt(ctx, a))
	}

	stats, err := svc.SourceStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	redfin, zillow := stats[0], stats[1]
	assert.Equal(t, "redfin", redfin.Source)
	assert.Equal(t, 1, redfin.Attempts)
	assert.Equal(t, 1, redfin.Successes)
	assert.Equal(t, 8, redfin.Images)

	assert.Equal(t, "zillow", zillow.Source)
	assert.Equal(t, 3, zillow.Attempts)
	assert.Equal(t, 1, zillow.Successes)
	assert.Equal(t, 1, zillow.Challenges)
	assert.Equal(t, 11, zillow.Images)
	assert.Equal(t, 1, zillow.Duplicates)
	assert.InDelta(t, 1.0/3.0, zillow.SuccessRate(), 1e-9)
}

func TestStatsService_RunAttempts(t *testing.T) {
	t.Parallel()

	svc := sqlite.NewStatsService(openDB(t))
	ctx := context.Background()

	at := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecordAttempt(ctx, &propix.SourceAttempt{
		RunID: "run-1", PropertyKey: "p1", Source: "zillow",
		Outcome: propix.OutcomeSuccess, Images: 5, At: at,
	}))
	require.NoError(t, svc.RecordAttempt(ctx, &propix.SourceAttempt{
		RunID: "run-2", PropertyKey: "p1", Source: "zillow",
		Outcome: propix.OutcomeFailure,
	}))

	attempts, err := svc.RunAttempts(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "p1", attempts[0].PropertyKey)
	assert.Equal(t, propix.OutcomeSuccess, attempts[0].Outcome)
	assert.True(t, attempts[0].At.Equal(at))
}

func TestStatsService_RecordAttempt_Validation(t *testing.T) {
	t.Parallel()

	svc := sqlite.NewStatsService(openDB(t))
	ctx := context.Background()

	err := svc.RecordAttempt(ctx, &propix.SourceAttempt{Outcome: propix.OutcomeSuccess})
	assert.Equal(t, propix.EINVALID, propix.ErrorCode(err))

	err = svc.RecordAttempt(ctx, &propix.SourceAttempt{Source: "zillow"})
	assert.Equal(t, propix.EINVALID, propix.ErrorCode(err))
}
