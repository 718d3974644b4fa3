package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/propix/propix"
)

// Compile-time interface verification.
var _ propix.StatsService = (*StatsService)(nil)

// StatsService implements propix.StatsService using SQLite.
type StatsService struct {
	db *DB
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *DB) *StatsService {
	return &StatsService{db: db}
}

// RecordAttempt appends one attempt row to the ledger.
func (s *StatsService) RecordAttempt(ctx context.Context, a *propix.SourceAttempt) error {
	if a.Source == "" {
		return propix.Errorf(propix.EINVALID, "attempt source required")
	}
	if a.Outcome == "" {
		return propix.Errorf(propix.EINVALID, "attempt outcome required")
	}

	at := a.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO source_attempts (id, run_id, property_key, source, outcome, images, duplicates, reason, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), a.RunID, a.PropertyKey, a.Source, string(a.Outcome),
		a.Images, a.Duplicates, a.Reason, at.Format(time.RFC3339))

	return err
}

// SourceStats returns per-source aggregates across all recorded runs,
// ordered by source name.
func (s *StatsService) SourceStats(ctx context.Context) ([]propix.SourceStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			source,
			COUNT(*),
			SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'challenge' THEN 1 ELSE 0 END),
			SUM(images),
			SUM(duplicates)
		FROM source_attempts
		GROUP BY source
		ORDER BY source
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []propix.SourceStat
	for rows.Next() {
		var st propix.SourceStat
		if err := rows.Scan(&st.Source, &st.Attempts, &st.Successes, &st.Challenges, &st.Images, &st.Duplicates); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// RunAttempts returns the attempt rows for one run in chronological order.
func (s *StatsService) RunAttempts(ctx context.Context, runID string) ([]*propix.SourceAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, property_key, source, outcome, images, duplicates, reason, attempted_at
		FROM source_attempts
		WHERE run_id = ?
		ORDER BY attempted_at, property_key, source
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*propix.SourceAttempt
	for rows.Next() {
		var a propix.SourceAttempt
		var outcome, attemptedAt string
		if err := rows.Scan(&a.RunID, &a.PropertyKey, &a.Source, &outcome, &a.Images, &a.Duplicates, &a.Reason, &attemptedAt); err != nil {
			return nil, err
		}
		a.Outcome = propix.AttemptOutcome(outcome)
		a.At, err = time.Parse(time.RFC3339, attemptedAt)
		if err != nil {
			return nil, propix.Errorf(propix.ECORRUPT, "failed to parse attempted_at: %v", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}
