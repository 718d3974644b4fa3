package propix

import (
	"context"
	"time"
)

// PropertyStatus is the extraction lifecycle state of one property.
type PropertyStatus string

// Property extraction statuses. InProgress found at load time indicates
// a crash mid-property; the orchestrator resumes at the next untried source
// rather than treating the property as failed.
const (
	StatusPending    PropertyStatus = "pending"
	StatusInProgress PropertyStatus = "in_progress"
	StatusCompleted  PropertyStatus = "completed"
	StatusExhausted  PropertyStatus = "exhausted"
)

// PropertyState is the durable per-property checkpoint. It is mutated after
// every source attempt, never mid-operation, so a crash resumes at the next
// untried source.
type PropertyState struct {
	Status     PropertyStatus `json:"status"`
	Attempts   map[string]int `json:"attempts"`
	LastSource string         `json:"last_source"`
	Images     int            `json:"images"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Attempted returns true if the source has been tried for this property.
func (s *PropertyState) Attempted(source string) bool {
	return s.Attempts[source] > 0
}

// RunStateVersion is the current schema version of the run-state file.
// Files without a version field are treated as legacy and migrated on load.
const RunStateVersion = 2

// RunState is the durable extraction progress for a whole batch.
type RunState struct {
	Version    int                       `json:"version"`
	RunID      string                    `json:"run_id"`
	StartedAt  time.Time                 `json:"started_at"`
	Properties map[string]*PropertyState `json:"properties"`
}

// StateService owns the run-state file. All mutations funnel through Update
// which persists at well-defined checkpoints.
type StateService interface {
	// RunID returns the identifier of the current run.
	RunID() string

	// State returns the checkpoint for a property, or ok=false if the
	// property has never been touched.
	State(propertyKey string) (*PropertyState, bool)

	// Update applies fn to the property's state and persists the result
	// atomically. A missing state is created as StatusPending first.
	Update(ctx context.Context, propertyKey string, fn func(*PropertyState)) error
}
