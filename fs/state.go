package fs

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/propix/propix"
)

// Ensure StateManager implements propix.StateService at compile time.
var _ propix.StateService = (*StateManager)(nil)

// StateManager owns the run-state checkpoint file. Every Update persists
// atomically, so a crash resumes at the last completed source attempt.
// StateManager is safe for concurrent use.
type StateManager struct {
	path string

	mu    sync.Mutex
	state *propix.RunState
}

// NewStateManager creates a StateManager backed by the file at path.
// Open must be called before use.
func NewStateManager(path string) *StateManager {
	return &StateManager{path: path}
}

// Open loads the run-state file, creating a fresh state for runID if none
// exists. A file without a version field is legacy and is migrated in
// place rather than rejected.
func (m *StateManager) Open(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.state = &propix.RunState{
			Version:    propix.RunStateVersion,
			RunID:      runID,
			StartedAt:  time.Now().UTC(),
			Properties: make(map[string]*propix.PropertyState),
		}
		return m.persistLocked()
	}
	if err != nil {
		return err
	}

	var st propix.RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return propix.Errorf(propix.ECORRUPT, "run state %s: %v", m.path, err)
	}

	migrated := false
	if st.Version == 0 {
		// Legacy file: fill in the fields later schemas added.
		st.Version = propix.RunStateVersion
		migrated = true
	}
	if st.Version > propix.RunStateVersion {
		return propix.Errorf(propix.ECORRUPT, "run state %s: unsupported version %d", m.path, st.Version)
	}
	if st.RunID == "" {
		st.RunID = runID
		migrated = true
	}
	if st.Properties == nil {
		st.Properties = make(map[string]*propix.PropertyState)
		migrated = true
	}
	for _, ps := range st.Properties {
		if ps.Attempts == nil {
			ps.Attempts = make(map[string]int)
			migrated = true
		}
	}

	m.state = &st
	if migrated {
		return m.persistLocked()
	}
	return nil
}

// RunID returns the identifier of the current run.
func (m *StateManager) RunID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.RunID
}

// State returns a copy of the checkpoint for a property.
func (m *StateManager) State(propertyKey string) (*propix.PropertyState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.state.Properties[propertyKey]
	if !ok {
		return nil, false
	}
	clone := *ps
	clone.Attempts = make(map[string]int, len(ps.Attempts))
	for k, v := range ps.Attempts {
		clone.Attempts[k] = v
	}
	return &clone, true
}

// Update applies fn to the property's state and persists atomically.
// A missing state is created as StatusPending first.
func (m *StateManager) Update(ctx context.Context, propertyKey string, fn func(*propix.PropertyState)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.state.Properties[propertyKey]
	if !ok {
		ps = &propix.PropertyState{
			Status:   propix.StatusPending,
			Attempts: make(map[string]int),
		}
		m.state.Properties[propertyKey] = ps
	}
	fn(ps)
	ps.UpdatedAt = time.Now().UTC()

	return m.persistLocked()
}

// persistLocked writes the state file with backup rotation. Callers hold mu.
func (m *StateManager) persistLocked() error {
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return err
	}
	return commitWithBackups(m.path, data)
}
