package fs_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix"
	"github.com/propix/propix/fs"
)

func TestStateManager_Open(t *testing.T) {
	t.Parallel()

	t.Run("implements propix.StateService interface", func(t *testing.T) {
		t.Parallel()
		var _ propix.StateService = fs.NewStateManager(filepath.Join(t.TempDir(), "state.json"))
	})

	t.Run("creates fresh state", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.json")
		mgr := fs.NewStateManager(path)
		require.NoError(t, mgr.Open("run-1"))

		assert.Equal(t, "run-1", mgr.RunID())
		_, ok := mgr.State("unknown")
		assert.False(t, ok)

		// The fresh state is persisted immediately.
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("migrates legacy file without version", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.json")
		legacy := `{"properties": {"123-main-st": {"status": "completed"}}}`
		require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

		mgr := fs.NewStateManager(path)
		require.NoError(t, mgr.Open("run-2"))

		ps, ok := mgr.State("123-main-st")
		require.True(t, ok)
		assert.Equal(t, propix.StatusCompleted, ps.Status)
		assert.NotNil(t, ps.Attempts)
		assert.Equal(t, "run-2", mgr.RunID())

		// The migrated file carries the current version.
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var onDisk map[string]any
		require.NoError(t, json.Unmarshal(data, &onDisk))
		assert.Equal(t, float64(propix.RunStateVersion), onDisk["version"])
	})

	t.Run("future version returns ECORRUPT", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))

		err := fs.NewStateManager(path).Open("run-1")
		assert.Equal(t, propix.ECORRUPT, propix.ErrorCode(err))
	})

	t.Run("unparseable file returns ECORRUPT", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

		err := fs.NewStateManager(path).Open("run-1")
		assert.Equal(t, propix.ECORRUPT, propix.ErrorCode(err))
	})
}

func TestStateManager_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("checkpoint survives reopen", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.json")
		mgr := fs.NewStateManager(path)
		require.NoError(t, mgr.Open("run-1"))

		require.NoError(t, mgr.Update(ctx, "123-main-st", func(ps *propix.PropertyState) {
			ps.Status = propix.StatusInProgress
			ps.Attempts["zillow"]++
			ps.LastSource = "zillow"
		}))

		reopened := fs.NewStateManager(path)
		require.NoError(t, reopened.Open("run-2"))

		ps, ok := reopened.State("123-main-st")
		require.True(t, ok)
		assert.Equal(t, propix.StatusInProgress, ps.Status)
		assert.True(t, ps.Attempted("zillow"))
		assert.False(t, ps.Attempted("redfin"))
		assert.Equal(t, "run-1", reopened.RunID(), "existing run state keeps its run ID")
	})

	t.Run("state copies are isolated from the manager", func(t *testing.T) {
		t.Parallel()

		mgr := fs.NewStateManager(filepath.Join(t.TempDir(), "state.json"))
		require.NoError(t, mgr.Open("run-1"))
		require.NoError(t, mgr.Update(ctx, "p1", func(ps *propix.PropertyState) {
			ps.Attempts["zillow"] = 1
		}))

		ps, _ := mgr.State("p1")
		ps.Attempts["zillow"] = 99
		ps.Status = propix.StatusCompleted

		fresh, _ := mgr.State("p1")
		assert.Equal(t, 1, fresh.Attempts["zillow"])
		assert.Equal(t, propix.StatusPending, fresh.Status)
	})
}
