package csv_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix"
	"github.com/propix/propix/csv"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPropertyProvider_Properties(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `key,street,city,state,zip
custom-key,123 Main St,Springfield,IL,62704
,456 Oak Ave,Portland,OR,97201
`)

	props, err := csv.NewPropertyProvider(path).Properties(context.Background())
	require.NoError(t, err)
	require.Len(t, props, 2)

	assert.Equal(t, "custom-key", props[0].Key)
	assert.Equal(t, "123 Main St", props[0].Street)

	assert.Equal(t, "456-oak-ave-portland-or-97201", props[1].Key, "missing key derived from address")
	assert.Equal(t, "97201", props[1].Zip)
}

func TestPropertyProvider_HeaderOnlyColumns(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `street,city
789 Pine Rd,Austin
`)

	props, err := csv.NewPropertyProvider(path).Properties(context.Background())
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "789-pine-rd-austin", props[0].Key)
	assert.Empty(t, props[0].State)
}

func TestPropertyProvider_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := csv.NewPropertyProvider(filepath.Join(t.TempDir(), "absent.csv")).Properties(context.Background())
		assert.Equal(t, propix.ECONFIG, propix.ErrorCode(err))
	})

	t.Run("no street column", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "name,price\nfoo,1\n")
		_, err := csv.NewPropertyProvider(path).Properties(context.Background())
		assert.Equal(t, propix.ECONFIG, propix.ErrorCode(err))
	})

	t.Run("empty street", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "street,city\n,Springfield\n")
		_, err := csv.NewPropertyProvider(path).Properties(context.Background())
		assert.Equal(t, propix.ECONFIG, propix.ErrorCode(err))
	})

	t.Run("duplicate keys", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "key,street\nsame,1 A St\nsame,2 B St\n")
		_, err := csv.NewPropertyProvider(path).Properties(context.Background())
		assert.Equal(t, propix.ECONFIG, propix.ErrorCode(err))
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "")
		_, err := csv.NewPropertyProvider(path).Properties(context.Background())
		assert.Equal(t, propix.ECONFIG, propix.ErrorCode(err))
	})
}
