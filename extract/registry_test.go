package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix"
	"github.com/propix/propix/extract"
	"github.com/propix/propix/mock"
)

func namedExtractor(name string) *mock.SourceExtractor {
	return &mock.SourceExtractor{NameFn: func() string { return name }}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("implements propix.ExtractorRegistry interface", func(t *testing.T) {
		t.Parallel()
		var _ propix.ExtractorRegistry = extract.NewRegistry()
	})

	t.Run("orders by priority descending with name tie-break", func(t *testing.T) {
		t.Parallel()

		r := extract.NewRegistry()
		r.Register("generic", 10, namedExtractor("generic"))
		r.Register("zillow", 100, namedExtractor("zillow"))
		r.Register("redfin", 100, namedExtractor("redfin"))

		sources := r.ByPriority()
		require.Len(t, sources, 3)
		assert.Equal(t, "redfin", sources[0].Name)
		assert.Equal(t, "zillow", sources[1].Name)
		assert.Equal(t, "generic", sources[2].Name)
	})

	t.Run("re-registering replaces the entry", func(t *testing.T) {
		t.Parallel()

		r := extract.NewRegistry()
		r.Register("zillow", 100, namedExtractor("zillow"))
		r.Register("zillow", 5, namedExtractor("zillow"))

		sources := r.ByPriority()
		require.Len(t, sources, 1)
		assert.Equal(t, 5, sources[0].Priority)
	})

	t.Run("Get returns registered extractor", func(t *testing.T) {
		t.Parallel()

		r := extract.NewRegistry()
		r.Register("zillow", 100, namedExtractor("zillow"))

		ex, ok := r.Get("zillow")
		require.True(t, ok)
		assert.Equal(t, "zillow", ex.Name())

		_, ok = r.Get("missing")
		assert.False(t, ok)
	})
}
