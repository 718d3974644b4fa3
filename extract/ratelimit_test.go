package extract_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix/extract"
)

func TestSourceLimiter(t *testing.T) {
	t.Parallel()

	t.Run("first request is immediate", func(t *testing.T) {
		t.Parallel()

		limiter := extract.NewSourceLimiter(100*time.Millisecond, 0)

		start := time.Now()
		err := limiter.Wait(context.Background(), "zillow")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond)
	})

	t.Run("enforces minimum interval per source", func(t *testing.T) {
		t.Parallel()

		limiter := extract.NewSourceLimiter(100*time.Millisecond, 0)
		require.NoError(t, limiter.Wait(context.Background(), "zillow"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "zillow")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	})

	t.Run("sources are throttled independently", func(t *testing.T) {
		t.Parallel()

		limiter := extract.NewSourceLimiter(100*time.Millisecond, 0)
		require.NoError(t, limiter.Wait(context.Background(), "zillow"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "redfin")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond)
	})

	t.Run("jitter adds bounded extra delay", func(t *testing.T) {
		t.Parallel()

		limiter := extract.NewSourceLimiter(time.Millisecond, 20*time.Millisecond)

		start := time.Now()
		err := limiter.Wait(context.Background(), "zillow")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 100*time.Millisecond)
	})

	t.Run("canceled context aborts the wait", func(t *testing.T) {
		t.Parallel()

		limiter := extract.NewSourceLimiter(time.Hour, 0)
		require.NoError(t, limiter.Wait(context.Background(), "zillow"))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx, "zillow")
		assert.Error(t, err)
	})
}
