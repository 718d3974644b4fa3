package extract

import (
	"context"
	"time"

	"github.com/propix/propix"
)

// DownloadFunc is the signature for a download function.
type DownloadFunc func(ctx context.Context, url string) ([]byte, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// BackoffDelays returns a bounded exponential backoff schedule:
// base, base*2, base*4, ... capped at maxDelay, retries entries long.
func BackoffDelays(base, maxDelay time.Duration, retries int) []time.Duration {
	delays := make([]time.Duration, retries)
	d := base
	for i := 0; i < retries; i++ {
		delays[i] = d
		d *= 2
		if d > maxDelay {
			d = maxDelay
		}
	}
	return delays
}

// DefaultRetryDelays returns the backoff delays for download retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return BackoffDelays(1*time.Second, 30*time.Second, 3)
}

// DownloadWithRetryDelays attempts a download with bounded retry on
// transient failures. Only EUNAVAILABLE errors are retried; validation and
// challenge errors surface immediately. An exhausted schedule returns the
// last transient error, which the caller escalates to a source failure
// rather than a property failure.
func DownloadWithRetryDelays(ctx context.Context, url string, download DownloadFunc, logger LogFunc, delays []time.Duration) ([]byte, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		data, err := download(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if propix.ErrorCode(err) != propix.EUNAVAILABLE {
			return nil, err
		}
		if attempt >= maxAttempts-1 {
			break
		}

		if logger != nil {
			logger("  retry %s (attempt %d): %v", url, attempt+2, propix.ErrorMessage(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
