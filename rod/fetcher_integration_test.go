//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix"
	"github.com/propix/propix/rod"
)

func TestFetcher_Integration_RenderedGallery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Gallery rendered client-side, the way listing portals do it.
		_, _ = w.Write([]byte(`<html><body><div id="gallery"></div>
			<script>
				document.getElementById("gallery").innerHTML =
					'<img src="/photos/1.jpg"><img src="/photos/2.jpg">';
			</script>
		</body></html>`))
	}))
	defer srv.Close()

	fetcher, err := rod.NewFetcher(rod.WithSettleDelay(200 * time.Millisecond))
	require.NoError(t, err)
	defer fetcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	html, err := fetcher.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "/photos/1.jpg", "client-rendered markup present in fetched HTML")
}

func TestFetcher_Integration_ChallengeDetected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Just a moment...</title></head><body></body></html>`))
	}))
	defer srv.Close()

	fetcher, err := rod.NewFetcher(rod.WithSettleDelay(0))
	require.NoError(t, err)
	defer fetcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = fetcher.Fetch(ctx, srv.URL)
	assert.Equal(t, propix.ECHALLENGE, propix.ErrorCode(err))
}

func TestFetcher_Integration_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {} // never respond
	}))
	defer srv.Close()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)
	defer fetcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = fetcher.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
