// Package http provides plain-HTTP implementations of propix.PageFetcher
// and propix.ImageDownloader, for portals and photo CDNs that serve content
// without JavaScript rendering or anti-automation interstitials.
package http

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/propix/propix"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// browserUserAgent is sent on every request. Listing portals and photo
// CDNs reject the Go default agent outright.
const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Ensure Fetcher implements propix.PageFetcher at compile time.
var _ propix.PageFetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML from URLs using plain HTTP requests. Unlike
// rod.Fetcher it does not execute JavaScript, so it only suits portals
// that render gallery markup server-side.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL. Server errors and
// transport failures map to EUNAVAILABLE; rate-limit and bot-block status
// codes map to ECHALLENGE.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", propix.Errorf(propix.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", propix.Errorf(propix.EUNAVAILABLE, "fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return "", propix.Errorf(propix.ECHALLENGE, "HTTP %d for %s", resp.StatusCode, url)
	default:
		return "", propix.Errorf(propix.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", propix.Errorf(propix.EUNAVAILABLE, "reading %s: %v", url, err)
	}

	return string(body), nil
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// Ensure Downloader implements propix.ImageDownloader at compile time.
var _ propix.ImageDownloader = (*Downloader)(nil)

// DefaultMaxDownloadBytes caps a single image download. Listing photos run
// single-digit megabytes at most; anything larger is a misbehaving URL.
const DefaultMaxDownloadBytes = 20 << 20

// Downloader retrieves raw image bytes over HTTP.
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloadTimeout sets the per-download timeout.
func WithDownloadTimeout(d time.Duration) DownloaderOption {
	return func(dl *Downloader) {
		dl.client.Timeout = d
	}
}

// WithMaxDownloadBytes caps the response size read per download.
func WithMaxDownloadBytes(n int64) DownloaderOption {
	return func(dl *Downloader) {
		dl.maxBytes = n
	}
}

// NewDownloader creates a new HTTP image downloader.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	dl := &Downloader{
		client:   &http.Client{Timeout: DefaultFetchTimeout},
		maxBytes: DefaultMaxDownloadBytes,
	}
	for _, opt := range opts {
		opt(dl)
	}
	return dl
}

// Download fetches the image bytes at the URL. Transport failures and 5xx
// responses are EUNAVAILABLE and worth retrying; 4xx responses and
// non-image content types are EINVALID and are not.
func (dl *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, propix.Errorf(propix.EINVALID, "invalid image URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := dl.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, propix.Errorf(propix.EUNAVAILABLE, "downloading %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, propix.Errorf(propix.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	default:
		return nil, propix.Errorf(propix.EINVALID, "HTTP %d for %s", resp.StatusCode, url)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !isImageContentType(ct) {
		return nil, propix.Errorf(propix.EINVALID, "non-image content type %q for %s", ct, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, dl.maxBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, propix.Errorf(propix.EUNAVAILABLE, "reading %s: %v", url, err)
	}
	if int64(len(body)) > dl.maxBytes {
		return nil, propix.Errorf(propix.EINVALID, "image at %s exceeds %d byte cap", url, dl.maxBytes)
	}

	return body, nil
}

func isImageContentType(ct string) bool {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(strings.ToLower(ct))
	// Some CDNs serve photos as application/octet-stream; the decoder
	// validates those downstream.
	return strings.HasPrefix(ct, "image/") || ct == "application/octet-stream"
}
