// Package rod implements a browser-backed page fetcher for listing portals
// that render their photo galleries client-side or sit behind
// anti-automation vendors. Pages are created through go-rod/stealth to
// suppress common headless-Chrome fingerprints, and the underlying browser
// is recycled on a page budget.
package rod

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/stealth"

	"github.com/propix/propix"
)

// Ensure Fetcher implements propix.PageFetcher at compile time.
var _ propix.PageFetcher = (*Fetcher)(nil)

const (
	// DefaultNavTimeout bounds navigation plus load wait per page.
	DefaultNavTimeout = 30 * time.Second

	// DefaultSettleDelay is how long to wait after load for lazy-loaded
	// gallery images to populate their src attributes.
	DefaultSettleDelay = 2 * time.Second

	// DefaultMaxSessions bounds concurrently open pages. Each page is a
	// Chrome renderer process; too many at once starves the host.
	DefaultMaxSessions = 4
)

// Fetcher retrieves rendered HTML using stealth Chrome automation. A fetch
// that lands on an anti-automation interstitial returns ECHALLENGE so the
// orchestrator can fail over to the next source.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager     *BrowserManager
	sessions    chan struct{}
	navTimeout  time.Duration
	settleDelay time.Duration
	maxSessions int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithNavTimeout sets the per-page navigation timeout.
func WithNavTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.navTimeout = d
	}
}

// WithSettleDelay sets the post-load wait for lazy gallery hydration.
func WithSettleDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.settleDelay = d
	}
}

// WithMaxSessions bounds the number of concurrently open pages.
func WithMaxSessions(n int) FetcherOption {
	return func(f *Fetcher) {
		f.maxSessions = n
	}
}

// WithManager sets a pre-built browser manager, e.g. one with a custom page
// budget.
func WithManager(m *BrowserManager) FetcherOption {
	return func(f *Fetcher) {
		f.manager = m
	}
}

// NewFetcher creates a Fetcher, launching a headless Chrome browser unless
// a manager is supplied. Close must be called when the Fetcher is no longer
// needed.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	f := &Fetcher{
		navTimeout:  DefaultNavTimeout,
		settleDelay: DefaultSettleDelay,
		maxSessions: DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxSessions < 1 {
		f.maxSessions = 1
	}
	f.sessions = make(chan struct{}, f.maxSessions)
	if f.manager == nil {
		m, err := NewBrowserManager()
		if err != nil {
			return nil, propix.Errorf(propix.EUNAVAILABLE, "browser unavailable: %v", err)
		}
		f.manager = m
	}
	return f, nil
}

// Fetch navigates to the URL in a fresh stealth page and returns the
// rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	select {
	case f.sessions <- struct{}{}:
		defer func() { <-f.sessions }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	page, err := stealth.Page(f.manager.Browser())
	if err != nil {
		return "", propix.Errorf(propix.EUNAVAILABLE, "creating page: %v", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, f.navTimeout)
	defer cancel()
	page = page.Context(navCtx)

	if err := page.Navigate(url); err != nil {
		return "", propix.Errorf(propix.EUNAVAILABLE, "navigating to %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", propix.Errorf(propix.EUNAVAILABLE, "loading %s: %v", url, err)
	}

	if f.settleDelay > 0 {
		select {
		case <-time.After(f.settleDelay):
		case <-navCtx.Done():
			return "", navCtx.Err()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", propix.Errorf(propix.EUNAVAILABLE, "reading %s: %v", url, err)
	}
	f.manager.PageDone()

	if IsChallengePage(html) {
		return "", propix.Errorf(propix.ECHALLENGE, "anti-automation challenge at %s", url)
	}
	return html, nil
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// challengeMarkers are phrases and element hooks used by the common
// anti-automation vendors (Cloudflare, PerimeterX, DataDome, generic
// captcha interstitials).
var challengeMarkers = []string{
	"px-captcha",
	"g-recaptcha",
	"h-captcha",
	"cf-challenge",
	"just a moment...",
	"checking your browser",
	"pardon our interruption",
	"are you a human",
	"verify you are a human",
	"datadome",
	"access to this page has been denied",
}

// IsChallengePage reports whether the rendered HTML is an anti-automation
// interstitial rather than listing content. Only the head of the document
// is scanned; challenge pages are small and markers appear early.
func IsChallengePage(html string) bool {
	const scanLimit = 64 * 1024
	if len(html) > scanLimit {
		html = html[:scanLimit]
	}
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
