package propix

import "context"

// CandidateImage is a photo URL discovered on a listing page, before
// download and validation.
type CandidateImage struct {
	URL     string
	Caption string
	// Width and Height are advisory hints from page markup; the decoded
	// dimensions recorded in the manifest are authoritative.
	Width  int
	Height int
}

// Discovery is the result of one source extraction attempt: candidate
// image URLs plus any structured listing fields the page gave up for free.
type Discovery struct {
	Images []CandidateImage
	// Fields holds opportunistic structured data (price, beds, sqft...)
	// keyed by field name. Best effort, may be empty.
	Fields map[string]string
}

// SourceExtractor discovers candidate listing photos for a property from
// one external source. Implementations are site-specific and selected via
// a priority-ordered registry, never via runtime type inspection.
//
// A returned ECHALLENGE error means the source presented an anti-automation
// challenge that could not be resolved; EUNAVAILABLE means the source was
// unreachable or its page structure could not be parsed. Both count against
// the source's circuit breaker.
type SourceExtractor interface {
	// Name returns the source identifier (e.g., "zillow", "generic").
	Name() string

	// Discover returns candidate image URLs for the property. A successful
	// discovery may legitimately contain zero candidates.
	Discover(ctx context.Context, property *Property) (*Discovery, error)
}

// RegisteredSource pairs an extractor with its configured priority.
// Higher priority sources are attempted first.
type RegisteredSource struct {
	Name      string
	Priority  int
	Extractor SourceExtractor
}

// ExtractorRegistry manages source extractors in priority order.
type ExtractorRegistry interface {
	// Register adds an extractor under the given priority.
	// Re-registering a name replaces the previous entry.
	Register(name string, priority int, ex SourceExtractor)

	// Get returns the extractor for a source name.
	Get(name string) (SourceExtractor, bool)

	// ByPriority returns all sources ordered highest priority first.
	// Ties are broken by name for determinism.
	ByPriority() []RegisteredSource
}

// PageFetcher retrieves rendered HTML from URLs. Implementations may use
// browser automation to handle JavaScript-rendered content and
// anti-automation mitigation.
type PageFetcher interface {
	// Fetch navigates to the URL and returns the rendered HTML.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases fetcher resources.
	Close() error
}

// ImageDownloader retrieves raw image bytes from a URL.
type ImageDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}
