package goquery

import (
	"context"
	"fmt"

	"github.com/propix/propix"
)

var _ propix.SourceExtractor = (*ZillowExtractor)(nil)

// ZillowExtractor discovers listing photos from Zillow address pages.
// Zillow renders its gallery client-side, so this extractor is normally
// paired with a browser-backed PageFetcher.
type ZillowExtractor struct {
	fetcher propix.PageFetcher
	baseURL string
}

// NewZillowExtractor creates a Zillow extractor. baseURL overrides the
// production host, for tests; empty means https://www.zillow.com.
func NewZillowExtractor(fetcher propix.PageFetcher, baseURL string) (*ZillowExtractor, error) {
	if fetcher == nil {
		return nil, propix.Errorf(propix.ECONFIG, "page fetcher required")
	}
	if baseURL == "" {
		baseURL = "https://www.zillow.com"
	}
	return &ZillowExtractor{fetcher: fetcher, baseURL: baseURL}, nil
}

// Name returns the source identifier.
func (e *ZillowExtractor) Name() string {
	return "zillow"
}

// Discover fetches the address lookup page and harvests the photo carousel.
func (e *ZillowExtractor) Discover(ctx context.Context, property *propix.Property) (*propix.Discovery, error) {
	pageURL := fmt.Sprintf("%s/homes/%s_rb/", e.baseURL, addressSlug(property))
	return discoverPage(ctx, e.fetcher, e.Name(), pageURL,
		`ul[class*="photo-carousel"] img`,
		`[data-testid="gallery"] img`,
		`[class*="media-stream"] img`,
	)
}
