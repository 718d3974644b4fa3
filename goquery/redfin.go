package goquery

import (
	"context"
	"fmt"

	"github.com/propix/propix"
)

var _ propix.SourceExtractor = (*RedfinExtractor)(nil)

// RedfinExtractor discovers listing photos from Redfin address pages.
type RedfinExtractor struct {
	fetcher propix.PageFetcher
	baseURL string
}

// NewRedfinExtractor creates a Redfin extractor. baseURL overrides the
// production host, for tests; empty means https://www.redfin.com.
func NewRedfinExtractor(fetcher propix.PageFetcher, baseURL string) (*RedfinExtractor, error) {
	if fetcher == nil {
		return nil, propix.Errorf(propix.ECONFIG, "page fetcher required")
	}
	if baseURL == "" {
		baseURL = "https://www.redfin.com"
	}
	return &RedfinExtractor{fetcher: fetcher, baseURL: baseURL}, nil
}

// Name returns the source identifier.
func (e *RedfinExtractor) Name() string {
	return "redfin"
}

// Discover fetches the address search page and harvests the photo gallery.
func (e *RedfinExtractor) Discover(ctx context.Context, property *propix.Property) (*propix.Discovery, error) {
	pageURL := fmt.Sprintf("%s/stingray/do/location-search?location=%s", e.baseURL, addressSlug(property))
	return discoverPage(ctx, e.fetcher, e.Name(), pageURL,
		`[class*="InlinePhotoPreview"] img`,
		`[class*="PhotosView"] img`,
		`[data-rf-test-id*="photo"] img`,
	)
}
