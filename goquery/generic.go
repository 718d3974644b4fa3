package goquery

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propix/propix"
)

// Ensure GenericExtractor implements propix.SourceExtractor.
var _ propix.SourceExtractor = (*GenericExtractor)(nil)

// GenericExtractor discovers photos on any listing site from a URL template.
// The template may contain {slug}, {street}, {city}, {state}, and {zip}
// placeholders which are expanded per property.
type GenericExtractor struct {
	fetcher     propix.PageFetcher
	urlTemplate string
}

// NewGenericExtractor creates an extractor for the given listing URL
// template, e.g. "https://listings.example.com/homes/{slug}".
func NewGenericExtractor(fetcher propix.PageFetcher, urlTemplate string) (*GenericExtractor, error) {
	if fetcher == nil {
		return nil, propix.Errorf(propix.ECONFIG, "page fetcher required")
	}
	if urlTemplate == "" {
		return nil, propix.Errorf(propix.ECONFIG, "listing URL template required")
	}
	return &GenericExtractor{fetcher: fetcher, urlTemplate: urlTemplate}, nil
}

// Name returns the source identifier.
func (e *GenericExtractor) Name() string {
	return "generic"
}

// Discover fetches the listing page and harvests candidates from JSON-LD,
// OpenGraph tags, and gallery markup.
func (e *GenericExtractor) Discover(ctx context.Context, property *propix.Property) (*propix.Discovery, error) {
	return discoverPage(ctx, e.fetcher, e.Name(), expandTemplate(e.urlTemplate, property))
}

// expandTemplate substitutes property placeholders in a listing URL
// template. Address parts are path-escaped.
func expandTemplate(template string, p *propix.Property) string {
	r := strings.NewReplacer(
		"{slug}", addressSlug(p),
		"{street}", url.PathEscape(p.Street),
		"{city}", url.PathEscape(p.City),
		"{state}", url.PathEscape(p.State),
		"{zip}", url.PathEscape(p.Zip),
	)
	return r.Replace(template)
}

// discoverPage is the shared fetch-and-parse path for all portal
// extractors. Fetch errors pass through unchanged so challenge and
// availability codes reach the circuit breaker; unparseable HTML maps to
// EUNAVAILABLE. Structured data candidates come first since they tend to
// carry full-resolution URLs.
func discoverPage(ctx context.Context, fetcher propix.PageFetcher, source, pageURL string, gallerySelectors ...string) (*propix.Discovery, error) {
	html, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, propix.Errorf(propix.EINVALID, "invalid listing URL %q: %v", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, propix.Errorf(propix.EUNAVAILABLE, "cannot parse %s listing page: %v", source, err)
	}

	images, fields := jsonLDDiscovery(doc, base)

	seen := make(map[string]bool, len(images))
	for _, img := range images {
		seen[img.URL] = true
	}
	for _, img := range collectGallery(doc, base, gallerySelectors...) {
		if seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		images = append(images, img)
	}

	return &propix.Discovery{Images: images, Fields: fields}, nil
}
