// Package goquery implements portal listing extractors using CSS selectors
// and embedded JSON-LD. Each extractor builds a listing URL for a property,
// fetches the rendered page through a propix.PageFetcher, and harvests
// candidate photo URLs from gallery markup, OpenGraph tags, and schema.org
// structured data.
package goquery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propix/propix"
)

// collectGallery extracts candidate photo URLs from common listing markup:
// OpenGraph image tags, link rel="image_src", picture/source srcset, and
// img elements inside gallery-looking containers. Candidates keep document
// order and are deduplicated by resolved URL.
func collectGallery(doc *goquery.Document, base *url.URL, gallerySelectors ...string) []propix.CandidateImage {
	seen := make(map[string]bool)
	var out []propix.CandidateImage

	add := func(rawURL, caption string, width, height int) {
		resolved := resolveURL(base, rawURL)
		if resolved == "" || !isImageURL(resolved) || seen[resolved] {
			return
		}
		seen[resolved] = true
		out = append(out, propix.CandidateImage{
			URL:     resolved,
			Caption: strings.TrimSpace(caption),
			Width:   width,
			Height:  height,
		})
	}

	doc.Find(`meta[property="og:image"], meta[name="og:image"]`).Each(func(_ int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok {
			add(content, "", 0, 0)
		}
	})

	doc.Find(`link[rel="image_src"]`).Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			add(href, "", 0, 0)
		}
	})

	selectors := gallerySelectors
	if len(selectors) == 0 {
		selectors = []string{
			`[class*="gallery"] img`,
			`[class*="carousel"] img`,
			`[class*="photo"] img`,
			`[id*="gallery"] img`,
			`main img`,
		}
	}
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			caption, _ := sel.Attr("alt")
			width := intAttr(sel, "width")
			height := intAttr(sel, "height")

			if srcset, ok := sel.Attr("srcset"); ok {
				if u, w := largestFromSrcset(srcset); u != "" {
					if w > 0 {
						width = w
					}
					add(u, caption, width, height)
					return
				}
			}
			for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
				if src, ok := sel.Attr(attr); ok && src != "" {
					add(src, caption, width, height)
					return
				}
			}
		})
	}

	doc.Find("picture source[srcset]").Each(func(_ int, sel *goquery.Selection) {
		if srcset, ok := sel.Attr("srcset"); ok {
			if u, w := largestFromSrcset(srcset); u != "" {
				add(u, "", w, 0)
			}
		}
	})

	return out
}

// largestFromSrcset picks the widest candidate from a srcset attribute.
// Returns the URL and its declared width (0 when no width descriptor).
func largestFromSrcset(srcset string) (string, int) {
	var bestURL string
	bestWidth := -1
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		width := 0
		if len(fields) > 1 {
			desc := fields[1]
			if strings.HasSuffix(desc, "w") {
				if n, err := strconv.Atoi(strings.TrimSuffix(desc, "w")); err == nil {
					width = n
				}
			}
		}
		if width > bestWidth {
			bestWidth = width
			bestURL = fields[0]
		}
	}
	if bestWidth <= 0 {
		return bestURL, 0
	}
	return bestURL, bestWidth
}

// isImageURL filters out data URIs, SVGs, and obvious non-photo assets
// (tracking pixels, sprites, logos).
func isImageURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if strings.HasPrefix(lower, "data:") {
		return false
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	path := lower
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if strings.HasSuffix(path, ".svg") || strings.HasSuffix(path, ".gif") {
		return false
	}
	for _, marker := range []string{"sprite", "logo", "icon", "pixel", "spacer", "avatar"} {
		if strings.Contains(path, marker) {
			return false
		}
	}
	return true
}

// resolveURL resolves a possibly relative URL against the page URL.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func intAttr(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// addressSlug is the hyphenated address form portals use in listing URLs.
// It matches the derived property key.
func addressSlug(p *propix.Property) string {
	return propix.PropertyKey(p)
}
