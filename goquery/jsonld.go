package goquery

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propix/propix"
)

// jsonLDDiscovery harvests schema.org structured data from every
// application/ld+json script on the page: image URLs from "image" and
// "photo" properties, plus opportunistic listing fields (price, beds,
// bathrooms, floor size). Malformed blocks are skipped; structured data is
// best effort by nature.
func jsonLDDiscovery(doc *goquery.Document, base *url.URL) ([]propix.CandidateImage, map[string]string) {
	seen := make(map[string]bool)
	var images []propix.CandidateImage
	fields := make(map[string]string)

	addImage := func(rawURL string) {
		resolved := resolveURL(base, rawURL)
		if resolved == "" || !isImageURL(resolved) || seen[resolved] {
			return
		}
		seen[resolved] = true
		images = append(images, propix.CandidateImage{URL: resolved})
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			return
		}
		walkJSONLD(payload, addImage, fields)
	})

	if len(fields) == 0 {
		fields = nil
	}
	return images, fields
}

// walkJSONLD recursively descends JSON-LD nodes. Arrays and @graph wrappers
// are unwrapped; image values may be a string, a list, or an ImageObject.
func walkJSONLD(node any, addImage func(string), fields map[string]string) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walkJSONLD(item, addImage, fields)
		}
	case map[string]any:
		for _, key := range []string{"image", "photo", "photos"} {
			collectImageValue(v[key], addImage)
		}
		if graph, ok := v["@graph"]; ok {
			walkJSONLD(graph, addImage, fields)
		}
		collectListingFields(v, fields)
	}
}

func collectImageValue(value any, addImage func(string)) {
	switch v := value.(type) {
	case string:
		addImage(v)
	case []any:
		for _, item := range v {
			collectImageValue(item, addImage)
		}
	case map[string]any:
		for _, key := range []string{"url", "contentUrl"} {
			if s, ok := v[key].(string); ok {
				addImage(s)
			}
		}
	}
}

// collectListingFields copies flat listing attributes when present. First
// occurrence wins so top-level nodes beat nested ones.
func collectListingFields(node map[string]any, fields map[string]string) {
	setField := func(name string, value any) {
		if _, exists := fields[name]; exists {
			return
		}
		switch v := value.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				fields[name] = s
			}
		case float64:
			fields[name] = formatNumber(v)
		}
	}

	setField("number_of_rooms", node["numberOfRooms"])
	setField("number_of_bedrooms", node["numberOfBedrooms"])
	setField("number_of_bathrooms", node["numberOfBathroomsTotal"])
	setField("year_built", node["yearBuilt"])

	if offers, ok := node["offers"].(map[string]any); ok {
		setField("price", offers["price"])
		setField("price_currency", offers["priceCurrency"])
	}
	if size, ok := node["floorSize"].(map[string]any); ok {
		setField("floor_size", size["value"])
		setField("floor_size_unit", size["unitCode"])
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
