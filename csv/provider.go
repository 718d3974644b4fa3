// Package csv implements a PropertyProvider reading target properties from
// a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/propix/propix"
)

// Ensure PropertyProvider implements propix.PropertyProvider.
var _ propix.PropertyProvider = (*PropertyProvider)(nil)

// PropertyProvider reads properties from a CSV file with a header row.
// Recognized columns are key, street, city, state, and zip; a missing key
// column or empty key cell derives the key from the address.
type PropertyProvider struct {
	path string
}

// NewPropertyProvider creates a provider for the given CSV path.
func NewPropertyProvider(path string) *PropertyProvider {
	return &PropertyProvider{path: path}
}

// Properties reads and validates all properties in the file.
func (p *PropertyProvider) Properties(ctx context.Context) ([]*propix.Property, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, propix.Errorf(propix.ECONFIG, "cannot open property file %q: %v", p.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, propix.Errorf(propix.ECONFIG, "property file %q is empty", p.path)
	}
	if err != nil {
		return nil, propix.Errorf(propix.ECONFIG, "cannot parse property file %q: %v", p.path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["street"]; !ok {
		return nil, propix.Errorf(propix.ECONFIG, "property file %q has no street column", p.path)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var properties []*propix.Property
	seen := make(map[string]bool)
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, propix.Errorf(propix.ECONFIG, "property file %q line %d: %v", p.path, line, err)
		}

		prop := &propix.Property{
			Key:    field(row, "key"),
			Street: field(row, "street"),
			City:   field(row, "city"),
			State:  field(row, "state"),
			Zip:    field(row, "zip"),
		}
		if prop.Key == "" {
			prop.Key = propix.PropertyKey(prop)
		}
		if err := prop.Validate(); err != nil {
			return nil, propix.Errorf(propix.ECONFIG, "property file %q line %d: %s", p.path, line, propix.ErrorMessage(err))
		}
		if seen[prop.Key] {
			return nil, propix.Errorf(propix.ECONFIG, "property file %q line %d: duplicate key %q", p.path, line, prop.Key)
		}
		seen[prop.Key] = true
		properties = append(properties, prop)
	}

	return properties, nil
}
