package propix

import (
	"context"
	"strings"
)

// Property identifies a real-estate listing under extraction. The Key is
// the normalized address and correlates every artifact produced for the
// property: stored images, manifest entries, run state. It never changes
// once assigned.
type Property struct {
	Key    string `json:"key"`
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Address returns the display form of the property address.
func (p *Property) Address() string {
	s := p.Street
	if p.City != "" {
		s += ", " + p.City
	}
	if p.State != "" {
		s += ", " + p.State
	}
	if p.Zip != "" {
		s += " " + p.Zip
	}
	return s
}

// Validate returns an error if the property contains invalid fields.
func (p *Property) Validate() error {
	if p.Key == "" {
		return Errorf(EINVALID, "property key required")
	}
	if p.Street == "" {
		return Errorf(EINVALID, "property street required")
	}
	return nil
}

// PropertyKey derives a stable key from the property address: lowercase
// with runs of non-alphanumerics collapsed to single hyphens. The same
// form appears in portal listing URLs.
func PropertyKey(p *Property) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(p.Address()) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// PropertyProvider yields the properties targeted by an extraction run.
// The separate layer deciding when extraction happens sits behind this
// interface; the orchestrator only consumes identities.
type PropertyProvider interface {
	// Properties returns all target properties.
	Properties(ctx context.Context) ([]*Property, error)
}
