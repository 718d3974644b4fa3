package mock

import (
	"context"

	"github.com/propix/propix"
)

var _ propix.PropertyProvider = (*PropertyProvider)(nil)

// PropertyProvider is a mock implementation of propix.PropertyProvider.
type PropertyProvider struct {
	PropertiesFn func(ctx context.Context) ([]*propix.Property, error)
}

func (p *PropertyProvider) Properties(ctx context.Context) ([]*propix.Property, error) {
	return p.PropertiesFn(ctx)
}
