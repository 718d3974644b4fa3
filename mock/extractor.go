// Package mock provides hand-written mock implementations of propix
// interfaces for testing.
package mock

import (
	"context"

	"github.com/propix/propix"
)

var _ propix.SourceExtractor = (*SourceExtractor)(nil)

// SourceExtractor is a mock implementation of propix.SourceExtractor.
type SourceExtractor struct {
	NameFn     func() string
	DiscoverFn func(ctx context.Context, property *propix.Property) (*propix.Discovery, error)
}

func (e *SourceExtractor) Name() string {
	return e.NameFn()
}

func (e *SourceExtractor) Discover(ctx context.Context, property *propix.Property) (*propix.Discovery, error) {
	return e.DiscoverFn(ctx, property)
}
