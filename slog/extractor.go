// Package slog provides logging decorators for source extractors and image
// downloaders.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/propix/propix"
)

// Ensure LoggingExtractor implements propix.SourceExtractor.
var _ propix.SourceExtractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps a SourceExtractor with per-discovery logging.
type LoggingExtractor struct {
	next   propix.SourceExtractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next propix.SourceExtractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Name delegates to the wrapped extractor.
func (e *LoggingExtractor) Name() string {
	return e.next.Name()
}

// Discover logs the discovery outcome and delegates to the wrapped extractor.
func (e *LoggingExtractor) Discover(ctx context.Context, property *propix.Property) (d *propix.Discovery, err error) {
	defer func(begin time.Time) {
		candidates := 0
		if d != nil {
			candidates = len(d.Images)
		}
		e.logger.Info("discover",
			"source", e.next.Name(),
			"property", property.Key,
			"candidates", candidates,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Discover(ctx, property)
}
