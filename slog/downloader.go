package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/propix/propix"
)

// Ensure LoggingDownloader implements propix.ImageDownloader.
var _ propix.ImageDownloader = (*LoggingDownloader)(nil)

// LoggingDownloader wraps an ImageDownloader with debug logging. Downloads
// are high volume, so this logs at debug rather than info.
type LoggingDownloader struct {
	next   propix.ImageDownloader
	logger *slog.Logger
}

// NewLoggingDownloader creates a new LoggingDownloader.
func NewLoggingDownloader(next propix.ImageDownloader, logger *slog.Logger) *LoggingDownloader {
	return &LoggingDownloader{next: next, logger: logger}
}

// Download logs the download outcome and delegates to the wrapped downloader.
func (d *LoggingDownloader) Download(ctx context.Context, url string) (data []byte, err error) {
	defer func(begin time.Time) {
		d.logger.Debug("download",
			"url", url,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Download(ctx, url)
}
