package mock

import (
	"context"

	"github.com/propix/propix"
)

var _ propix.PageFetcher = (*PageFetcher)(nil)

// PageFetcher is a mock implementation of propix.PageFetcher.
type PageFetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *PageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *PageFetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ propix.ImageDownloader = (*ImageDownloader)(nil)

// ImageDownloader is a mock implementation of propix.ImageDownloader.
type ImageDownloader struct {
	DownloadFn func(ctx context.Context, url string) ([]byte, error)
}

func (d *ImageDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	return d.DownloadFn(ctx, url)
}
