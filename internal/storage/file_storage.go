package storage

import (
	"context"
	"image"

	"github.com/visualdiff/image-diff-go/internal/raster"
)

// ImageFetcher retrieves and decodes an image identified by a source
// reference (URL or local path, depending on the implementation).
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (image.Image, error)
}

// LocalImageFetcher implements ImageFetcher for filesystem paths.
// This is the fetcher behind the one-shot CLI.
type LocalImageFetcher struct{}

// NewLocalImageFetcher creates a filesystem-backed fetcher.
func NewLocalImageFetcher() ImageFetcher {
	return &LocalImageFetcher{}
}

// FetchImage decodes the image at the given path. The context is accepted
// for interface symmetry; local reads are not cancellable mid-decode.
func (l *LocalImageFetcher) FetchImage(_ context.Context, path string) (image.Image, error) {
	return raster.Load(path)
}
