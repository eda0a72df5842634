package repository

import (
	"context"
	"image"
)

// SourceRepository resolves image source references and returns decoded
// images. A reference is routed to the right storage backend by scheme:
// http(s) to the HTTP fetcher, azblob to blob storage, anything else to
// the local filesystem.
type SourceRepository interface {
	// FetchImage resolves and decodes the image behind a source reference.
	FetchImage(ctx context.Context, ref string) (image.Image, error)

	// ValidateSourceRef validates a reference without fetching it.
	ValidateSourceRef(ref string) error
}
