package repository

import (
	"context"
	"image"
	"net/url"

	"github.com/visualdiff/image-diff-go/internal/storage"
	"github.com/visualdiff/image-diff-go/pkg/validation"
)

// schemeRepository implements SourceRepository by dispatching on the
// reference scheme. Backends are optional: an azblob reference without a
// configured blob fetcher is an error at fetch time, not at startup.
type schemeRepository struct {
	local     storage.ImageFetcher
	remote    storage.ImageFetcher
	blob      storage.ImageFetcher
	validator *validation.SourceValidator
}

// NewSourceRepository creates a scheme-dispatching repository. The blob
// fetcher may be nil when no Azure credentials are configured.
func NewSourceRepository(local, remote, blob storage.ImageFetcher, validator *validation.SourceValidator) SourceRepository {
	return &schemeRepository{
		local:     local,
		remote:    remote,
		blob:      blob,
		validator: validator,
	}
}

// FetchImage resolves the reference to a backend and decodes the image.
func (r *schemeRepository) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	switch refScheme(ref) {
	case "http", "https":
		return r.remote.FetchImage(ctx, ref)
	case "azblob":
		if r.blob == nil {
			return nil, ErrBlobStorageUnconfigured
		}
		return r.blob.FetchImage(ctx, ref)
	default:
		if r.local == nil {
			return nil, ErrUnsupportedScheme
		}
		return r.local.FetchImage(ctx, ref)
	}
}

// ValidateSourceRef validates a reference without fetching it.
func (r *schemeRepository) ValidateSourceRef(ref string) error {
	return r.validator.ValidateSourceRef(ref)
}

// refScheme extracts the reference scheme, empty for plain paths.
// Single-letter schemes are Windows drive prefixes, not URLs.
func refScheme(ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil || len(parsed.Scheme) <= 1 {
		return ""
	}
	return parsed.Scheme
}
