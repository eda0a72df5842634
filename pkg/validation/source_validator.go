package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/visualdiff/image-diff-go/internal/errors"
)

// SourceValidator checks that an image source reference is acceptable
// before any fetch or decode work begins. References are either remote
// URLs (http, https, azblob) or local filesystem paths.
type SourceValidator struct {
	allowedSchemes []string
	allowLocal     bool
}

// NewSourceValidator creates a validator with the default settings:
// http(s) and azblob URLs plus local paths.
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes: []string{"http", "https", "azblob"},
		allowLocal:     true,
	}
}

// NewRemoteOnlySourceValidator creates a validator that rejects local
// paths. The HTTP API uses it so callers cannot read the server filesystem.
func NewRemoteOnlySourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes: []string{"http", "https", "azblob"},
		allowLocal:     false,
	}
}

// ValidateSourceRef validates an image source reference.
func (v *SourceValidator) ValidateSourceRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return apperrors.NewValidationError("source reference cannot be empty", nil)
	}

	parsed, err := url.Parse(ref)
	if err != nil || parsed.Scheme == "" {
		// Not URL-shaped: treat as a local path.
		if !v.allowLocal {
			return apperrors.NewValidationError("local paths are not allowed here", nil)
		}
		return nil
	}

	// Single-letter schemes are Windows drive prefixes, not URLs.
	if len(parsed.Scheme) == 1 {
		if !v.allowLocal {
			return apperrors.NewValidationError("local paths are not allowed here", nil)
		}
		return nil
	}

	if !v.isSchemeAllowed(parsed.Scheme) {
		return apperrors.NewValidationError("source scheme not allowed: "+parsed.Scheme, nil)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("source URL must have a valid host", nil)
	}
	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *SourceValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}
