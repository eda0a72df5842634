package repository

import "errors"

var (
	// ErrUnsupportedScheme indicates a reference scheme with no backend
	ErrUnsupportedScheme = errors.New("unsupported source reference scheme")

	// ErrBlobStorageUnconfigured indicates an azblob reference without credentials
	ErrBlobStorageUnconfigured = errors.New("blob storage credentials not configured")
)
