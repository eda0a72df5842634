package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/visualdiff/image-diff-go/internal/raster"
)

// AzureBlobFetcher implements ImageFetcher for azblob:// references of the
// form azblob://<container>/<blob path>. Design asset pipelines that stage
// exports in blob storage hand over references in this shape.
type AzureBlobFetcher struct {
	client *azblob.Client
}

// NewAzureBlobFetcher creates a blob-backed fetcher using shared key
// credentials for the given storage account.
func NewAzureBlobFetcher(accountName, accountKey string) (ImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &AzureBlobFetcher{client: client}, nil
}

// FetchImage downloads and decodes the blob named by an azblob reference.
func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobRef string) (image.Image, error) {
	container, blobName, err := parseBlobRef(blobRef)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	return raster.Decode(retryReader)
}

// parseBlobRef splits azblob://<container>/<blob path> into its parts.
func parseBlobRef(blobRef string) (container, blobName string, err error) {
	parsed, err := url.Parse(blobRef)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob reference: %w", err)
	}
	if parsed.Scheme != "azblob" {
		return "", "", fmt.Errorf("invalid blob reference scheme: %q", parsed.Scheme)
	}

	container = parsed.Host
	blobName = strings.TrimPrefix(parsed.Path, "/")
	if container == "" || blobName == "" {
		return "", "", fmt.Errorf("blob reference must be azblob://<container>/<blob>")
	}
	return container, blobName, nil
}
