package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// azureFetcher implements ImageFetcher over Azure blob storage. Blob URLs
// take the form https://<account>.blob.core.windows.net/<container>/<blob>.
type azureFetcher struct {
	client *azblob.Client
}

// NewAzureFetcher creates a blob-backed image fetcher with shared-key auth.
func NewAzureFetcher(accountName, accountKey string) (ImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}
	return &azureFetcher{client: client}, nil
}

func (s *azureFetcher) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	container, blob, err := splitBlobPath(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("blob download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob image: %w", err)
	}
	return img, nil
}

func splitBlobPath(blobURL string) (container, blob string, err error) {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	parts := strings.SplitN(strings.TrimPrefix(parsed.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("blob URL must contain container and blob path: %s", blobURL)
	}
	return parts[0], parts[1], nil
}
