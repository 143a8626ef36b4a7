package factory

import (
	"fmt"

	"go-morph-detector/internal/config"
	"go-morph-detector/internal/storage"
)

// StorageType selects the image fetcher backend.
type StorageType string

const (
	// HTTPStorage fetches images over plain HTTP(S).
	HTTPStorage StorageType = "http"
	// AzureStorage fetches images from Azure blob storage.
	AzureStorage StorageType = "azure"
)

// NewImageFetcher creates the configured fetcher backend.
func NewImageFetcher(cfg *config.Config) (storage.ImageFetcher, error) {
	switch StorageType(cfg.StorageBackend) {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(), nil
	case AzureStorage:
		return storage.NewAzureFetcher(cfg.AzureAccountName, cfg.AzureAccountKey)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
