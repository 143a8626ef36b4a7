package factory

import (
	"testing"

	"go-morph-detector/internal/config"
)

func TestNewImageFetcher(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		expectError bool
	}{
		{
			name: "http backend",
			cfg:  &config.Config{StorageBackend: "http"},
		},
		{
			name: "azure backend",
			cfg: &config.Config{
				StorageBackend:   "azure",
				AzureAccountName: "account",
				AzureAccountKey:  "dGVzdGtleQ==",
			},
		},
		{
			name:        "azure backend with bad key",
			cfg:         &config.Config{StorageBackend: "azure", AzureAccountName: "a", AzureAccountKey: "!!"},
			expectError: true,
		},
		{
			name:        "unknown backend",
			cfg:         &config.Config{StorageBackend: "s3"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, err := NewImageFetcher(tt.cfg)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if fetcher == nil {
				t.Error("Expected non-nil fetcher")
			}
		})
	}
}
