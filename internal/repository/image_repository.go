package repository

import (
	"context"
	"errors"
	"image"

	"go-morph-detector/internal/storage"
	"go-morph-detector/pkg/validation"
)

// ErrInvalidImageURL indicates an image URL that failed validation.
var ErrInvalidImageURL = errors.New("invalid image URL")

// ImageRepository defines image data access for the analysis service.
type ImageRepository interface {
	// FetchImage retrieves a decoded image from a URL.
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL checks the URL before any fetch is attempted.
	ValidateImageURL(imageURL string) error
}

type imageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewImageRepository creates an image repository over the given fetcher.
func NewImageRepository(fetcher storage.ImageFetcher) ImageRepository {
	return &imageRepository{
		fetcher:   fetcher,
		validator: validation.NewURLValidator(),
	}
}

func (r *imageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

func (r *imageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}
