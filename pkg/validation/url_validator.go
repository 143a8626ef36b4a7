package validation

import (
	"net/url"
	"strings"

	apperrors "go-morph-detector/internal/errors"
)

// URLValidator gates which image URLs are accepted for analysis.
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
	maxLength      int
}

// NewURLValidator creates a validator accepting http(s) URLs from any host.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		maxLength:      2048,
	}
}

// NewURLValidatorWithHosts restricts accepted URLs to the given hosts.
func NewURLValidatorWithHosts(hosts []string) *URLValidator {
	v := NewURLValidator()
	v.allowedHosts = hosts
	return v
}

// ValidateImageURL checks that the URL is usable for image fetching.
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	trimmed := strings.TrimSpace(imageURL)
	if trimmed == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}
	if len(trimmed) > v.maxLength {
		return apperrors.NewValidationError("URL exceeds maximum length", nil)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if !contains(v.allowedSchemes, parsed.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if len(v.allowedHosts) > 0 && !contains(v.allowedHosts, parsed.Host) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
