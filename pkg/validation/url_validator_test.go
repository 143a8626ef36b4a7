package validation

import (
	"strings"
	"testing"

	apperrors "go-morph-detector/internal/errors"
)

func TestURLValidator_ValidateImageURL(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{"valid https URL", "https://example.com/image.jpg", false},
		{"valid http URL", "http://example.com/image.png", false},
		{"surrounding whitespace", "  https://example.com/image.jpg  ", false},
		{"empty URL", "", true},
		{"whitespace only", "   ", true},
		{"ftp scheme", "ftp://example.com/image.jpg", true},
		{"file scheme", "file:///etc/passwd", true},
		{"missing host", "https:///image.jpg", true},
		{"no scheme", "example.com/image.jpg", true},
		{"over maximum length", "https://example.com/" + strings.Repeat("a", 2100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateImageURL(tt.url)
			if tt.expectError && err == nil {
				t.Errorf("Expected error for %q", tt.url)
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error for %q, got %v", tt.url, err)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestURLValidator_HostAllowlist(t *testing.T) {
	validator := NewURLValidatorWithHosts([]string{"images.example.com"})

	if err := validator.ValidateImageURL("https://images.example.com/a.jpg"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateImageURL("https://evil.example.com/a.jpg"); err == nil {
		t.Error("Expected disallowed host to be rejected")
	}
}
