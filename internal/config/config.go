package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	SignalTimeout      time.Duration
	MaxRequestBodySize int64

	// Storage backend selection: "http" or "azure".
	StorageBackend   string
	AzureAccountName string
	AzureAccountKey  string

	// Default analysis tunables. Callers may override per request; these are
	// the values the service falls back to.
	PatchSize     int
	MaxDimension  int
	LowThreshold  float64
	HighThreshold float64
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		SignalTimeout:      parseDurationOrDefault("SIGNAL_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1*1024*1024), // 1MB, requests carry URLs not pixels
		StorageBackend:     getEnvOrDefault("STORAGE_BACKEND", "http"),
		AzureAccountName:   os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:    os.Getenv("AZURE_ACCOUNT_KEY"),
		PatchSize:          int(parseIntOrDefault("PATCH_SIZE", 32)),
		MaxDimension:       int(parseIntOrDefault("MAX_DIMENSION", 1024)),
		LowThreshold:       parseFloatOrDefault("LOW_THRESHOLD", 0.25),
		HighThreshold:      parseFloatOrDefault("HIGH_THRESHOLD", 0.6),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.SignalTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, signal=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.SignalTimeout)
	}
	if cfg.StorageBackend != "http" && cfg.StorageBackend != "azure" {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "azure" && (cfg.AzureAccountName == "" || cfg.AzureAccountKey == "") {
		return nil, fmt.Errorf("azure storage requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
	}
	if cfg.PatchSize < 8 {
		return nil, fmt.Errorf("PATCH_SIZE must be >= 8 (got %d)", cfg.PatchSize)
	}
	if cfg.LowThreshold >= cfg.HighThreshold {
		return nil, fmt.Errorf("LOW_THRESHOLD must be < HIGH_THRESHOLD (got %f >= %f)",
			cfg.LowThreshold, cfg.HighThreshold)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
