package morph

import (
	"fmt"
	"time"

	apperrors "go-morph-detector/internal/errors"
	"go-morph-detector/pkg/models"
)

// AnalysisConfig provides the per-request configuration for the detection
// pipeline. The engine never mutates it; a fixed config and a fixed image
// reproduce the same report.
type AnalysisConfig struct {
	// Geometry
	PatchSize    int
	MaxDimension int

	// Per-signal weight map. Weights are non-negative; the aggregator
	// renormalizes over the succeeding signals so they sum to 1.
	Weights map[string]float64

	// Two-threshold decision policy, low < high.
	LowThreshold  float64
	HighThreshold float64

	// Disabled marks signals excluded from this request.
	Disabled map[string]bool

	// Evidence reporting
	TopKEvidence int

	// Concurrency
	SignalTimeout time.Duration

	// Extractor tunables
	NoiseWindow            int     // box filter side for residual extraction, odd
	DeviationThreshold     float64 // robust z-score above which a patch is flagged
	SaturationGain         float64 // gain of the saturating score curve
	EdgeMagnitudeThreshold float64 // gradient magnitude counting as an edge pixel
	CompressionBlockSize   int     // lossy-compression block grid alignment
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		PatchSize:    32,
		MaxDimension: 1024,
		Weights: map[string]float64{
			models.SignalCompression: 0.20,
			models.SignalNoise:       0.20,
			models.SignalEdges:       0.15,
			models.SignalLighting:    0.15,
			models.SignalColor:       0.15,
			models.SignalTexture:     0.15,
		},
		LowThreshold:           0.25,
		HighThreshold:          0.60,
		TopKEvidence:           10,
		SignalTimeout:          10 * time.Second,
		NoiseWindow:            5,
		DeviationThreshold:     3.0,
		SaturationGain:         2.0,
		EdgeMagnitudeThreshold: 60,
		CompressionBlockSize:   8,
	}
}

// WithPatchSize sets the analysis patch side length.
func (c AnalysisConfig) WithPatchSize(size int) AnalysisConfig {
	c.PatchSize = size
	return c
}

// WithThresholds sets the decision policy thresholds.
func (c AnalysisConfig) WithThresholds(low, high float64) AnalysisConfig {
	c.LowThreshold = low
	c.HighThreshold = high
	return c
}

// WithWeights replaces the per-signal weight map.
func (c AnalysisConfig) WithWeights(weights map[string]float64) AnalysisConfig {
	m := make(map[string]float64, len(weights))
	for k, v := range weights {
		m[k] = v
	}
	c.Weights = m
	return c
}

// WithoutSignal disables one signal for this request.
func (c AnalysisConfig) WithoutSignal(name string) AnalysisConfig {
	m := make(map[string]bool, len(c.Disabled)+1)
	for k, v := range c.Disabled {
		m[k] = v
	}
	m[name] = true
	c.Disabled = m
	return c
}

// WithOnlySignal disables every signal except the named one.
func (c AnalysisConfig) WithOnlySignal(name string) AnalysisConfig {
	m := make(map[string]bool, len(models.AllSignals()))
	for _, s := range models.AllSignals() {
		if s != name {
			m[s] = true
		}
	}
	c.Disabled = m
	return c
}

// WithSignalTimeout bounds each extractor invocation.
func (c AnalysisConfig) WithSignalTimeout(d time.Duration) AnalysisConfig {
	c.SignalTimeout = d
	return c
}

// WithMaxDimension caps the analysis resolution; larger inputs are downscaled.
func (c AnalysisConfig) WithMaxDimension(dim int) AnalysisConfig {
	c.MaxDimension = dim
	return c
}

// SignalEnabled reports whether the named signal runs for this request.
func (c AnalysisConfig) SignalEnabled(name string) bool {
	return !c.Disabled[name]
}

// EnabledCount returns how many of the known signals are enabled.
func (c AnalysisConfig) EnabledCount() int {
	n := 0
	for _, s := range models.AllSignals() {
		if c.SignalEnabled(s) {
			n++
		}
	}
	return n
}

// Validate rejects malformed configuration before any analysis begins.
func (c AnalysisConfig) Validate() error {
	if c.PatchSize < 8 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("patch size must be >= 8 (got %d)", c.PatchSize), nil)
	}
	if c.LowThreshold >= c.HighThreshold {
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("low threshold %.3f must be < high threshold %.3f", c.LowThreshold, c.HighThreshold), nil)
	}
	if c.LowThreshold < 0 || c.HighThreshold > 1 {
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("thresholds must lie in [0,1] (got %.3f, %.3f)", c.LowThreshold, c.HighThreshold), nil)
	}
	if c.TopKEvidence < 0 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("evidence top-k must be >= 0 (got %d)", c.TopKEvidence), nil)
	}
	if c.SignalTimeout <= 0 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("signal timeout must be > 0 (got %s)", c.SignalTimeout), nil)
	}
	if c.NoiseWindow < 3 || c.NoiseWindow%2 == 0 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("noise window must be odd and >= 3 (got %d)", c.NoiseWindow), nil)
	}
	if c.DeviationThreshold <= 0 || c.SaturationGain <= 0 {
		return apperrors.NewInvalidConfigError("deviation threshold and saturation gain must be > 0", nil)
	}
	if c.CompressionBlockSize < 2 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("compression block size must be >= 2 (got %d)", c.CompressionBlockSize), nil)
	}
	if c.EnabledCount() == 0 {
		return apperrors.NewInvalidConfigError("all signals are disabled", nil)
	}
	totalWeight := 0.0
	for _, name := range models.AllSignals() {
		if !c.SignalEnabled(name) {
			continue
		}
		w, ok := c.Weights[name]
		if !ok {
			return apperrors.NewInvalidConfigError(fmt.Sprintf("missing weight for signal %q", name), nil)
		}
		if w < 0 {
			return apperrors.NewInvalidConfigError(fmt.Sprintf("weight for signal %q must be >= 0 (got %f)", name, w), nil)
		}
		totalWeight += w
	}
	if totalWeight <= 0 {
		return apperrors.NewInvalidConfigError("enabled signal weights sum to zero", nil)
	}
	return nil
}
