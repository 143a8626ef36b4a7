package morph

import (
	"math"

	"go-morph-detector/pkg/models"
)

// Decision is the outcome of the two-threshold policy.
type Decision struct {
	Verdict    models.Verdict
	Confidence float64
}

// Decide maps the composite score to a verdict with a confidence value.
// Confidence is the distance from the composite to the nearer threshold,
// normalized per band: 1.0 at the extremes 0 and 1, 0.0 exactly at a
// threshold boundary. The policy holds no state across calls.
func Decide(composite float64, cfg AnalysisConfig) Decision {
	low, high := cfg.LowThreshold, cfg.HighThreshold
	switch {
	case composite < low:
		return Decision{
			Verdict:    models.VerdictAuthentic,
			Confidence: clamp01((low - composite) / low),
		}
	case composite > high:
		return Decision{
			Verdict:    models.VerdictMorphed,
			Confidence: clamp01((composite - high) / (1 - high)),
		}
	default:
		half := (high - low) / 2
		d := math.Min(composite-low, high-composite)
		return Decision{
			Verdict:    models.VerdictUncertain,
			Confidence: clamp01(d / half),
		}
	}
}
