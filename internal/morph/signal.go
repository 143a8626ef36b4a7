package morph

import (
	"fmt"
	"sort"

	"go-morph-detector/pkg/models"
)

// SignalScore is the shared report model for a single extractor outcome.
type SignalScore = models.SignalScore

// Extractor is the common contract of the six signal analyzers. Extractors
// are pure and stateless across calls; they read the shared Image and Grid
// but never write to them.
type Extractor interface {
	Name() string
	Extract(img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error)
}

// ExtractorFailure marks one signal as unusable for the current request.
// It is recovered locally: the aggregator proceeds with the remaining
// signals and the failure is recorded in the report.
type ExtractorFailure struct {
	Signal string
	Cause  error
}

func (e *ExtractorFailure) Error() string {
	return fmt.Sprintf("signal %s failed: %v", e.Signal, e.Cause)
}

func (e *ExtractorFailure) Unwrap() error {
	return e.Cause
}

func failf(signal, format string, args ...interface{}) *ExtractorFailure {
	return &ExtractorFailure{Signal: signal, Cause: fmt.Errorf(format, args...)}
}

// patchValue pairs a patch index with the statistic an extractor computed
// for it. Patches an extractor could not evaluate are simply absent.
type patchValue struct {
	index int
	value float64
}

// flaggedPatch carries the deviation magnitude that got a patch flagged.
type flaggedPatch struct {
	index     int
	deviation float64
}

// flagOutliers flags every patch whose statistic deviates from the
// image-wide median by more than cfg.DeviationThreshold robust standard
// deviations (median/MAD).
func flagOutliers(values []patchValue, cfg AnalysisConfig) []flaggedPatch {
	if len(values) == 0 {
		return nil
	}
	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = v.value
	}
	med := median(raw)
	madValue := mad(raw, med)

	var flagged []flaggedPatch
	for _, v := range values {
		if z := robustZ(v.value, med, madValue); z > cfg.DeviationThreshold {
			flagged = append(flagged, flaggedPatch{index: v.index, deviation: z})
		}
	}
	return flagged
}

// buildScore assembles a SignalScore from flagged patches. The normalized
// score is a saturating aggregate of the flagged deviation mass over the
// whole grid; evidence is sorted by deviation descending and capped to the
// configured top-K. Evidence coordinates are in analysis space; the report
// builder maps them back to original-image coordinates.
func buildScore(name string, raw float64, grid *Grid, flagged []flaggedPatch, cfg AnalysisConfig) SignalScore {
	mass := 0.0
	for _, f := range flagged {
		mass += f.deviation
	}
	mass /= float64(len(grid.Patches))

	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].deviation != flagged[j].deviation {
			return flagged[i].deviation > flagged[j].deviation
		}
		return flagged[i].index < flagged[j].index
	})
	if cfg.TopKEvidence > 0 && len(flagged) > cfg.TopKEvidence {
		flagged = flagged[:cfg.TopKEvidence]
	}

	evidence := make([]models.PatchEvidence, 0, len(flagged))
	for _, f := range flagged {
		r := grid.Patches[f.index].Rect
		evidence = append(evidence, models.PatchEvidence{
			X:         r.Min.X,
			Y:         r.Min.Y,
			Width:     r.Dx(),
			Height:    r.Dy(),
			Deviation: f.deviation,
		})
	}

	return SignalScore{
		Name:     name,
		Raw:      raw,
		Score:    saturate(mass, cfg.SaturationGain),
		Evidence: evidence,
	}
}
