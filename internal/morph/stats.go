package morph

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// madScale converts a median absolute deviation into a robust standard
// deviation estimate for normally distributed data.
const madScale = 1.4826

// deviationCap bounds a single patch's robust z-score so one extreme patch
// cannot blow up the deviation mass.
const deviationCap = 10.0

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

func mad(xs []float64, med float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - med)
	}
	return median(devs)
}

// robustZ measures how far v sits from the median in robust standard
// deviations, capped at deviationCap. A near-zero MAD means the distribution
// is essentially constant; values matching it get 0, anything else the cap.
func robustZ(v, med, madValue float64) float64 {
	dev := math.Abs(v - med)
	if dev < 1e-9 {
		return 0
	}
	scale := madScale * madValue
	if scale < 1e-9 {
		return deviationCap
	}
	z := dev / scale
	if z > deviationCap {
		return deviationCap
	}
	return z
}

// saturate maps a non-negative deviation mass into [0,1] through a saturating
// exponential. Natural single-source images concentrate near 0.
func saturate(x, gain float64) float64 {
	if x <= 0 {
		return 0
	}
	return clamp01(1 - math.Exp(-gain*x))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
