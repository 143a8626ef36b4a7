package morph

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"go-morph-detector/pkg/models"
)

// colorAnalyzer computes per-channel means and cross-channel correlations per
// patch and flags patches whose color statistics are outliers against the
// image-wide distribution. A region produced by a different capture or
// processing pipeline tends to decorrelate from the host image.
type colorAnalyzer struct{}

// NewColorAnalyzer creates the color analyzer.
func NewColorAnalyzer() Extractor {
	return &colorAnalyzer{}
}

func (a *colorAnalyzer) Name() string {
	return models.SignalColor
}

const colorFeatures = 5 // meanR, meanG, meanB, corr(R,G), corr(G,B)

func (a *colorAnalyzer) Extract(img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error) {
	if len(grid.Patches) < 4 {
		return SignalScore{}, failf(a.Name(), "grid of %d patches is too coarse for distribution analysis", len(grid.Patches))
	}

	features := make([][colorFeatures]float64, len(grid.Patches))
	for i, p := range grid.Patches {
		features[i] = colorFeatureVector(img.RGBA, p)
	}

	// Per-feature robust z-scores; a patch's deviation is its worst feature.
	column := make([]float64, len(features))
	deviation := make([]float64, len(features))
	var corrSum float64
	for f := 0; f < colorFeatures; f++ {
		for i := range features {
			column[i] = features[i][f]
		}
		med := median(column)
		madValue := mad(column, med)
		for i := range features {
			if z := robustZ(column[i], med, madValue); z > deviation[i] {
				deviation[i] = z
			}
		}
		if f >= 3 {
			corrSum += med
		}
	}

	values := make([]patchValue, len(features))
	for i := range features {
		values[i] = patchValue{index: i, value: deviation[i]}
	}
	var flagged []flaggedPatch
	for _, v := range values {
		if v.value > cfg.DeviationThreshold {
			flagged = append(flagged, flaggedPatch{index: v.index, deviation: v.value})
		}
	}

	raw := corrSum / 2 // median cross-channel correlation
	return buildScore(a.Name(), raw, grid, flagged, cfg), nil
}

func colorFeatureVector(rgba *image.RGBA, p Patch) [colorFeatures]float64 {
	r := p.Rect
	n := r.Dx() * r.Dy()
	rs := make([]float64, 0, n)
	gs := make([]float64, 0, n)
	bs := make([]float64, 0, n)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := rgba.RGBAAt(x, y)
			rs = append(rs, float64(c.R)/255)
			gs = append(gs, float64(c.G)/255)
			bs = append(bs, float64(c.B)/255)
		}
	}

	var v [colorFeatures]float64
	v[0] = stat.Mean(rs, nil)
	v[1] = stat.Mean(gs, nil)
	v[2] = stat.Mean(bs, nil)
	v[3] = safeCorrelation(rs, gs)
	v[4] = safeCorrelation(gs, bs)
	return v
}

// safeCorrelation returns 0 for flat channels where correlation is undefined.
func safeCorrelation(a, b []float64) float64 {
	c := stat.Correlation(a, b, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}
