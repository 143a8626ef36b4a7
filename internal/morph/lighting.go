package morph

import (
	"math"

	"go-morph-detector/pkg/models"
)

// lightingAnalyzer estimates a coarse illumination field as a luminance plane
// over patch centers and flags patches whose shading departs from the global
// fit. Content pasted in from a differently lit scene leaves such residuals.
type lightingAnalyzer struct{}

// NewLightingAnalyzer creates the lighting consistency analyzer.
func NewLightingAnalyzer() Extractor {
	return &lightingAnalyzer{}
}

func (a *lightingAnalyzer) Name() string {
	return models.SignalLighting
}

func (a *lightingAnalyzer) Extract(img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error) {
	if len(grid.Patches) < 6 {
		return SignalScore{}, failf(a.Name(), "grid of %d patches is too coarse for a shading fit", len(grid.Patches))
	}

	// Mean luminance per patch at its center coordinates.
	xs := make([]float64, len(grid.Patches))
	ys := make([]float64, len(grid.Patches))
	ls := make([]float64, len(grid.Patches))
	for i, p := range grid.Patches {
		r := p.Rect
		var sum int
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				sum += int(img.Luma.GrayAt(x, y).Y)
			}
		}
		xs[i] = float64(r.Min.X+r.Max.X) / 2
		ys[i] = float64(r.Min.Y+r.Max.Y) / 2
		ls[i] = float64(sum) / float64(r.Dx()*r.Dy())
	}

	a0, ax, ay, ok := fitPlane(xs, ys, ls)
	if !ok {
		return SignalScore{}, failf(a.Name(), "degenerate shading geometry")
	}

	values := make([]patchValue, len(grid.Patches))
	var sumSq float64
	for i := range grid.Patches {
		resid := math.Abs(ls[i] - (a0 + ax*xs[i] + ay*ys[i]))
		values[i] = patchValue{index: i, value: resid}
		sumSq += resid * resid
	}

	raw := math.Sqrt(sumSq / float64(len(values)))
	return buildScore(a.Name(), raw, grid, flagOutliers(values, cfg), cfg), nil
}

// fitPlane solves the least-squares plane l = a0 + ax*x + ay*y via the
// normal equations. ok is false when the geometry is degenerate.
func fitPlane(xs, ys, ls []float64) (a0, ax, ay float64, ok bool) {
	n := float64(len(xs))
	var sx, sy, sl, sxx, syy, sxy, sxl, syl float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sl += ls[i]
		sxx += xs[i] * xs[i]
		syy += ys[i] * ys[i]
		sxy += xs[i] * ys[i]
		sxl += xs[i] * ls[i]
		syl += ys[i] * ls[i]
	}

	// | n   sx  sy  | |a0|   |sl |
	// | sx  sxx sxy | |ax| = |sxl|
	// | sy  sxy syy | |ay|   |syl|
	det := n*(sxx*syy-sxy*sxy) - sx*(sx*syy-sxy*sy) + sy*(sx*sxy-sxx*sy)
	if math.Abs(det) < 1e-9 {
		return 0, 0, 0, false
	}
	a0 = (sl*(sxx*syy-sxy*sxy) - sx*(sxl*syy-sxy*syl) + sy*(sxl*sxy-sxx*syl)) / det
	ax = (n*(sxl*syy-sxy*syl) - sl*(sx*syy-sxy*sy) + sy*(sx*syl-sxl*sy)) / det
	ay = (n*(sxx*syl-sxl*sxy) - sx*(sx*syl-sxl*sy) + sl*(sx*sxy-sxx*sy)) / det
	return a0, ax, ay, true
}
