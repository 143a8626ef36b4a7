package morph

import (
	"image"

	"go-morph-detector/pkg/models"
)

// textureAnalyzer describes each patch with a local binary pattern histogram
// and flags patches whose descriptor breaks against their spatial neighbors
// beyond natural texture variation.
type textureAnalyzer struct{}

// NewTextureAnalyzer creates the texture analyzer.
func NewTextureAnalyzer() Extractor {
	return &textureAnalyzer{}
}

func (a *textureAnalyzer) Name() string {
	return models.SignalTexture
}

const lbpBins = 256

func (a *textureAnalyzer) Extract(img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error) {
	if grid.Cols < 2 || grid.Rows < 2 {
		return SignalScore{}, failf(a.Name(), "grid %dx%d has no neighbor structure", grid.Cols, grid.Rows)
	}

	histograms := make([][]float64, len(grid.Patches))
	usable := 0
	for i, p := range grid.Patches {
		if h := lbpHistogram(img.Luma, p.Rect); h != nil {
			histograms[i] = h
			usable++
		}
	}
	if usable < 4 {
		return SignalScore{}, failf(a.Name(), "only %d patches usable for texture descriptors", usable)
	}

	// Discontinuity: mean chi-square distance to the 4-neighborhood.
	values := make([]patchValue, 0, usable)
	var discSum float64
	for i := range grid.Patches {
		if histograms[i] == nil {
			continue
		}
		var sum float64
		n := 0
		for _, j := range grid.Neighbors(i) {
			if histograms[j] == nil {
				continue
			}
			sum += chiSquareDistance(histograms[i], histograms[j])
			n++
		}
		if n == 0 {
			continue
		}
		disc := sum / float64(n)
		values = append(values, patchValue{index: i, value: disc})
		discSum += disc
	}
	if len(values) < 4 {
		return SignalScore{}, failf(a.Name(), "only %d patches have texture neighbors", len(values))
	}

	raw := discSum / float64(len(values))
	return buildScore(a.Name(), raw, grid, flagOutliers(values, cfg), cfg), nil
}

// lbpHistogram returns the normalized 8-neighbor local binary pattern
// histogram of the rect, or nil when the rect is too small to describe.
func lbpHistogram(luma *image.Gray, r image.Rectangle) []float64 {
	if r.Dx() < 8 || r.Dy() < 8 {
		return nil
	}
	hist := make([]float64, lbpBins)
	count := 0
	for y := r.Min.Y + 1; y < r.Max.Y-1; y++ {
		for x := r.Min.X + 1; x < r.Max.X-1; x++ {
			center := luma.GrayAt(x, y).Y
			var code uint8
			if luma.GrayAt(x-1, y-1).Y >= center {
				code |= 1 << 0
			}
			if luma.GrayAt(x, y-1).Y >= center {
				code |= 1 << 1
			}
			if luma.GrayAt(x+1, y-1).Y >= center {
				code |= 1 << 2
			}
			if luma.GrayAt(x+1, y).Y >= center {
				code |= 1 << 3
			}
			if luma.GrayAt(x+1, y+1).Y >= center {
				code |= 1 << 4
			}
			if luma.GrayAt(x, y+1).Y >= center {
				code |= 1 << 5
			}
			if luma.GrayAt(x-1, y+1).Y >= center {
				code |= 1 << 6
			}
			if luma.GrayAt(x-1, y).Y >= center {
				code |= 1 << 7
			}
			hist[code]++
			count++
		}
	}
	if count < 36 {
		return nil
	}
	for i := range hist {
		hist[i] /= float64(count)
	}
	return hist
}

func chiSquareDistance(h1, h2 []float64) float64 {
	var sum float64
	for i := range h1 {
		d := h1[i] - h2[i]
		if s := h1[i] + h2[i]; s > 1e-12 {
			sum += d * d / s
		}
	}
	return sum / 2
}
