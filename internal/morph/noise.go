package morph

import (
	"gonum.org/v1/gonum/stat"

	"go-morph-detector/pkg/models"
)

// noiseAnalyzer extracts the high-frequency residual per patch and compares
// residual variances across the image. Spliced content typically carries
// sensor or processing noise that mismatches the host image.
type noiseAnalyzer struct{}

// NewNoiseAnalyzer creates the noise pattern analyzer.
func NewNoiseAnalyzer() Extractor {
	return &noiseAnalyzer{}
}

func (a *noiseAnalyzer) Name() string {
	return models.SignalNoise
}

func (a *noiseAnalyzer) Extract(img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error) {
	window := cfg.NoiseWindow
	if window >= cfg.PatchSize {
		return SignalScore{}, failf(a.Name(), "noise window %d does not fit patch size %d", window, cfg.PatchSize)
	}
	half := window / 2
	luma := img.Luma

	values := make([]patchValue, 0, len(grid.Patches))
	for _, p := range grid.Patches {
		r := p.Rect
		if r.Dx() < window || r.Dy() < window {
			continue
		}

		residuals := make([]float64, 0, (r.Dx()-2*half)*(r.Dy()-2*half))
		for y := r.Min.Y + half; y < r.Max.Y-half; y++ {
			for x := r.Min.X + half; x < r.Max.X-half; x++ {
				var sum int
				for wy := -half; wy <= half; wy++ {
					for wx := -half; wx <= half; wx++ {
						sum += int(luma.GrayAt(x+wx, y+wy).Y)
					}
				}
				smoothed := float64(sum) / float64(window*window)
				residuals = append(residuals, float64(luma.GrayAt(x, y).Y)-smoothed)
			}
		}
		if len(residuals) < 16 {
			continue
		}
		values = append(values, patchValue{index: p.Index, value: stat.Variance(residuals, nil)})
	}

	if len(values) < 4 {
		return SignalScore{}, failf(a.Name(), "only %d patches usable for residual analysis", len(values))
	}

	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = v.value
	}
	return buildScore(a.Name(), median(raw), grid, flagOutliers(values, cfg), cfg), nil
}
