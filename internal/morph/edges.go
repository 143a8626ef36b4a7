package morph

import (
	"image"
	"math"

	"go-morph-detector/pkg/models"
)

// edgeAnalyzer computes a gradient-magnitude map and looks for patches whose
// edge density breaks abruptly against their neighbors. Natural contours are
// continuous; doubled or truncated edges at patch boundaries are a splicing
// indicator.
type edgeAnalyzer struct{}

// NewEdgeAnalyzer creates the edge consistency analyzer.
func NewEdgeAnalyzer() Extractor {
	return &edgeAnalyzer{}
}

func (a *edgeAnalyzer) Name() string {
	return models.SignalEdges
}

func (a *edgeAnalyzer) Extract(img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error) {
	if grid.Cols < 2 || grid.Rows < 2 {
		return SignalScore{}, failf(a.Name(), "grid %dx%d has no neighbor structure", grid.Cols, grid.Rows)
	}

	densities := make([]float64, len(grid.Patches))
	var totalDensity float64
	for i, p := range grid.Patches {
		densities[i] = edgeDensity(img.Luma, p.Rect, cfg.EdgeMagnitudeThreshold)
		totalDensity += densities[i]
	}

	// Discontinuity against the 4-neighborhood.
	values := make([]patchValue, 0, len(grid.Patches))
	for i := range grid.Patches {
		neighbors := grid.Neighbors(i)
		var sum float64
		for _, n := range neighbors {
			sum += densities[n]
		}
		disc := math.Abs(densities[i] - sum/float64(len(neighbors)))
		values = append(values, patchValue{index: i, value: disc})
	}

	raw := totalDensity / float64(len(grid.Patches))
	return buildScore(a.Name(), raw, grid, flagOutliers(values, cfg), cfg), nil
}

// edgeDensity returns the fraction of pixels in the rect whose Sobel gradient
// magnitude exceeds the threshold. The one-pixel image border is skipped.
func edgeDensity(luma *image.Gray, r image.Rectangle, threshold float64) float64 {
	b := luma.Bounds()
	count, total := 0, 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		if y < b.Min.Y+1 || y >= b.Max.Y-1 {
			continue
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			if x < b.Min.X+1 || x >= b.Max.X-1 {
				continue
			}
			gx := sobelX(luma, x, y)
			gy := sobelY(luma, x, y)
			if math.Sqrt(float64(gx*gx+gy*gy)) > threshold {
				count++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}
