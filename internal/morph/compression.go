package morph

import (
	"go-morph-detector/pkg/models"
)

// compressionAnalyzer measures blockiness aligned to the lossy-compression
// block grid. A patch recompressed independently of the rest of the image
// carries a block signature that diverges from the image-wide mode, which is
// a splicing indicator.
type compressionAnalyzer struct{}

// NewCompressionAnalyzer creates the compression artifact analyzer.
func NewCompressionAnalyzer() Extractor {
	return &compressionAnalyzer{}
}

func (a *compressionAnalyzer) Name() string {
	return models.SignalCompression
}

func (a *compressionAnalyzer) Extract(img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error) {
	block := cfg.CompressionBlockSize
	luma := img.Luma

	values := make([]patchValue, 0, len(grid.Patches))
	for _, p := range grid.Patches {
		r := p.Rect
		if r.Dx() < 2*block || r.Dy() < 2*block {
			continue
		}

		var boundary, interior float64
		var nb, ni int

		// Horizontal first differences, split at block-grid columns.
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X + 1; x < r.Max.X; x++ {
				d := absDiffU8(luma.GrayAt(x, y).Y, luma.GrayAt(x-1, y).Y)
				if x%block == 0 {
					boundary += d
					nb++
				} else {
					interior += d
					ni++
				}
			}
		}
		// Vertical first differences, split at block-grid rows.
		for y := r.Min.Y + 1; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				d := absDiffU8(luma.GrayAt(x, y).Y, luma.GrayAt(x, y-1).Y)
				if y%block == 0 {
					boundary += d
					nb++
				} else {
					interior += d
					ni++
				}
			}
		}

		if nb == 0 || ni == 0 {
			continue
		}
		inter := interior / float64(ni)
		if inter < 1e-6 {
			// Flat patch, no compression signature to compare.
			continue
		}
		values = append(values, patchValue{index: p.Index, value: (boundary / float64(nb)) / inter})
	}

	if len(values) < 4 {
		return SignalScore{}, failf(a.Name(), "only %d patches usable for block-grid analysis", len(values))
	}

	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = v.value
	}
	return buildScore(a.Name(), median(raw), grid, flagOutliers(values, cfg), cfg), nil
}

func absDiffU8(a, b uint8) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
