package morph

import (
	"image"
	"image/color"
	"math/rand"
)

// newUniformImage creates a single-color test image
func newUniformImage(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

// newNoisyImage creates a mid-gray image with seeded uniform noise so that
// every run produces the same pixels
func newNoisyImage(width, height int, seed int64, amplitude int) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := clampU8(128 + rng.Intn(2*amplitude+1) - amplitude)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// newSplicedImage creates a smooth gradient and pastes a high-variance
// foreign region into the given rectangle, simulating spliced content
func newSplicedImage(width, height int, region image.Rectangle, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := clampU8(60 + (x*120)/width)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			v := clampU8(128 + rng.Intn(241) - 120)
			img.Set(x, y, color.RGBA{v, clampU8(int(v) + 40), clampU8(int(v) - 40), 255})
		}
	}
	return img
}

func clampU8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// mustPreprocess builds the analysis buffer for a test image, failing the
// build rather than the test when the fixture itself is broken
func mustPreprocess(src image.Image, cfg AnalysisConfig) (*Image, *Grid) {
	img, grid, err := Preprocess(src, cfg)
	if err != nil {
		panic(err)
	}
	return img, grid
}
