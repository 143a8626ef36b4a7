package morph

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	apperrors "go-morph-detector/internal/errors"
)

// DecodeImage decodes raw image bytes into an image.Image.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewInvalidImageError("failed to decode image", err)
	}
	return img, nil
}

// Preprocess normalizes the input into the canonical analysis buffer and
// partitions it into the patch grid. The input is downscaled when its larger
// side exceeds cfg.MaxDimension; the applied scale factor is recorded on the
// Image so evidence coordinates can be mapped back.
//
// Pure transform: the source image is never mutated.
func Preprocess(src image.Image, cfg AnalysisConfig) (*Image, *Grid, error) {
	if src == nil {
		return nil, nil, apperrors.NewInvalidImageError("nil source image", nil)
	}
	if m := src.ColorModel(); m == color.AlphaModel || m == color.Alpha16Model {
		return nil, nil, apperrors.NewInvalidImageError("alpha-only color layout is unsupported", nil)
	}

	bounds := src.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW < 2*cfg.PatchSize || origH < 2*cfg.PatchSize {
		return nil, nil, apperrors.NewInvalidImageError(
			fmt.Sprintf("image %dx%d is smaller than twice the patch size %d", origW, origH, cfg.PatchSize), nil)
	}

	scale := 1.0
	width, height := origW, origH
	if longest := maxInt(origW, origH); cfg.MaxDimension > 0 && longest > cfg.MaxDimension {
		scale = float64(cfg.MaxDimension) / float64(longest)
		width = int(math.Round(float64(origW) * scale))
		height = int(math.Round(float64(origH) * scale))
	}
	if width < 2*cfg.PatchSize || height < 2*cfg.PatchSize {
		return nil, nil, apperrors.NewInvalidImageError(
			fmt.Sprintf("downscaled image %dx%d is smaller than twice the patch size %d", width, height, cfg.PatchSize), nil)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if scale == 1.0 {
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	} else {
		xdraw.CatmullRom.Scale(rgba, rgba.Bounds(), src, bounds, xdraw.Src, nil)
	}

	luma := image.NewGray(rgba.Bounds())
	draw.Draw(luma, luma.Bounds(), rgba, image.Point{}, draw.Src)

	img := &Image{
		RGBA:           rgba,
		Luma:           luma,
		Width:          width,
		Height:         height,
		OriginalWidth:  origW,
		OriginalHeight: origH,
		Scale:          scale,
	}
	return img, buildGrid(width, height, cfg.PatchSize), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
