package morph

import "image"

// Image is the canonical analysis buffer shared read-only by all extractors:
// an 8-bit RGBA plane plus a precomputed luma plane, with the downscale
// factor relative to the original input. Immutable once built.
type Image struct {
	RGBA *image.RGBA
	Luma *image.Gray

	Width  int
	Height int

	// OriginalWidth/OriginalHeight are the input dimensions before any
	// downscaling. Scale is analysis pixels per original pixel (<= 1);
	// evidence coordinates divide by Scale to map back to the original.
	OriginalWidth  int
	OriginalHeight int
	Scale          float64
}

// Patch is a rectangular view into the Image buffer. Patches never copy
// pixel data; they carry only their grid position and bounds.
type Patch struct {
	Index int
	Col   int
	Row   int
	Rect  image.Rectangle
}

// Grid is the uniform partition of the analysis image. The rightmost column
// and bottom row may hold smaller remainder patches.
type Grid struct {
	PatchSize int
	Cols      int
	Rows      int
	Patches   []Patch
}

// At returns the patch at the given grid position.
func (g *Grid) At(col, row int) *Patch {
	return &g.Patches[row*g.Cols+col]
}

// Neighbors returns the indices of the 4-adjacent patches of patch i.
func (g *Grid) Neighbors(i int) []int {
	p := g.Patches[i]
	out := make([]int, 0, 4)
	if p.Col > 0 {
		out = append(out, i-1)
	}
	if p.Col < g.Cols-1 {
		out = append(out, i+1)
	}
	if p.Row > 0 {
		out = append(out, i-g.Cols)
	}
	if p.Row < g.Rows-1 {
		out = append(out, i+g.Cols)
	}
	return out
}

func buildGrid(width, height, patchSize int) *Grid {
	cols := (width + patchSize - 1) / patchSize
	rows := (height + patchSize - 1) / patchSize

	g := &Grid{
		PatchSize: patchSize,
		Cols:      cols,
		Rows:      rows,
		Patches:   make([]Patch, 0, cols*rows),
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x0 := col * patchSize
			y0 := row * patchSize
			x1 := x0 + patchSize
			y1 := y0 + patchSize
			if x1 > width {
				x1 = width
			}
			if y1 > height {
				y1 = height
			}
			g.Patches = append(g.Patches, Patch{
				Index: row*cols + col,
				Col:   col,
				Row:   row,
				Rect:  image.Rect(x0, y0, x1, y1),
			})
		}
	}
	return g
}
