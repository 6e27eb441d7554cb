package utils

import (
	"image"
	"math"
)

// FracBand is a vertical page region expressed as fractions of the page height,
// with bubble-column x positions as fractions of the page width.
type FracBand struct {
	YStart  float64
	YEnd    float64
	Columns []float64
}

// ToPixels converts a fractional band to pixel coordinates for a page of the
// given dimensions. The resulting rectangle spans the full page width.
func (b FracBand) ToPixels(width, height int) (image.Rectangle, []int) {
	y0 := ClampInt(int(math.Round(b.YStart*float64(height))), 0, height)
	y1 := ClampInt(int(math.Round(b.YEnd*float64(height))), 0, height)
	if y1 < y0 {
		y1 = y0
	}
	cols := make([]int, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = ClampInt(int(math.Round(c*float64(width))), 0, width-1)
	}
	return image.Rect(0, y0, width, y1), cols
}

// ClampInt restricts v to the inclusive range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat restricts v to the inclusive range [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SquareAround returns a square window of the given size centered at (cx, cy),
// clipped to bounds. The result may be empty if the center lies outside bounds.
func SquareAround(cx, cy, size int, bounds image.Rectangle) image.Rectangle {
	if size < 1 {
		size = 1
	}
	half := size / 2
	r := image.Rect(cx-half, cy-half, cx-half+size, cy-half+size)
	return r.Intersect(bounds)
}
