package utils

import (
	"image"
	"image/color"
)

// DrawRect draws an axis-aligned rectangle outline into dst.
func DrawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	for t := range thickness {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}

// DrawHLine draws a horizontal line across [x0, x1) at row y.
func DrawHLine(dst *image.RGBA, x0, x1, y int, col color.Color) {
	b := dst.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	x0 = ClampInt(x0, b.Min.X, b.Max.X)
	x1 = ClampInt(x1, b.Min.X, b.Max.X)
	for x := x0; x < x1; x++ {
		dst.Set(x, y, col)
	}
}

// GrayToRGBA copies a grayscale image into a fresh RGBA canvas for annotation.
func GrayToRGBA(src *image.Gray) *image.RGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := src.GrayAt(x, y).Y
			dst.Set(x-b.Min.X, y-b.Min.Y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return dst
}
