package decoder

import (
	"image"
)

// RowDensity returns, per page row, the count of non-background pixels under
// a global Otsu threshold. Used by form splitting to find the ink gaps
// between physically distinct forms printed on one page.
func RowDensity(page *image.Gray) []float64 {
	if page == nil {
		return nil
	}
	b := page.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	pix := make([]uint8, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := page.Pix[(y-page.Rect.Min.Y)*page.Stride:]
		pix = append(pix, row[b.Min.X-page.Rect.Min.X:b.Min.X-page.Rect.Min.X+w]...)
	}

	lo, hi := intensityRange(pix)
	out := make([]float64, h)
	if int(hi)-int(lo) < flatRange {
		return out // uniform page, no ink anywhere
	}
	t := otsu(pix)
	for y := range h {
		n := 0
		for x := range w {
			if pix[y*w+x] <= t {
				n++
			}
		}
		out[y] = float64(n)
	}
	return out
}
