package decoder

import (
	"github.com/MeKo-Tech/omrscore/internal/mempool"
)

// Local adaptive thresholding parameters. The block size bounds the
// neighborhood used for the local mean; the offset guards against labeling
// mild shadows as ink.
const (
	adaptiveBlock  = 15
	adaptiveOffset = 10
	// flatRange is the minimum intensity spread for a band to be considered
	// to contain ink at all. A uniform background yields an empty mask.
	flatRange = 10
)

// inkMask produces the binary ink mask for a band: histogram equalization,
// then the union of a global Otsu threshold and a local adaptive mean
// threshold, followed by a 3x3 median filter to suppress speckle.
// The returned buffer comes from the mempool; callers must PutBool it.
func inkMask(pix []uint8, w, h int) []bool {
	mask := mempool.GetBool(w * h)
	lo, hi := intensityRange(pix)
	if int(hi)-int(lo) < flatRange {
		return mask // no contrast, no ink
	}

	eq := equalize(pix)
	t := otsu(eq)
	local := localMeans(eq, w, h)
	for i, v := range eq {
		global := v <= t
		adaptive := float64(v) < local[i]-adaptiveOffset
		mask[i] = global || adaptive
	}
	mempool.PutFloat64(local)

	filtered := median3(mask, w, h)
	mempool.PutBool(mask)
	return filtered
}

func intensityRange(pix []uint8) (uint8, uint8) {
	if len(pix) == 0 {
		return 0, 0
	}
	lo, hi := pix[0], pix[0]
	for _, v := range pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// equalize applies histogram equalization, normalizing local contrast so a
// single threshold pair works across unevenly illuminated scans.
func equalize(pix []uint8) []uint8 {
	var hist [256]int
	for _, v := range pix {
		hist[v]++
	}
	var cdf [256]int
	sum := 0
	for i, c := range hist {
		sum += c
		cdf[i] = sum
	}
	cdfMin := 0
	for _, c := range cdf {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	n := len(pix)
	out := make([]uint8, n)
	if n == 0 || n == cdfMin {
		copy(out, pix)
		return out
	}
	denom := float64(n - cdfMin)
	for i, v := range pix {
		out[i] = uint8((float64(cdf[v]-cdfMin) / denom) * 255.0)
	}
	return out
}

// otsu computes the global threshold maximizing between-class variance.
// Pixels at or below the threshold are ink (dark marks on light paper).
func otsu(pix []uint8) uint8 {
	var hist [256]int
	for _, v := range pix {
		hist[v]++
	}
	total := len(pix)
	if total == 0 {
		return 0
	}
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}
	var (
		sumB, wB float64
		best     float64 = -1
		thresh   uint8
	)
	for i, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(c)
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			thresh = uint8(i)
		}
	}
	return thresh
}

// localMeans computes, per pixel, the mean intensity of the surrounding
// adaptiveBlock x adaptiveBlock neighborhood via an integral image.
// The returned buffer comes from the mempool; callers must PutFloat64 it.
func localMeans(pix []uint8, w, h int) []float64 {
	integral := make([]uint64, (w+1)*(h+1))
	for y := range h {
		var rowSum uint64
		for x := range w {
			rowSum += uint64(pix[y*w+x])
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}

	half := adaptiveBlock / 2
	out := mempool.GetFloat64(w * h)
	for y := range h {
		y0 := maxInt(0, y-half)
		y1 := minInt(h, y+half+1)
		for x := range w {
			x0 := maxInt(0, x-half)
			x1 := minInt(w, x+half+1)
			sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] -
				integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			out[y*w+x] = float64(sum) / float64((y1-y0)*(x1-x0))
		}
	}
	return out
}

// median3 applies a 3x3 median filter to a binary mask: a pixel survives if
// at least 5 of the 9 cells in its neighborhood are set (edges padded false).
// The returned buffer comes from the mempool; callers must PutBool it.
func median3(mask []bool, w, h int) []bool {
	out := mempool.GetBool(w * h)
	for y := range h {
		for x := range w {
			set := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < w && ny >= 0 && ny < h && mask[ny*w+nx] {
						set++
					}
				}
			}
			out[y*w+x] = set >= 5
		}
	}
	return out
}

// dilate3 grows the mask by one pixel in 8-connectivity, thickening faint
// strokes before component analysis.
// The returned buffer comes from the mempool; callers must PutBool it.
func dilate3(mask []bool, w, h int) []bool {
	out := mempool.GetBool(w * h)
	for y := range h {
		for x := range w {
			if mask[y*w+x] {
				out[y*w+x] = true
				continue
			}
			for dy := -1; dy <= 1 && !out[y*w+x]; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < w && ny >= 0 && ny < h && mask[ny*w+nx] {
						out[y*w+x] = true
						break
					}
				}
			}
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
