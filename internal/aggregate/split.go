package aggregate

import (
	"image"
	"sort"

	"github.com/MeKo-Tech/omrscore/internal/decoder"
	"gonum.org/v1/gonum/stat"
)

// gapQuantile is the quantile of the smoothed row-density profile below
// which a row is treated as background (a candidate form gap).
const gapQuantile = 0.10

// SplitForms partitions a page into expected independent forms by locating
// gaps in ink density. When automatic boundary detection finds fewer gaps
// than needed, it falls back to equal-height slices, so the partition is
// always total and deterministic: exactly expected slices, no gaps, no
// overlaps.
func SplitForms(page *image.Gray, expected int) []image.Rectangle {
	b := page.Bounds()
	if expected <= 1 {
		return []image.Rectangle{b}
	}

	boundaries := detectBoundaries(decoder.RowDensity(page), expected)
	if len(boundaries) != expected-1 {
		boundaries = equalBoundaries(b.Dy(), expected)
	}

	forms := make([]image.Rectangle, 0, expected)
	prev := b.Min.Y
	for _, off := range boundaries {
		y := b.Min.Y + off
		forms = append(forms, image.Rect(b.Min.X, prev, b.Max.X, y))
		prev = y
	}
	forms = append(forms, image.Rect(b.Min.X, prev, b.Max.X, b.Max.Y))
	return forms
}

// detectBoundaries smooths the density profile and thresholds it at a low
// quantile; contiguous low-density spans away from the page edges are form
// gap candidates. The expected-1 longest spans win, each contributing a
// boundary at its center. Returns fewer offsets when detection fails.
func detectBoundaries(density []float64, expected int) []int {
	h := len(density)
	if h == 0 {
		return nil
	}
	smoothed := smooth(density, maxInt(3, h/200))

	sorted := append([]float64(nil), smoothed...)
	sort.Float64s(sorted)
	threshold := stat.Quantile(gapQuantile, stat.Empirical, sorted, nil)

	margin := h / 20
	minRun := maxInt(2, h/150)
	type run struct{ start, end int }
	var runs []run
	start := -1
	for y, v := range smoothed {
		if v <= threshold {
			if start < 0 {
				start = y
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, run{start, y})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, run{start, h})
	}

	candidates := runs[:0]
	for _, r := range runs {
		if r.start < margin || r.end > h-margin {
			continue // page margins, not form gaps
		}
		if r.end-r.start < minRun {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) < expected-1 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].end-candidates[i].start > candidates[j].end-candidates[j].start
	})
	picked := candidates[:expected-1]
	offsets := make([]int, 0, len(picked))
	for _, r := range picked {
		offsets = append(offsets, (r.start+r.end)/2)
	}
	sort.Ints(offsets)
	return offsets
}

// equalBoundaries slices a page of the given height into expected equal
// parts, returning the expected-1 interior boundary offsets.
func equalBoundaries(height, expected int) []int {
	out := make([]int, 0, expected-1)
	for i := 1; i < expected; i++ {
		out = append(out, i*height/expected)
	}
	return out
}

func smooth(xs []float64, window int) []float64 {
	if window <= 1 {
		return append([]float64(nil), xs...)
	}
	half := window / 2
	out := make([]float64, len(xs))
	for i := range xs {
		lo := maxInt(0, i-half)
		hi := minInt(len(xs), i+half+1)
		sum := 0.0
		for _, v := range xs[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
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
