// Package decoder detects marked bubbles inside one subject's band of a
// scanned page and turns them into per-rating counts.
package decoder

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/MeKo-Tech/omrscore/internal/mempool"
	"github.com/MeKo-Tech/omrscore/internal/utils"
)

// Counts maps a rating label to the number of slots detected at that rating.
// The sum over all ratings never exceeds the expected question count.
type Counts map[string]int

// Zero returns a Counts with every rating present at zero.
func Zero(ratings []layout.Rating) Counts {
	c := make(Counts, len(ratings))
	for _, r := range ratings {
		c[r.Label] = 0
	}
	return c
}

// Add folds other into c entry-wise.
func (c Counts) Add(other Counts) {
	for k, v := range other {
		c[k] += v
	}
}

// Total returns the number of counted responses across all ratings.
func (c Counts) Total() int {
	sum := 0
	for _, v := range c {
		sum += v
	}
	return sum
}

// Clone returns an independent copy.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Region is a subject's band in page pixel coordinates: its rectangle plus
// the bubble-column x positions, one per rating in column order.
type Region struct {
	Rect    image.Rectangle
	Columns []int
}

// Mark records one detected bubble, in page coordinates, for diagnostics.
type Mark struct {
	Slot   int
	Column int
	Rect   image.Rectangle
	Area   int
}

// DecodeBand detects which rating bubble is marked for each question slot in
// the band and returns per-rating counts plus the detected marks. A
// degenerate band yields all-zero counts and no marks; blank or ambiguous
// slots simply contribute nothing. It never fails.
func DecodeBand(page *image.Gray, region Region, ratings []layout.Rating,
	questions int, cal Calibration,
) (Counts, []Mark) {
	counts := Zero(ratings)
	if page == nil || questions <= 0 || len(region.Columns) == 0 {
		return counts, nil
	}
	rect := region.Rect.Intersect(page.Bounds())
	if rect.Empty() || rect.Dy() < questions {
		return counts, nil
	}

	band := utils.SubGray(page, rect)
	w, h := band.Bounds().Dx(), band.Bounds().Dy()
	mask := inkMask(band.Pix, w, h)
	if cal.Enhance {
		dilated := dilate3(mask, w, h)
		mempool.PutBool(mask)
		mask = dilated
	}
	// mask now holds the one live buffer, whichever branch produced it.
	defer mempool.PutBool(mask)

	cols := region.Columns
	if len(cols) > len(ratings) {
		cols = cols[:len(ratings)]
	}

	var marks []Mark
	for slot := range questions {
		slotTop := slot * h / questions
		slotBot := (slot + 1) * h / questions
		centerY := (slotTop + slotBot) / 2

		bestArea, bestCol := 0, -1
		var bestWindow image.Rectangle
		for col, x := range cols {
			window := utils.SquareAround(x-rect.Min.X, centerY, cal.Window, image.Rect(0, 0, w, h))
			area := largestComponentArea(mask, w, window)
			// Strict comparison: the first column reaching the maximum wins.
			if area >= cal.MinArea && area > bestArea {
				bestArea, bestCol, bestWindow = area, col, window
			}
		}
		if bestCol < 0 {
			continue // blank or ambiguous slot, counted nowhere
		}
		counts[ratings[bestCol].Label]++
		marks = append(marks, Mark{
			Slot:   slot,
			Column: bestCol,
			Rect:   bestWindow.Add(rect.Min),
			Area:   bestArea,
		})
	}
	return counts, marks
}

// Annotate outlines detected marks and the band rectangle on a diagnostic
// canvas. Drawing is a pure output side effect and never alters counts.
func Annotate(dst *image.RGBA, region Region, marks []Mark) {
	if dst == nil {
		return
	}
	bandCol := color.RGBA{R: 0, G: 0, B: 255, A: 255}
	markCol := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	utils.DrawRect(dst, region.Rect, bandCol, 1)
	for _, m := range marks {
		utils.DrawRect(dst, m.Rect, markCol, 2)
	}
}
