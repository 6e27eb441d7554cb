package aggregate

import (
	"image"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/omrscore/internal/testutil"
)

func TestSplitFormsWholePage(t *testing.T) {
	page := testutil.BlankPage(100, 200)

	forms := SplitForms(page, 1)
	require.Len(t, forms, 1)
	assert.Equal(t, page.Bounds(), forms[0])

	forms = SplitForms(page, 0)
	require.Len(t, forms, 1)
}

func TestSplitFormsFallbackEqualSlices(t *testing.T) {
	// A blank page has no detectable form gap, so the split falls back to
	// exactly equal slices.
	page := testutil.BlankPage(100, 1000)

	forms := SplitForms(page, 2)
	require.Len(t, forms, 2)
	assert.Equal(t, image.Rect(0, 0, 100, 500), forms[0])
	assert.Equal(t, image.Rect(0, 500, 100, 1000), forms[1])

	forms = SplitForms(page, 3)
	require.Len(t, forms, 3)
	assert.Equal(t, image.Rect(0, 0, 100, 333), forms[0])
	assert.Equal(t, image.Rect(0, 333, 100, 666), forms[1])
	assert.Equal(t, image.Rect(0, 666, 100, 1000), forms[2])
}

func TestSplitFormsDetectsGap(t *testing.T) {
	// Two solid ink blocks separated by a wide blank gap around row 500.
	page := testutil.BlankPage(100, 1000)
	for _, span := range [][2]int{{100, 400}, {600, 900}} {
		for y := span[0]; y < span[1]; y++ {
			for x := 0; x < 100; x++ {
				page.Pix[y*page.Stride+x] = 0
			}
		}
	}

	forms := SplitForms(page, 2)
	require.Len(t, forms, 2)
	boundary := forms[0].Max.Y
	assert.Greater(t, boundary, 450)
	assert.Less(t, boundary, 550)
	assert.Equal(t, boundary, forms[1].Min.Y)
}

// TestSplitForms_Partition verifies that for any form count the slices tile
// the page exactly: contiguous, non-overlapping, full coverage.
func TestSplitForms_Partition(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("slices partition the page", prop.ForAll(
		func(expected, height int) bool {
			page := testutil.BlankPage(50, height)
			forms := SplitForms(page, expected)
			if len(forms) != expected {
				return false
			}
			prev := 0
			for _, f := range forms {
				if f.Min.Y != prev || f.Min.X != 0 || f.Max.X != 50 {
					return false
				}
				prev = f.Max.Y
			}
			return prev == height
		},
		gen.IntRange(2, 6),
		gen.IntRange(100, 2000),
	))

	properties.TestingRun(t)
}

func TestEqualBoundaries(t *testing.T) {
	assert.Equal(t, []int{500}, equalBoundaries(1000, 2))
	assert.Equal(t, []int{333, 666}, equalBoundaries(1000, 3))
	assert.Empty(t, equalBoundaries(1000, 1))
}

func TestSmooth(t *testing.T) {
	xs := []float64{0, 0, 9, 0, 0}
	out := smooth(xs, 3)
	require.Len(t, out, 5)
	assert.InDelta(t, 3.0, out[1], 1e-9)
	assert.InDelta(t, 3.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)

	// Window of one copies the input.
	assert.Equal(t, xs, smooth(xs, 1))
}
