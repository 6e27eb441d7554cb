package decoder

import (
	"image"
	"image/color"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/MeKo-Tech/omrscore/internal/testutil"
)

func singleSubject(t *testing.T) ([]layout.Subject, testutil.SheetConfig) {
	t.Helper()
	subjects := layout.Bands([]string{"Physics"}, layout.DefaultConfig())
	cfg := testutil.DefaultSheetConfig()
	cfg.Width = 800
	cfg.Height = 1600
	cfg.Questions = 10
	return subjects, cfg
}

func bandRegion(sub layout.Subject, cfg testutil.SheetConfig) Region {
	rect, cols := sub.Band.ToPixels(cfg.Width, cfg.Height)
	return Region{Rect: rect, Columns: cols}
}

func TestDecodeBandDetectsMarks(t *testing.T) {
	subjects, cfg := singleSubject(t)
	page := testutil.RenderSheet(subjects, cfg, []testutil.Mark{
		{Band: 0, Slot: 0, Column: 0},
		{Band: 0, Slot: 3, Column: 1},
		{Band: 0, Slot: 7, Column: 2},
		{Band: 0, Slot: 9, Column: 0},
	})

	counts, marks := DecodeBand(page, bandRegion(subjects[0], cfg),
		layout.DefaultRatings(), cfg.Questions, DefaultCalibration())

	assert.Equal(t, 2, counts["5_star"])
	assert.Equal(t, 1, counts["3_star"])
	assert.Equal(t, 1, counts["1_star"])
	require.Len(t, marks, 4)
	for _, m := range marks {
		assert.GreaterOrEqual(t, m.Area, DefaultCalibration().MinArea)
	}
}

func TestDecodeBandBlankSlotsUncounted(t *testing.T) {
	subjects, cfg := singleSubject(t)
	page := testutil.RenderSheet(subjects, cfg, []testutil.Mark{
		{Band: 0, Slot: 5, Column: 1},
	})

	counts, _ := DecodeBand(page, bandRegion(subjects[0], cfg),
		layout.DefaultRatings(), cfg.Questions, DefaultCalibration())

	assert.Equal(t, 1, counts.Total())
	assert.Equal(t, 1, counts["3_star"])
}

func TestDecodeBandTieFirstColumnWins(t *testing.T) {
	subjects, cfg := singleSubject(t)
	// Identical disks in two columns of the same slot have equal areas.
	page := testutil.RenderSheet(subjects, cfg, []testutil.Mark{
		{Band: 0, Slot: 4, Column: 0},
		{Band: 0, Slot: 4, Column: 2},
	})

	counts, marks := DecodeBand(page, bandRegion(subjects[0], cfg),
		layout.DefaultRatings(), cfg.Questions, DefaultCalibration())

	assert.Equal(t, 1, counts["5_star"])
	assert.Zero(t, counts["1_star"])
	require.Len(t, marks, 1)
	assert.Equal(t, 0, marks[0].Column)
}

func TestDecodeBandBelowMinArea(t *testing.T) {
	subjects, cfg := singleSubject(t)
	cfg.BubbleRadius = 3 // ~29 pixels, under the 60-pixel default
	page := testutil.RenderSheet(subjects, cfg, []testutil.Mark{
		{Band: 0, Slot: 2, Column: 1},
	})

	counts, marks := DecodeBand(page, bandRegion(subjects[0], cfg),
		layout.DefaultRatings(), cfg.Questions, DefaultCalibration())

	assert.Zero(t, counts.Total())
	assert.Empty(t, marks)
}

func TestDecodeBandEnhanceRecoversFaintMark(t *testing.T) {
	subjects, cfg := singleSubject(t)
	cfg.BubbleRadius = 4
	page := testutil.RenderSheet(subjects, cfg, []testutil.Mark{
		{Band: 0, Slot: 6, Column: 2},
	})

	cal := DefaultCalibration()
	counts, _ := DecodeBand(page, bandRegion(subjects[0], cfg),
		layout.DefaultRatings(), cfg.Questions, cal)
	assert.Zero(t, counts.Total())

	cal.Enhance = true
	counts, _ = DecodeBand(page, bandRegion(subjects[0], cfg),
		layout.DefaultRatings(), cfg.Questions, cal)
	assert.Equal(t, 1, counts["1_star"])
}

func TestDecodeBandEnhanceRepeatedDecodesStable(t *testing.T) {
	// Bands on one page share a mask size class, so a stale buffer released
	// twice by an earlier Enhance decode would resurface aliased in a later
	// decode and wipe its freshly computed mask.
	subjects := layout.Bands([]string{"Physics", "Chemistry"}, layout.DefaultConfig())
	cfg := testutil.DefaultSheetConfig()
	cfg.Width = 800
	cfg.Height = 1600
	cfg.Questions = 10
	page := testutil.RenderSheet(subjects, cfg, []testutil.Mark{
		{Band: 0, Slot: 1, Column: 0},
		{Band: 0, Slot: 8, Column: 2},
		{Band: 1, Slot: 4, Column: 1},
	})
	ratings := layout.DefaultRatings()

	cal := DefaultCalibration()
	cal.Enhance = true
	plain := DefaultCalibration()

	for range 5 {
		counts, marks := DecodeBand(page, bandRegion(subjects[0], cfg),
			ratings, cfg.Questions, cal)
		assert.Equal(t, 1, counts["5_star"])
		assert.Equal(t, 1, counts["1_star"])
		require.Len(t, marks, 2)

		counts, marks = DecodeBand(page, bandRegion(subjects[1], cfg),
			ratings, cfg.Questions, plain)
		assert.Equal(t, 1, counts["3_star"])
		require.Len(t, marks, 1)
	}
}

func TestDecodeBandDegenerateInputs(t *testing.T) {
	ratings := layout.DefaultRatings()
	subjects, cfg := singleSubject(t)
	page := testutil.BlankPage(cfg.Width, cfg.Height)
	region := bandRegion(subjects[0], cfg)

	counts, marks := DecodeBand(nil, region, ratings, 10, DefaultCalibration())
	assert.Zero(t, counts.Total())
	assert.Empty(t, marks)

	counts, _ = DecodeBand(page, region, ratings, 0, DefaultCalibration())
	assert.Zero(t, counts.Total())

	counts, _ = DecodeBand(page, Region{}, ratings, 10, DefaultCalibration())
	assert.Zero(t, counts.Total())

	// More questions than band rows.
	tiny := Region{Rect: image.Rect(0, 0, cfg.Width, 5), Columns: region.Columns}
	counts, _ = DecodeBand(page, tiny, ratings, 10, DefaultCalibration())
	assert.Zero(t, counts.Total())
}

// TestDecodeBand_BlankRasterZeroCounts verifies that any uniform background,
// at any shade, decodes to all-zero counts.
func TestDecodeBand_BlankRasterZeroCounts(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 30
	properties := gopter.NewProperties(params)

	subjects := layout.Bands([]string{"Physics", "Chemistry"}, layout.DefaultConfig())
	ratings := layout.DefaultRatings()

	properties.Property("uniform raster yields zero counts", prop.ForAll(
		func(shade uint8, subjectIdx int) bool {
			page := image.NewGray(image.Rect(0, 0, 400, 800))
			for i := range page.Pix {
				page.Pix[i] = shade
			}
			sub := subjects[subjectIdx%len(subjects)]
			rect, cols := sub.Band.ToPixels(400, 800)
			counts, marks := DecodeBand(page, Region{Rect: rect, Columns: cols},
				ratings, 10, DefaultCalibration())
			return counts.Total() == 0 && len(marks) == 0
		},
		gen.UInt8(),
		gen.IntRange(0, 1),
	))

	properties.TestingRun(t)
}

// TestDecodeBand_TotalNeverExceedsQuestions verifies that however many disks
// land on the band, at most one rating per slot is counted.
func TestDecodeBand_TotalNeverExceedsQuestions(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 20
	properties := gopter.NewProperties(params)

	subjects := layout.Bands([]string{"Physics"}, layout.DefaultConfig())
	ratings := layout.DefaultRatings()
	cfg := testutil.DefaultSheetConfig()
	cfg.Width = 600
	cfg.Height = 1200
	cfg.Questions = 8

	properties.Property("sum of counts <= expected questions", prop.ForAll(
		func(slots, cols []int) bool {
			n := len(slots)
			if len(cols) < n {
				n = len(cols)
			}
			marks := make([]testutil.Mark, 0, n)
			for i := range n {
				marks = append(marks, testutil.Mark{
					Band:   0,
					Slot:   slots[i] % cfg.Questions,
					Column: cols[i] % 3,
				})
			}
			page := testutil.RenderSheet(subjects, cfg, marks)
			rect, colsPx := subjects[0].Band.ToPixels(cfg.Width, cfg.Height)
			counts, _ := DecodeBand(page, Region{Rect: rect, Columns: colsPx},
				ratings, cfg.Questions, DefaultCalibration())
			return counts.Total() <= cfg.Questions
		},
		gen.SliceOf(gen.IntRange(0, 7)),
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}

func TestCountsHelpers(t *testing.T) {
	ratings := layout.DefaultRatings()

	zero := Zero(ratings)
	assert.Equal(t, Counts{"5_star": 0, "3_star": 0, "1_star": 0}, zero)

	zero.Add(Counts{"5_star": 2, "1_star": 1})
	assert.Equal(t, 3, zero.Total())

	clone := zero.Clone()
	clone["5_star"] = 99
	assert.Equal(t, 2, zero["5_star"])
}

func TestAnnotate(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	region := Region{Rect: image.Rect(0, 10, 100, 60), Columns: []int{50}}
	marks := []Mark{{Slot: 0, Column: 0, Rect: image.Rect(40, 20, 60, 40), Area: 120}}

	Annotate(dst, region, marks)

	blue := color.RGBA{B: 255, A: 255}
	red := color.RGBA{R: 255, A: 255}
	assert.Equal(t, blue, dst.RGBAAt(0, 10))
	assert.Equal(t, red, dst.RGBAAt(40, 20))

	// Nil destination is a no-op.
	Annotate(nil, region, marks)
}
