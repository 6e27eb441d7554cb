// Package testutil renders synthetic rating sheets for tests: white pages
// with filled bubble disks at the slot/column positions a real sheet would
// carry.
package testutil

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/omrscore/internal/layout"
)

// SheetConfig controls synthetic sheet rendering.
type SheetConfig struct {
	Width        int
	Height       int
	Questions    int
	BubbleRadius int
	// Labels draws each subject name in the left margin with a bitmap font,
	// adding realistic non-bubble ink to the page.
	Labels bool
}

// DefaultSheetConfig returns dimensions tall enough that each question slot
// clears the detection window, so one disk maps to exactly one slot.
func DefaultSheetConfig() SheetConfig {
	return SheetConfig{
		Width:        1240,
		Height:       4000,
		Questions:    20,
		BubbleRadius: 9,
	}
}

// Mark places one filled bubble: band indexes into the subject list, slot is
// the question row, column the rating column.
type Mark struct {
	Band   int
	Slot   int
	Column int
}

// RenderSheet draws a synthetic sheet for the given resolved subjects. The
// page is white with black ink, matching the grayscale convention of scanned
// sheets.
func RenderSheet(subjects []layout.Subject, cfg SheetConfig, marks []Mark) *image.Gray {
	page := image.NewGray(image.Rect(0, 0, cfg.Width, cfg.Height))
	for i := range page.Pix {
		page.Pix[i] = 255
	}

	if cfg.Labels {
		drawLabels(page, subjects, cfg)
	}

	for _, m := range marks {
		if m.Band < 0 || m.Band >= len(subjects) {
			continue
		}
		rect, cols := subjects[m.Band].Band.ToPixels(cfg.Width, cfg.Height)
		if m.Column < 0 || m.Column >= len(cols) || cfg.Questions <= 0 {
			continue
		}
		h := rect.Dy()
		slotTop := m.Slot * h / cfg.Questions
		slotBot := (m.Slot + 1) * h / cfg.Questions
		cy := rect.Min.Y + (slotTop+slotBot)/2
		fillDisk(page, cols[m.Column], cy, cfg.BubbleRadius)
	}
	return page
}

// RenderStacked places n copies of the same form on one tall page, separated
// by blank gutters, the way duplex sheets pack two forms per scan.
func RenderStacked(subjects []layout.Subject, cfg SheetConfig, marks []Mark, n int) *image.Gray {
	if n < 1 {
		n = 1
	}
	form := RenderSheet(subjects, cfg, marks)
	page := image.NewGray(image.Rect(0, 0, cfg.Width, cfg.Height*n))
	for i := range page.Pix {
		page.Pix[i] = 255
	}
	for f := range n {
		offset := f * cfg.Height * page.Stride
		for y := range cfg.Height {
			src := form.Pix[y*form.Stride : y*form.Stride+cfg.Width]
			copy(page.Pix[offset+y*page.Stride:], src)
		}
	}
	return page
}

// BlankPage returns an all-white page of the given dimensions.
func BlankPage(width, height int) *image.Gray {
	page := image.NewGray(image.Rect(0, 0, width, height))
	for i := range page.Pix {
		page.Pix[i] = 255
	}
	return page
}

func fillDisk(page *image.Gray, cx, cy, r int) {
	bounds := page.Bounds()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			x, y := cx+dx, cy+dy
			if (image.Point{x, y}).In(bounds) {
				page.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
}

func drawLabels(page *image.Gray, subjects []layout.Subject, cfg SheetConfig) {
	drawer := &font.Drawer{
		Dst:  page,
		Src:  image.NewUniform(color.Gray{Y: 0}),
		Face: basicfont.Face7x13,
	}
	for _, sub := range subjects {
		rect, _ := sub.Band.ToPixels(cfg.Width, cfg.Height)
		drawer.Dot = fixed.P(16, rect.Min.Y+16)
		drawer.DrawString(sub.Name)
	}
}
