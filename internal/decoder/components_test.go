package decoder

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLargestComponentArea(t *testing.T) {
	w := 20
	mask := make([]bool, w*20)
	// A 3x3 block and a separate 2x1 strip.
	for y := 5; y < 8; y++ {
		for x := 5; x < 8; x++ {
			mask[y*w+x] = true
		}
	}
	mask[12*w+12] = true
	mask[12*w+13] = true

	area := largestComponentArea(mask, w, image.Rect(0, 0, 20, 20))
	assert.Equal(t, 9, area)
}

func TestLargestComponentAreaClippedAtWindow(t *testing.T) {
	w := 20
	mask := make([]bool, w*20)
	// A 6-wide strip crossing the window boundary at x=10.
	for x := 7; x < 13; x++ {
		mask[5*w+x] = true
	}

	area := largestComponentArea(mask, w, image.Rect(0, 0, 10, 10))
	assert.Equal(t, 3, area)
}

func TestLargestComponentAreaDiagonalNotConnected(t *testing.T) {
	w := 10
	mask := make([]bool, w*10)
	mask[3*w+3] = true
	mask[4*w+4] = true // diagonal neighbor only

	area := largestComponentArea(mask, w, image.Rect(0, 0, 10, 10))
	assert.Equal(t, 1, area)
}

func TestLargestComponentAreaEmptyWindow(t *testing.T) {
	mask := make([]bool, 100)
	assert.Zero(t, largestComponentArea(mask, 10, image.Rect(50, 50, 60, 60)))
	assert.Zero(t, largestComponentArea(mask, 10, image.Rectangle{}))
}
