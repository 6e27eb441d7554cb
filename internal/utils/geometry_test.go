package utils

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFracBandToPixels(t *testing.T) {
	band := FracBand{YStart: 0.1, YEnd: 0.2, Columns: []float64{0.5, 0.75}}
	rect, cols := band.ToPixels(1000, 2000)

	assert.Equal(t, image.Rect(0, 200, 1000, 400), rect)
	assert.Equal(t, []int{500, 750}, cols)
}

func TestFracBandToPixelsClamped(t *testing.T) {
	band := FracBand{YStart: -0.5, YEnd: 1.5, Columns: []float64{1.0}}
	rect, cols := band.ToPixels(100, 100)

	assert.Equal(t, image.Rect(0, 0, 100, 100), rect)
	// A column at the far edge clamps to the last valid pixel.
	assert.Equal(t, []int{99}, cols)
}

func TestFracBandToPixelsInverted(t *testing.T) {
	band := FracBand{YStart: 0.8, YEnd: 0.2}
	rect, _ := band.ToPixels(100, 100)
	assert.True(t, rect.Empty())
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 5, ClampInt(5, 0, 10))
	assert.Equal(t, 0, ClampInt(-3, 0, 10))
	assert.Equal(t, 10, ClampInt(42, 0, 10))
}

func TestClampFloat(t *testing.T) {
	assert.InDelta(t, 0.5, ClampFloat(0.5, 0, 1), 1e-12)
	assert.InDelta(t, 0.0, ClampFloat(-1, 0, 1), 1e-12)
	assert.InDelta(t, 1.0, ClampFloat(2, 0, 1), 1e-12)
}

func TestSquareAround(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	r := SquareAround(50, 50, 20, bounds)
	assert.Equal(t, image.Rect(40, 40, 60, 60), r)

	// Clipped at the page edge.
	r = SquareAround(5, 5, 20, bounds)
	assert.Equal(t, image.Rect(0, 0, 15, 15), r)

	// Center outside bounds yields an empty window.
	r = SquareAround(-50, 50, 20, bounds)
	assert.True(t, r.Empty())
}

func TestSquareAroundMinimumSize(t *testing.T) {
	bounds := image.Rect(0, 0, 10, 10)
	r := SquareAround(5, 5, 0, bounds)
	require.False(t, r.Empty())
	assert.Equal(t, 1, r.Dx())
}
