package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawRect(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.RGBA{R: 255, A: 255}

	DrawRect(dst, image.Rect(5, 5, 15, 15), red, 1)

	assert.Equal(t, red, dst.RGBAAt(5, 5))
	assert.Equal(t, red, dst.RGBAAt(14, 14))
	assert.Equal(t, red, dst.RGBAAt(10, 5))
	assert.Equal(t, red, dst.RGBAAt(5, 10))
	// Interior stays untouched.
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(10, 10))
}

func TestDrawRectClipped(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// Fully outside rectangles must not panic or draw.
	DrawRect(dst, image.Rect(50, 50, 60, 60), color.White, 2)
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(9, 9))
}

func TestDrawHLine(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	blue := color.RGBA{B: 255, A: 255}

	DrawHLine(dst, 2, 8, 5, blue)
	assert.Equal(t, blue, dst.RGBAAt(2, 5))
	assert.Equal(t, blue, dst.RGBAAt(7, 5))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(8, 5))

	// Off-canvas rows are ignored.
	DrawHLine(dst, 0, 10, 42, blue)
}

func TestGrayToRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(2, 2, 6, 6))
	src.SetGray(3, 3, color.Gray{Y: 128})

	dst := GrayToRGBA(src)
	require.NotNil(t, dst)
	assert.Equal(t, image.Rect(0, 0, 4, 4), dst.Bounds())
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, dst.RGBAAt(1, 1))

	assert.Nil(t, GrayToRGBA(nil))
}
