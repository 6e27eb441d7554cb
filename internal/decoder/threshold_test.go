package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/omrscore/internal/mempool"
)

func uniformPix(n int, v uint8) []uint8 {
	pix := make([]uint8, n)
	for i := range pix {
		pix[i] = v
	}
	return pix
}

func TestInkMaskFlatBackground(t *testing.T) {
	for _, shade := range []uint8{0, 127, 255} {
		mask := inkMask(uniformPix(64*64, shade), 64, 64)
		for _, v := range mask {
			require.False(t, v, "shade %d produced ink", shade)
		}
		mempool.PutBool(mask)
	}
}

func TestInkMaskDetectsDarkBlock(t *testing.T) {
	w, h := 64, 64
	pix := uniformPix(w*h, 240)
	// A 12x12 dark block in the middle.
	for y := 26; y < 38; y++ {
		for x := 26; x < 38; x++ {
			pix[y*w+x] = 10
		}
	}

	mask := inkMask(pix, w, h)
	defer mempool.PutBool(mask)

	assert.True(t, mask[32*w+32])
	assert.False(t, mask[4*w+4])
}

func TestIntensityRange(t *testing.T) {
	lo, hi := intensityRange([]uint8{50, 10, 200, 90})
	assert.Equal(t, uint8(10), lo)
	assert.Equal(t, uint8(200), hi)

	lo, hi = intensityRange(nil)
	assert.Equal(t, uint8(0), lo)
	assert.Equal(t, uint8(0), hi)
}

func TestOtsuBimodal(t *testing.T) {
	// Half dark (30), half light (220): the threshold separates the modes.
	pix := make([]uint8, 1000)
	for i := range pix {
		if i < 500 {
			pix[i] = 30
		} else {
			pix[i] = 220
		}
	}
	thresh := otsu(pix)
	assert.GreaterOrEqual(t, thresh, uint8(30))
	assert.Less(t, thresh, uint8(220))
}

func TestEqualizeSpreadsContrast(t *testing.T) {
	// A narrow mid-gray band stretches toward the full range.
	pix := make([]uint8, 256)
	for i := range pix {
		pix[i] = uint8(120 + i%8)
	}
	eq := equalize(pix)

	lo, hi := intensityRange(eq)
	assert.Less(t, lo, uint8(40))
	assert.Greater(t, hi, uint8(200))
}

func TestMedian3RemovesSpeckle(t *testing.T) {
	w, h := 16, 16
	mask := make([]bool, w*h)
	mask[8*w+8] = true // isolated pixel

	out := median3(mask, w, h)
	defer mempool.PutBool(out)
	for _, v := range out {
		assert.False(t, v)
	}
}

func TestMedian3KeepsSolidBlock(t *testing.T) {
	w, h := 16, 16
	mask := make([]bool, w*h)
	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			mask[y*w+x] = true
		}
	}

	out := median3(mask, w, h)
	defer mempool.PutBool(out)
	assert.True(t, out[8*w+8])
	assert.True(t, out[5*w+5])
}

func TestDilate3(t *testing.T) {
	w, h := 8, 8
	mask := make([]bool, w*h)
	mask[4*w+4] = true

	out := dilate3(mask, w, h)
	defer mempool.PutBool(out)

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			assert.True(t, out[(4+dy)*w+(4+dx)])
		}
	}
	assert.False(t, out[w+1])
}

func TestLocalMeans(t *testing.T) {
	w, h := 32, 32
	pix := uniformPix(w*h, 100)

	means := localMeans(pix, w, h)
	defer mempool.PutFloat64(means)

	for _, m := range means {
		assert.InDelta(t, 100.0, m, 1e-9)
	}
}
