package decoder

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/omrscore/internal/testutil"
)

func TestRowDensityBlankPage(t *testing.T) {
	page := testutil.BlankPage(100, 50)
	density := RowDensity(page)
	require.Len(t, density, 50)
	for _, d := range density {
		assert.Zero(t, d)
	}
}

func TestRowDensityInkRows(t *testing.T) {
	page := testutil.BlankPage(100, 50)
	// A dark stripe across rows 20-24.
	for y := 20; y < 25; y++ {
		for x := 10; x < 90; x++ {
			page.Pix[y*page.Stride+x] = 0
		}
	}

	density := RowDensity(page)
	require.Len(t, density, 50)
	assert.Positive(t, density[22])
	assert.Greater(t, density[22], density[5])
	assert.Zero(t, density[40])
}

func TestRowDensityNilAndEmpty(t *testing.T) {
	assert.Nil(t, RowDensity(nil))
	assert.Empty(t, RowDensity(image.NewGray(image.Rectangle{})))
}
