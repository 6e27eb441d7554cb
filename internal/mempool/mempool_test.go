package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBoolZeroed(t *testing.T) {
	buf := GetBool(100)
	require.Len(t, buf, 100)
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	// A recycled buffer comes back zeroed.
	again := GetBool(100)
	require.Len(t, again, 100)
	for _, v := range again {
		assert.False(t, v)
	}
	PutBool(again)
}

func TestGetFloat64Zeroed(t *testing.T) {
	buf := GetFloat64(2048)
	require.Len(t, buf, 2048)
	for i := range buf {
		buf[i] = float64(i)
	}
	PutFloat64(buf)

	again := GetFloat64(2048)
	require.Len(t, again, 2048)
	for _, v := range again {
		assert.Zero(t, v)
	}
	PutFloat64(again)
}

func TestSizeClasses(t *testing.T) {
	assert.Equal(t, 1024, sizeClass(1))
	assert.Equal(t, 1024, sizeClass(1024))
	assert.Equal(t, 2048, sizeClass(1025))
	assert.Equal(t, 4096, sizeClass(4000))
}

func TestPutNilIsSafe(t *testing.T) {
	PutBool(nil)
	PutFloat64(nil)
}

func TestGetBoolOddLengths(t *testing.T) {
	for _, n := range []int{1, 7, 1023, 1025, 5000} {
		buf := GetBool(n)
		assert.Len(t, buf, n)
		PutBool(buf)
	}
}
