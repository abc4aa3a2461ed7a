package lanes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBinaryMaskRejectsBadDimensions(t *testing.T) {
	for _, size := range []struct{ w, h int }{{0, 10}, {10, 0}, {-1, 10}} {
		_, err := NewBinaryMask(size.w, size.h)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%dx%d", size.w, size.h)
	}
}

func TestNewBinaryMaskFromBytes(t *testing.T) {
	buf := make([]uint8, 12)
	buf[5] = 255
	mask, err := NewBinaryMaskFromBytes(4, 3, buf)
	require.NoError(t, err)
	assert.True(t, mask.At(1, 1))
	assert.False(t, mask.At(0, 0))
	assert.Equal(t, 1, mask.CountNonZero())

	_, err = NewBinaryMaskFromBytes(4, 3, make([]uint8, 11))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMaskBoundsAreSafe(t *testing.T) {
	mask, err := NewBinaryMask(4, 4)
	require.NoError(t, err)
	mask.Set(-1, 0)
	mask.Set(0, -1)
	mask.Set(4, 0)
	mask.Set(0, 4)
	assert.Zero(t, mask.CountNonZero())
	assert.False(t, mask.At(-1, 0))
	assert.False(t, mask.At(4, 4))
}

func TestHistogramUsesLowerHalfOnly(t *testing.T) {
	mask, err := NewBinaryMask(8, 8)
	require.NoError(t, err)
	mask.Set(2, 1) // upper half, must not count
	mask.Set(3, 4) // lower half
	mask.Set(3, 7) // lower half

	hist := mask.Histogram()
	assert.Equal(t, 0, hist[2])
	assert.Equal(t, 2, hist[3])
}

func TestArgmaxFirstIndexTieBreak(t *testing.T) {
	assert.Equal(t, 0, argmax([]int{0, 0, 0}))
	assert.Equal(t, 1, argmax([]int{0, 5, 5, 1}))
	assert.Equal(t, 3, argmax([]int{1, 2, 3, 4}))
}
