package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIntBounds(t *testing.T) {
	_, err := RandomInt(0)
	assert.ErrorIs(t, err, ErrInvalidBound)

	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		v, err := RandomInt(5)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 5)
		seen[v] = true
	}
	assert.Len(t, seen, 5)
}

func TestShuffleKeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	require.NoError(t, Shuffle(items))
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, items)
}

func TestNewDrawRef(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	ref, err := NewDrawRef("", at)
	require.NoError(t, err)
	assert.Regexp(t, `^DRAW-20261016-[A-Z2-7]{8}$`, ref)

	other, err := NewDrawRef("", at)
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}

func TestFormatPence(t *testing.T) {
	assert.Equal(t, "£12.50", FormatPence(1250))
	assert.Equal(t, "£0.05", FormatPence(5))
	assert.Equal(t, "-£3.00", FormatPence(-300))
}

func TestMaskID(t *testing.T) {
	assert.Equal(t, "abc", MaskID("abc"))
	assert.Equal(t, "****5678", MaskID("12345678"))
}
