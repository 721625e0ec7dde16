package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskBasics(t *testing.T) {
	m := NewMask(4, 3)
	assert.Equal(t, 4, m.Width())
	assert.Equal(t, 3, m.Height())
	assert.Equal(t, 0, m.Count())

	m.Set(3, 2, true)
	m.Set(4, 2, true) // ignored
	assert.True(t, m.Get(3, 2))
	assert.False(t, m.Get(4, 2))
	assert.Equal(t, 1, m.Count())
}

func TestMaskCloneAndEqual(t *testing.T) {
	m := NewMask(5, 5)
	m.Set(1, 1, true)
	c := m.Clone()
	assert.True(t, c.Equal(m))

	c.Set(2, 2, true)
	assert.False(t, c.Equal(m))
	assert.False(t, NewMask(5, 4).Equal(NewMask(4, 5)))
}

func TestMaskFromBitsPanicsOnMismatch(t *testing.T) {
	assert.Panics(t, func() { MaskFromBits(2, 2, make([]bool, 3)) })
	assert.NotPanics(t, func() { MaskFromBits(2, 2, make([]bool, 4)) })
}

func TestMaskGray(t *testing.T) {
	m := NewMask(3, 2)
	m.Set(2, 1, true)
	g := m.Gray()
	assert.Equal(t, uint8(255), g.GrayAt(2, 1).Y)
	assert.Equal(t, uint8(0), g.GrayAt(0, 0).Y)
}
