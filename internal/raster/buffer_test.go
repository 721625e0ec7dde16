package raster

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = Color{R: 255, A: 150}

func TestNewBufferIsTransparent(t *testing.T) {
	buf := New(20, 10)
	assert.Equal(t, 20, buf.Width())
	assert.Equal(t, 10, buf.Height())
	assert.Equal(t, 0, buf.ToMask().Count())
}

func TestFromMaskRoundTrip(t *testing.T) {
	m := NewMask(7, 5)
	m.Set(0, 0, true)
	m.Set(6, 4, true)
	m.Set(3, 2, true)

	buf := FromMask(m, red)
	assert.Equal(t, red, buf.At(3, 2))
	assert.Equal(t, Transparent, buf.At(1, 1))
	assert.True(t, buf.ToMask().Equal(m))
}

func TestCloneIsIndependent(t *testing.T) {
	buf := New(4, 4)
	buf.Set(1, 1, red)
	clone := buf.Clone()
	require.True(t, clone.Equal(buf))

	buf.Set(2, 2, red)
	assert.False(t, clone.Equal(buf))
	assert.Equal(t, Transparent, clone.At(2, 2))
}

func TestEqualDifferentSizes(t *testing.T) {
	assert.False(t, New(3, 4).Equal(New(4, 3)))
	assert.True(t, New(3, 4).Equal(New(3, 4)))
}

func TestOutOfRangeAccess(t *testing.T) {
	buf := New(2, 2)
	buf.Set(-1, 0, red)
	buf.Set(2, 0, red)
	assert.Equal(t, Transparent, buf.At(-1, 0))
	assert.Equal(t, 0, buf.ToMask().Count())
}

func TestFillCircleReplace(t *testing.T) {
	buf := New(100, 100)
	changed := buf.FillCircle(50, 50, 10, red, Replace, nil)
	assert.Equal(t, image.Rect(45, 45, 55, 55), changed)

	m := buf.ToMask()
	// disk of diameter 10 covers about pi*25 pixels
	assert.InDelta(t, 78, m.Count(), 6)
	assert.True(t, m.Get(50, 50))
	assert.True(t, m.Get(45, 50))
	assert.True(t, m.Get(54, 50))
	assert.False(t, m.Get(44, 50))
	assert.False(t, m.Get(55, 50))
	assert.False(t, m.Get(45, 45), "corners of the box stay empty")
}

func TestFillCircleReplaceDoesNotAccumulate(t *testing.T) {
	buf := New(30, 30)
	buf.FillCircle(15, 15, 8, red, Replace, nil)
	buf.FillCircle(16, 15, 8, red, Replace, nil)
	assert.Equal(t, red, buf.At(15, 15))
}

func TestFillCircleEraseWithTransparent(t *testing.T) {
	m := NewMask(30, 30)
	m.Fill(true)
	buf := FromMask(m, red)

	buf.FillCircle(15, 15, 6, Transparent, Replace, nil)
	assert.Equal(t, Transparent, buf.At(15, 15))
	assert.Equal(t, red, buf.At(0, 0))
}

func TestFillCircleAdditiveAccumulates(t *testing.T) {
	half := Color{R: 255, A: 128}
	buf := New(20, 20)
	buf.FillCircle(10, 10, 4, half, Additive, nil)
	first := buf.At(10, 10).A
	buf.FillCircle(10, 10, 4, half, Additive, nil)
	second := buf.At(10, 10).A

	assert.Equal(t, uint8(128), first)
	assert.Greater(t, second, first)
	assert.Equal(t, uint8(255), buf.At(10, 10).R)
}

func TestFillCircleClip(t *testing.T) {
	ref := NewMask(40, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 20; x++ {
			ref.Set(x, y, true)
		}
	}
	clip := FromMask(ref, Color{G: 255, A: 1})

	buf := New(40, 40)
	buf.FillCircle(20, 20, 12, red, Replace, clip)
	m := buf.ToMask()
	assert.True(t, m.Get(19, 20))
	assert.False(t, m.Get(20, 20))
	assert.False(t, m.Get(24, 20))
}

func TestFillCircleOutsideAndDegenerate(t *testing.T) {
	buf := New(10, 10)
	assert.True(t, buf.FillCircle(-50, -50, 10, red, Replace, nil).Empty())
	assert.True(t, buf.FillCircle(5, 5, 0, red, Replace, nil).Empty())
	assert.Equal(t, 0, buf.ToMask().Count())

	// partially visible dabs are clipped to the buffer
	area := buf.FillCircle(0, 0, 6, red, Replace, nil)
	assert.Equal(t, image.Rect(0, 0, 3, 3), area)
	assert.True(t, buf.ToMask().Get(0, 0))
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.Set(6, 6, red.NRGBA())
	buf := FromImage(src)
	assert.Equal(t, 3, buf.Width())
	assert.Equal(t, 2, buf.Height())
	assert.Equal(t, red, buf.At(1, 1))
}
