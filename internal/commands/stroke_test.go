package commands

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andres-fr/secv-guis/internal/history"
	"github.com/andres-fr/secv-guis/internal/raster"
)

// fakeCanvas stands in for a scene layer
type fakeCanvas struct {
	buf   *raster.Buffer
	shows int
	gone  bool
}

func (c *fakeCanvas) Raster() *raster.Buffer {
	if c.gone {
		return nil
	}
	return c.buf
}

func (c *fakeCanvas) Show(buf *raster.Buffer) bool {
	if c.gone {
		return false
	}
	c.buf = buf
	c.shows++
	return true
}

var pink = raster.Color{R: 219, G: 54, B: 148, A: 150}

// trueBounds returns the smallest rectangle holding every set pixel
func trueBounds(m raster.Mask) image.Rectangle {
	var r image.Rectangle
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Get(x, y) {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestDrawStrokeUndoRedo(t *testing.T) {
	canvas := &fakeCanvas{buf: raster.New(100, 100)}
	log := history.NewLog()

	s := NewDraw(canvas, pink, 10)
	require.NoError(t, s.Action(50, 50))
	assert.True(t, s.Finish(log))
	assert.Equal(t, 1, log.Len())

	disk := canvas.Raster().ToMask()
	assert.Equal(t, image.Rect(45, 45, 55, 55), trueBounds(disk))
	assert.Equal(t, 80, disk.Count())
	assert.True(t, disk.Get(50, 50))
	assert.False(t, disk.Get(45, 45))

	log.Undo()
	assert.Equal(t, 0, canvas.Raster().ToMask().Count())
	log.Redo()
	assert.True(t, canvas.Raster().ToMask().Equal(disk))
}

func TestStrokeDoesNotTouchOriginal(t *testing.T) {
	before := raster.New(20, 20)
	canvas := &fakeCanvas{buf: before}
	s := NewDraw(canvas, pink, 6)
	require.NoError(t, s.Action(10, 10))
	assert.Equal(t, 0, before.ToMask().Count())
	assert.NotSame(t, before, canvas.Raster())
}

func TestManyActionsOneEntry(t *testing.T) {
	canvas := &fakeCanvas{buf: raster.New(200, 50)}
	log := history.NewLog()
	s := NewDraw(canvas, pink, 8)
	for x := 10.0; x < 190; x += 2 {
		require.NoError(t, s.Action(x, 25))
	}
	s.Finish(log)
	assert.Equal(t, 1, log.Len())
}

func TestNoOpStrokeIsDiscarded(t *testing.T) {
	canvas := &fakeCanvas{buf: raster.New(30, 30)}
	log := history.NewLog()

	// erasing an empty layer leaves it byte-identical
	s := NewErase(canvas, 10)
	require.NoError(t, s.Action(15, 15))
	assert.False(t, s.Changed())
	assert.False(t, s.Finish(log))
	assert.Equal(t, 0, log.Len())

	// painting outside of the layer does not change it either
	d := NewDraw(canvas, pink, 4)
	require.NoError(t, d.Action(-100, -100))
	assert.False(t, d.Finish(log))
	assert.Equal(t, 0, log.Len())
}

func TestRepaintingSameColorIsNoOp(t *testing.T) {
	canvas := &fakeCanvas{buf: raster.New(30, 30)}
	log := history.NewLog()
	first := NewDraw(canvas, pink, 10)
	require.NoError(t, first.Action(15, 15))
	first.Finish(log)

	second := NewDraw(canvas, pink, 10)
	require.NoError(t, second.Action(15, 15))
	second.Finish(log)
	assert.Equal(t, 1, log.Len())
}

func TestActionAfterFinish(t *testing.T) {
	canvas := &fakeCanvas{buf: raster.New(10, 10)}
	s := NewDraw(canvas, pink, 2)
	s.Finish(nil)
	assert.True(t, s.Finished())
	assert.ErrorIs(t, s.Action(5, 5), ErrFinished)
}

func TestFinishWithoutLog(t *testing.T) {
	canvas := &fakeCanvas{buf: raster.New(10, 10)}
	s := NewDraw(canvas, pink, 4)
	require.NoError(t, s.Action(5, 5))
	assert.False(t, s.Finish(nil))
	assert.True(t, s.Finished())
}

func TestEraseStroke(t *testing.T) {
	m := raster.NewMask(40, 40)
	m.Fill(true)
	canvas := &fakeCanvas{buf: raster.FromMask(m, pink)}

	s := NewErase(canvas, 10)
	require.NoError(t, s.Action(20, 20))
	assert.Equal(t, raster.Transparent, canvas.Raster().At(20, 20))
	assert.Equal(t, pink, canvas.Raster().At(0, 0))
	assert.Equal(t, "Erase", s.Name())
}

func TestMaskedDrawClipsToReference(t *testing.T) {
	refMask := raster.NewMask(60, 60)
	for y := 0; y < 60; y++ {
		for x := 30; x < 60; x++ {
			refMask.Set(x, y, true)
		}
	}
	ref := &fakeCanvas{buf: raster.FromMask(refMask, raster.Color{G: 214, A: 100})}
	canvas := &fakeCanvas{buf: raster.New(60, 60)}

	s := NewMaskedDraw(canvas, ref, pink, 20)
	require.NoError(t, s.Action(30, 30))
	painted := canvas.Raster().ToMask()
	assert.True(t, painted.Get(31, 30))
	assert.False(t, painted.Get(28, 30))

	// the reference is read live: growing it widens the paintable region
	grown := refMask.Clone()
	grown.Fill(true)
	ref.buf = raster.FromMask(grown, raster.Color{G: 214, A: 100})
	require.NoError(t, s.Action(30, 30))
	assert.True(t, canvas.Raster().ToMask().Get(28, 30))
}

func TestMaskedDrawWithoutReferencePaintsNothing(t *testing.T) {
	ref := &fakeCanvas{buf: raster.New(20, 20), gone: true}
	canvas := &fakeCanvas{buf: raster.New(20, 20)}
	s := NewMaskedDraw(canvas, ref, pink, 6)
	require.NoError(t, s.Action(10, 10))
	assert.False(t, s.Changed())
}

func TestAdditiveMode(t *testing.T) {
	half := raster.Color{R: 255, A: 128}
	canvas := &fakeCanvas{buf: raster.New(20, 20)}
	s := NewDraw(canvas, half, 6, WithCompositionMode(raster.Additive))
	require.NoError(t, s.Action(10, 10))
	require.NoError(t, s.Action(10, 10))
	assert.Greater(t, canvas.Raster().At(10, 10).A, uint8(128))
}

func TestStep(t *testing.T) {
	state := "b"
	step := NewStep("toggle", func() { state = "a" }, func() { state = "b" })
	log := history.NewLog()
	log.Push(step)
	log.Undo()
	assert.Equal(t, "a", state)
	log.Redo()
	assert.Equal(t, "b", state)
	assert.Equal(t, "toggle", step.Name())

	NewStep("noop", nil, nil).Undo()
}
