package core

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/driver/desktop"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/andres-fr/secv-guis/internal/config"
	"github.com/andres-fr/secv-guis/internal/interaction"
	"github.com/andres-fr/secv-guis/internal/layers"
	"github.com/andres-fr/secv-guis/internal/raster"
)

// memLoader serves in-memory files
type memLoader struct {
	images     map[string]image.Image
	masks      map[string]raster.Mask
	confidence map[string]*mat.Dense

	savedMasks  map[string]raster.Mask
	savedPoints map[string]map[string][][]layers.Point
}

func newMemLoader() *memLoader {
	return &memLoader{
		images:      make(map[string]image.Image),
		masks:       make(map[string]raster.Mask),
		confidence:  make(map[string]*mat.Dense),
		savedMasks:  make(map[string]raster.Mask),
		savedPoints: make(map[string]map[string][][]layers.Point),
	}
}

var errMissing = errors.New("no such file")

func (l *memLoader) LoadImage(path string) (image.Image, error) {
	if img, ok := l.images[path]; ok {
		return img, nil
	}
	return nil, errMissing
}

func (l *memLoader) LoadMask(path string) (raster.Mask, error) {
	if m, ok := l.masks[path]; ok {
		return m, nil
	}
	return raster.Mask{}, errMissing
}

func (l *memLoader) LoadConfidenceMap(path string, normalize bool) (*mat.Dense, error) {
	if m, ok := l.confidence[path]; ok {
		return m, nil
	}
	return nil, errMissing
}

func (l *memLoader) SaveMask(m raster.Mask, path string, overwrite bool) (string, error) {
	l.savedMasks[path] = m
	return path, nil
}

func (l *memLoader) SavePoints(states map[string][][]layers.Point, path string, overwrite bool) (string, error) {
	l.savedPoints[path] = states
	return path, nil
}

func newTestSession(t *testing.T) (*Session, *memLoader) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	loader := newMemLoader()
	loader.images["/data/crack.jpg"] = image.NewNRGBA(image.Rect(0, 0, 30, 30))
	loader.images["/data/other.jpg"] = image.NewNRGBA(image.Rect(0, 0, 12, 8))
	s, err := NewSession(config.Default(), loader, logger)
	require.NoError(t, err)
	return s, loader
}

func open(t *testing.T, s *Session, path string) {
	t.Helper()
	var got error
	called := false
	s.SwitchImage(path, nil, func(err error) { got, called = err, true })
	require.True(t, called)
	require.NoError(t, got)
}

func paint(s *Session, x, y float64) {
	ev := interaction.Event{X: x, Y: y, Button: desktop.MouseButtonPrimary}
	s.Router().PointerDown(ev)
	s.Router().PointerUp(ev)
}

func layerMask(t *testing.T, s *Session, target interaction.Target) raster.Mask {
	t.Helper()
	h, ok := s.Handle(target)
	require.True(t, ok)
	m, err := s.Scene().LayerAsMask(h)
	require.NoError(t, err)
	return m
}

func TestOpenImage(t *testing.T) {
	s, _ := newTestSession(t)
	open(t, s, "/data/crack.jpg")

	assert.Equal(t, 2, s.Scene().NumLayers())
	pre, _ := s.Handle(interaction.TargetPreannotation)
	annot, _ := s.Handle(interaction.TargetAnnotation)
	assert.Equal(t, []layers.Handle{pre, annot}, s.Scene().Layers())
	assert.Equal(t, 0, layerMask(t, s, interaction.TargetAnnotation).Count())
	assert.Equal(t, "crack.jpg", s.Image().Basename())
	assert.False(t, s.Tracker().Dirty())
}

func TestSwitchImageAsksBeforeDiscarding(t *testing.T) {
	s, _ := newTestSession(t)
	open(t, s, "/data/crack.jpg")
	paint(s, 15, 15)
	require.True(t, s.Tracker().Dirty())
	require.Equal(t, 1, s.Log().Len())

	asked := 0
	var result error
	decline := func(answer func(bool)) { asked++; answer(false) }
	s.SwitchImage("/data/other.jpg", decline, func(err error) { result = err })
	assert.Equal(t, 1, asked)
	assert.ErrorIs(t, result, ErrDiscardDeclined)
	assert.Equal(t, "/data/crack.jpg", s.Image().Path())

	accept := func(answer func(bool)) { asked++; answer(true) }
	s.SwitchImage("/data/other.jpg", accept, func(err error) { result = err })
	assert.Equal(t, 2, asked)
	assert.NoError(t, result)
	assert.Equal(t, image.Pt(12, 8), s.Scene().Size())
	assert.Equal(t, 0, s.Log().Len())
	assert.False(t, s.Tracker().Dirty())
}

func TestSwitchImageFailure(t *testing.T) {
	s, _ := newTestSession(t)
	var result error
	s.SwitchImage("/data/missing.jpg", nil, func(err error) { result = err })
	assert.ErrorIs(t, result, errMissing)
	assert.False(t, s.Image().HasImage())
}

func TestLoadMask(t *testing.T) {
	s, loader := newTestSession(t)
	assert.ErrorIs(t, s.LoadMask("/data/crack_annot.png"), ErrNoImage)

	open(t, s, "/data/crack.jpg")
	paint(s, 5, 5)

	m := raster.NewMask(30, 30)
	m.Set(20, 20, true)
	loader.masks["/data/crack_annot.png"] = m
	require.NoError(t, s.LoadMask("/data/crack_annot.png"))
	assert.True(t, layerMask(t, s, interaction.TargetAnnotation).Equal(m))

	// strokes on the replaced layer can no longer touch the annotation
	s.Undo()
	assert.True(t, layerMask(t, s, interaction.TargetAnnotation).Equal(m))

	loader.masks["/data/small.png"] = raster.NewMask(3, 3)
	assert.ErrorIs(t, s.LoadMask("/data/small.png"), layers.ErrInvalidMask)
}

func hotspotMap(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, 0.5)
		}
	}
	for r := 5; r < 8; r++ {
		for c := 5; c < 8; c++ {
			m.Set(r, c, 50)
		}
	}
	return m
}

func TestLoadPreannotation(t *testing.T) {
	s, loader := newTestSession(t)
	open(t, s, "/data/crack.jpg")
	loader.confidence["/data/crack.npz"] = hotspotMap(30, 30)
	loader.confidence["/data/wrong.npz"] = hotspotMap(10, 30)

	assert.ErrorIs(t, s.LoadPreannotation("/data/wrong.npz"), ErrShapeMismatch)

	require.NoError(t, s.SetThreshold(0.05))
	require.NoError(t, s.LoadPreannotation("/data/crack.npz"))
	pre := layerMask(t, s, interaction.TargetPreannotation)
	assert.True(t, pre.Get(6, 6))
	assert.False(t, pre.Get(20, 20))
	assert.True(t, s.Tracker().Dirty())
	assert.Equal(t, "/data/crack.npz", s.Image().ConfidenceSource())

	expected, err := s.ThresholdMask(0.05)
	require.NoError(t, err)
	assert.True(t, expected.Equal(pre))

	// a p-value out of range is rejected and the layer is kept
	assert.Error(t, s.SetThreshold(0.9))
	assert.True(t, layerMask(t, s, interaction.TargetPreannotation).Equal(pre))
}

func TestThresholdWithoutMap(t *testing.T) {
	s, _ := newTestSession(t)
	open(t, s, "/data/crack.jpg")
	require.NoError(t, s.SetThreshold(0.01))
	assert.Equal(t, 0.01, s.KeepP())
	_, err := s.ThresholdMask(0.01)
	assert.ErrorIs(t, err, ErrNoConfidence)
}

func TestSetLayerColor(t *testing.T) {
	s, _ := newTestSession(t)
	open(t, s, "/data/crack.jpg")
	paint(s, 10, 10)
	before := layerMask(t, s, interaction.TargetAnnotation)

	blue := raster.Color{B: 255, A: 80}
	require.NoError(t, s.SetLayerColor(interaction.TargetAnnotation, blue))
	h, _ := s.Handle(interaction.TargetAnnotation)
	c, err := s.Scene().LayerColor(h)
	require.NoError(t, err)
	assert.Equal(t, blue, c)
	assert.True(t, layerMask(t, s, interaction.TargetAnnotation).Equal(before))

	assert.ErrorIs(t, s.SetLayerColor(interaction.TargetAnnotation, raster.Color{R: 1}), layers.ErrInvalidColor)

	// new strokes use the new color
	paint(s, 25, 25)
	h, _ = s.Handle(interaction.TargetAnnotation)
	r, err := s.Scene().LayerRaster(h)
	require.NoError(t, err)
	assert.Equal(t, blue, r.At(25, 25))
}

func TestUndoRedoMarksEdit(t *testing.T) {
	s, _ := newTestSession(t)
	open(t, s, "/data/crack.jpg")
	assert.False(t, s.Undo())

	paint(s, 10, 10)
	_, err := s.Save(t.TempDir(), SaveOptions{Annotation: true})
	require.NoError(t, err)
	require.False(t, s.Tracker().Dirty())

	assert.True(t, s.Undo())
	assert.True(t, s.Tracker().Dirty())
	assert.Equal(t, 0, layerMask(t, s, interaction.TargetAnnotation).Count())
	assert.True(t, s.Redo())
	assert.Positive(t, layerMask(t, s, interaction.TargetAnnotation).Count())
}

func TestSave(t *testing.T) {
	s, loader := newTestSession(t)
	_, err := s.Save("/out", SaveOptions{Annotation: true})
	assert.ErrorIs(t, err, ErrNoImage)

	open(t, s, "/data/crack.jpg")
	paint(s, 10, 10)
	s.Router().SetTool(interaction.ToolPoints)
	paint(s, 3, 4)

	var notified map[string]string
	s.Tracker().OnSaved(func(saved map[string]string) { notified = saved })

	saved, err := s.Save("/out", SaveOptions{Preannotation: true, Annotation: true, Points: true})
	require.NoError(t, err)
	want := map[string]string{
		OutputPreannotation: filepath.Join("/out", "crack_preannot.png"),
		OutputAnnotation:    filepath.Join("/out", "crack_annot.png"),
		OutputPoints:        filepath.Join("/out", "crack_points.json"),
	}
	assert.Equal(t, want, saved)
	assert.Equal(t, want, notified)
	assert.False(t, s.Tracker().Dirty())

	assert.True(t, loader.savedMasks[want[OutputAnnotation]].Get(10, 10))
	assert.Equal(t, [][]layers.Point{{{X: 3, Y: 4}}}, loader.savedPoints[want[OutputPoints]][interaction.PointListKind])
}

func TestSaveSkipsPointsWithoutObjects(t *testing.T) {
	s, loader := newTestSession(t)
	open(t, s, "/data/crack.jpg")
	paint(s, 10, 10)

	saved, err := s.Save("/out", SaveOptions{Annotation: true, Points: true})
	require.NoError(t, err)
	assert.NotContains(t, saved, OutputPoints)
	assert.Contains(t, saved, OutputAnnotation)
	assert.Empty(t, loader.savedPoints)
}

func TestStats(t *testing.T) {
	s, loader := newTestSession(t)
	open(t, s, "/data/crack.jpg")
	loader.masks["/data/a.png"] = raster.MaskFromBits(30, 30, func() []bool {
		bits := make([]bool, 900)
		for i := 0; i < 90; i++ {
			bits[i] = true
		}
		return bits
	}())
	require.NoError(t, s.LoadMask("/data/a.png"))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, st.AnnotationCoverage, 1e-12)
	assert.Equal(t, 0.0, st.PreannotationCoverage)
	assert.Equal(t, 1, st.AnnotationRegions)
	assert.Equal(t, 0.0, st.Agreement["iou"])
}

func TestPValueForStep(t *testing.T) {
	s, _ := newTestSession(t)
	cfg := config.Default()
	assert.InDelta(t, cfg.Threshold.SliderMin, s.PValueForStep(0), 1e-20)
	assert.InDelta(t, cfg.Threshold.SliderMax, s.PValueForStep(cfg.Threshold.Steps), 1e-20)
}
