// Annotation session: one image, a preannotation and an annotation mask
package core

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/andres-fr/secv-guis/internal/algorithms"
	"github.com/andres-fr/secv-guis/internal/config"
	"github.com/andres-fr/secv-guis/internal/history"
	"github.com/andres-fr/secv-guis/internal/interaction"
	"github.com/andres-fr/secv-guis/internal/layers"
	"github.com/andres-fr/secv-guis/internal/metrics"
	"github.com/andres-fr/secv-guis/internal/raster"
)

var (
	ErrNoImage         = errors.New("no image loaded")
	ErrNoConfidence    = errors.New("no confidence map loaded")
	ErrShapeMismatch   = errors.New("confidence map does not match the image")
	ErrDiscardDeclined = errors.New("unsaved changes kept")
)

// Output names used in the map returned by Save
const (
	OutputPreannotation = "preannotation"
	OutputAnnotation    = "annotation"
	OutputPoints        = "points"
)

// Loader reads and writes the files of a session
type Loader interface {
	LoadImage(path string) (image.Image, error)
	LoadMask(path string) (raster.Mask, error)
	LoadConfidenceMap(path string, normalize bool) (*mat.Dense, error)
	SaveMask(m raster.Mask, path string, overwrite bool) (string, error)
	SavePoints(states map[string][][]layers.Point, path string, overwrite bool) (string, error)
}

// SaveOptions selects the outputs written by Save
type SaveOptions struct {
	Preannotation bool
	Annotation    bool
	Points        bool
}

// Stats summarizes the masks of the current image
type Stats struct {
	PreannotationCoverage float64
	AnnotationCoverage    float64
	AnnotationRegions     int
	Agreement             map[string]float64
}

// Session binds the scene, the undo log and the interaction router to the
// files of the image being annotated.
type Session struct {
	cfg    config.Config
	loader Loader
	logger *logrus.Logger

	scene   *layers.Scene
	log     *history.Log
	router  *interaction.Router
	tracker *Tracker
	image   *ImageData
	eval    *metrics.Evaluator

	handles map[interaction.Target]layers.Handle
	colors  map[interaction.Target]raster.Color
	keepP   float64
}

// NewSession creates a session with no image loaded
func NewSession(cfg config.Config, loader Loader, logger *logrus.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	annot, _ := cfg.Colors.Annotation.Color()
	pre, _ := cfg.Colors.Preannotation.Color()
	fill, _ := cfg.Colors.PointFill.Color()
	frame, _ := cfg.Colors.PointFrame.Color()

	s := &Session{
		cfg:     cfg,
		loader:  loader,
		logger:  logger,
		scene:   layers.NewScene(nil, layers.WithLogger(logger)),
		log:     history.NewLog(),
		tracker: NewTracker(),
		image:   NewImageData(),
		eval:    metrics.NewEvaluator(),
		handles: make(map[interaction.Target]layers.Handle),
		colors: map[interaction.Target]raster.Color{
			interaction.TargetPreannotation: pre,
			interaction.TargetAnnotation:    annot,
		},
	}
	s.keepP = s.PValueForStep(cfg.Threshold.Steps / 2)

	s.router = interaction.NewRouter(s.scene, s.log, s, logger)
	s.router.SetMaxBrush(cfg.Brush.Max)
	s.router.SetBrush(cfg.Brush.Default)
	s.router.SetPointStyle(layers.PointListStyle{Fill: fill, Frame: frame, Lines: true})
	s.router.OnEdit(s.tracker.Edit)
	return s, nil
}

func (s *Session) Scene() *layers.Scene { return s.scene }
func (s *Session) Log() *history.Log { return s.log }
func (s *Session) Router() *interaction.Router { return s.router }
func (s *Session) Tracker() *Tracker { return s.tracker }
func (s *Session) Image() *ImageData { return s.image }
func (s *Session) Config() config.Config { return s.cfg }
func (s *Session) KeepP() float64 { return s.keepP }

// Handle implements interaction.LayerSource
func (s *Session) Handle(t interaction.Target) (layers.Handle, bool) {
	h, ok := s.handles[t]
	return h, ok
}

// PValueForStep converts a threshold slider position into a keep p-value
func (s *Session) PValueForStep(step int) float64 {
	t := s.cfg.Threshold
	return algorithms.SliderToPValue(step, t.Steps, t.SliderMin, t.SliderMax)
}

// SwitchImage loads path once unsaved edits may be discarded. done receives
// ErrDiscardDeclined when the user keeps the current state.
func (s *Session) SwitchImage(path string, confirm Confirm, done func(error)) {
	s.tracker.Discard(confirm,
		func() { done(s.openImage(path)) },
		func() { done(ErrDiscardDeclined) })
}

func (s *Session) openImage(path string) error {
	img, err := s.loader.LoadImage(path)
	if err != nil {
		return err
	}

	s.router.Finish()
	s.scene.Reset(img)
	s.log.Clear()
	clear(s.handles)

	size := img.Bounds().Size()
	empty := raster.NewMask(size.X, size.Y)
	for _, t := range []interaction.Target{interaction.TargetPreannotation, interaction.TargetAnnotation} {
		h, err := s.scene.AddLayer(empty, s.colors[t], nil)
		if err != nil {
			return fmt.Errorf("failed to create %s layer: %w", t, err)
		}
		s.handles[t] = h
	}
	s.image.Set(path, size)
	s.tracker.Reset()

	s.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    size.X,
		"height":   size.Y,
	}).Info("Image opened")
	return nil
}

// LoadMask replaces the annotation with the mask stored at path
func (s *Session) LoadMask(path string) error {
	if !s.image.HasImage() {
		return ErrNoImage
	}
	m, err := s.loader.LoadMask(path)
	if err != nil {
		return err
	}
	if err := s.replace(interaction.TargetAnnotation, m, nil); err != nil {
		return err
	}
	s.tracker.Edit()
	return nil
}

// LoadPreannotation reads a confidence map and thresholds it into the
// preannotation with the current keep p-value
func (s *Session) LoadPreannotation(path string) error {
	if !s.image.HasImage() {
		return ErrNoImage
	}
	pmap, err := s.loader.LoadConfidenceMap(path, s.cfg.Threshold.Normalize)
	if err != nil {
		return err
	}
	rows, cols := pmap.Dims()
	if size := s.image.Size(); rows != size.Y || cols != size.X {
		return fmt.Errorf("%w: map is %dx%d, image is %dx%d", ErrShapeMismatch, cols, rows, size.X, size.Y)
	}
	s.image.SetConfidence(pmap, path)
	return s.SetThreshold(s.keepP)
}

// ThresholdMask computes the preannotation for keepP without touching the
// scene. It is safe to call from any goroutine.
func (s *Session) ThresholdMask(keepP float64) (raster.Mask, error) {
	pmap := s.image.Confidence()
	if pmap == nil {
		return raster.Mask{}, ErrNoConfidence
	}
	return algorithms.ThresholdMap(pmap, keepP, s.cfg.Threshold.DiscardP)
}

// SetThreshold re-thresholds the confidence map with a new keep p-value.
// Without a map the value is only remembered.
func (s *Session) SetThreshold(keepP float64) error {
	s.keepP = keepP
	if s.image.Confidence() == nil {
		return nil
	}
	m, err := s.ThresholdMask(keepP)
	if err != nil {
		return err
	}
	return s.ApplyPreannotation(keepP, m)
}

// ApplyPreannotation shows m, computed with keepP, as the preannotation
func (s *Session) ApplyPreannotation(keepP float64, m raster.Mask) error {
	s.keepP = keepP
	if err := s.replace(interaction.TargetPreannotation, m, nil); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"keep_p": s.keepP,
		"pixels": m.Count(),
	}).Debug("Preannotation updated")
	s.tracker.Edit()
	return nil
}

// LayerColor returns the configured color of a target
func (s *Session) LayerColor(t interaction.Target) raster.Color {
	return s.colors[t]
}

// SetLayerColor recolors a target, keeping its mask
func (s *Session) SetLayerColor(t interaction.Target, c raster.Color) error {
	if c.A == 0 {
		return fmt.Errorf("%w: alpha must be at least 1", layers.ErrInvalidColor)
	}
	s.colors[t] = c
	h, ok := s.handles[t]
	if !ok {
		return nil
	}
	m, err := s.scene.LayerAsMask(h)
	if err != nil {
		return err
	}
	return s.replace(t, m, &c)
}

func (s *Session) replace(t interaction.Target, m raster.Mask, c *raster.Color) error {
	s.router.Finish()
	old, ok := s.handles[t]
	if !ok {
		return ErrNoImage
	}
	h, err := s.scene.ReplaceLayer(old, m, c)
	if err != nil {
		s.logger.WithError(err).WithField("target", t.String()).Error("Layer replacement failed")
		return err
	}
	s.handles[t] = h
	return nil
}

// Undo reverts the last command
func (s *Session) Undo() bool {
	s.router.Finish()
	if !s.log.Undo() {
		return false
	}
	s.tracker.Edit()
	return true
}

// Redo reapplies the last undone command
func (s *Session) Redo() bool {
	s.router.Finish()
	if !s.log.Redo() {
		return false
	}
	s.tracker.Edit()
	return true
}

// Save writes the selected outputs into dir, named after the image. It
// returns the written paths by output name.
func (s *Session) Save(dir string, opts SaveOptions) (map[string]string, error) {
	if !s.image.HasImage() {
		return nil, ErrNoImage
	}
	s.router.Finish()

	base := s.image.Basename()
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	overwrite := s.cfg.Save.Overwrite
	saved := make(map[string]string)

	masks := []struct {
		enabled bool
		name    string
		target  interaction.Target
		suffix  string
	}{
		{opts.Preannotation, OutputPreannotation, interaction.TargetPreannotation, s.cfg.Save.PreannotationSuffix},
		{opts.Annotation, OutputAnnotation, interaction.TargetAnnotation, s.cfg.Save.AnnotationSuffix},
	}
	for _, out := range masks {
		if !out.enabled {
			continue
		}
		m, err := s.scene.LayerAsMask(s.handles[out.target])
		if err != nil {
			return saved, err
		}
		path, err := s.loader.SaveMask(m, filepath.Join(dir, stem+out.suffix), overwrite)
		if err != nil {
			return saved, fmt.Errorf("failed to save %s: %w", out.name, err)
		}
		saved[out.name] = path
	}
	if states := s.scene.ObjectStates(); opts.Points && len(states) > 0 {
		path, err := s.loader.SavePoints(states, filepath.Join(dir, stem+s.cfg.Save.PointsSuffix), overwrite)
		if err != nil {
			return saved, fmt.Errorf("failed to save %s: %w", OutputPoints, err)
		}
		saved[OutputPoints] = path
	}

	s.tracker.Save(saved)
	s.logger.WithFields(logrus.Fields{
		"image":   base,
		"outputs": len(saved),
	}).Info("Annotations saved")
	return saved, nil
}

// Stats compares the annotation against the preannotation
func (s *Session) Stats() (Stats, error) {
	if !s.image.HasImage() {
		return Stats{}, ErrNoImage
	}
	pre, err := s.scene.LayerAsMask(s.handles[interaction.TargetPreannotation])
	if err != nil {
		return Stats{}, err
	}
	annot, err := s.scene.LayerAsMask(s.handles[interaction.TargetAnnotation])
	if err != nil {
		return Stats{}, err
	}
	agreement, err := s.eval.CalculateAll(pre, annot)
	if err != nil {
		return Stats{}, err
	}
	regions, err := metrics.RegionCount(annot)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		PreannotationCoverage: metrics.Coverage(pre),
		AnnotationCoverage:    metrics.Coverage(annot),
		AnnotationRegions:     regions,
		Agreement:             agreement,
	}, nil
}
