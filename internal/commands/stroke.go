// Composite brush commands: many dabs, one undo entry
package commands

import (
	"errors"

	"github.com/andres-fr/secv-guis/internal/history"
	"github.com/andres-fr/secv-guis/internal/raster"
)

// ErrFinished is returned when a finished command receives another action
var ErrFinished = errors.New("command already finished")

// Canvas gives a command access to the raster shown for one layer. It is a
// reference into the scene, never an owner of the layer.
type Canvas interface {
	// Raster returns the buffer currently displayed for the layer.
	Raster() *raster.Buffer
	// Show displays buf for the layer. It reports false when the layer no
	// longer exists.
	Show(buf *raster.Buffer) bool
}

// Kind identifies a stroke class for routing
type Kind int

const (
	KindDraw Kind = iota
	KindErase
	KindMaskedDraw
)

func (k Kind) String() string {
	switch k {
	case KindDraw:
		return "Draw"
	case KindErase:
		return "Erase"
	case KindMaskedDraw:
		return "Masked draw"
	default:
		return "Unknown"
	}
}

// Stroke is a composite command painting a train of circles into a layer.
// Only the rasters before and after the gesture are kept.
//
//  1. Construct it with the parameters of the whole gesture.
//  2. Call Action for every brush placement.
//  3. Call Finish to freeze it and optionally push it to a log.
type Stroke struct {
	kind     Kind
	canvas   Canvas
	ref      Canvas
	color    raster.Color
	diameter int
	mode     raster.CompositionMode

	original *raster.Buffer
	current  *raster.Buffer
	finished bool
}

// Option customizes a stroke at construction
type Option func(*Stroke)

// WithCompositionMode overrides the default Replace mode
func WithCompositionMode(mode raster.CompositionMode) Option {
	return func(s *Stroke) { s.mode = mode }
}

func newStroke(kind Kind, canvas Canvas, ref Canvas, c raster.Color, diameter int, opts []Option) *Stroke {
	// The displayed raster is never painted in place, so it can serve as
	// the original snapshot directly.
	original := canvas.Raster()
	s := &Stroke{
		kind:     kind,
		canvas:   canvas,
		ref:      ref,
		color:    c,
		diameter: diameter,
		mode:     raster.Replace,
		original: original,
		current:  original.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDraw creates a stroke painting with c. Overlapping dabs replace each
// other instead of accumulating alpha.
func NewDraw(canvas Canvas, c raster.Color, diameter int, opts ...Option) *Stroke {
	return newStroke(KindDraw, canvas, nil, c, diameter, opts)
}

// NewErase creates a stroke punching fully transparent holes
func NewErase(canvas Canvas, diameter int, opts ...Option) *Stroke {
	return newStroke(KindErase, canvas, nil, raster.Transparent, diameter, opts)
}

// NewMaskedDraw creates a draw stroke that only paints where ref is
// currently non-transparent. ref is read live on every action.
func NewMaskedDraw(canvas Canvas, ref Canvas, c raster.Color, diameter int, opts ...Option) *Stroke {
	return newStroke(KindMaskedDraw, canvas, ref, c, diameter, opts)
}

// Name implements history.Command
func (s *Stroke) Name() string { return s.kind.String() }

// Kind returns the stroke class
func (s *Stroke) Kind() Kind { return s.kind }

// Finished reports whether Finish has been called
func (s *Stroke) Finished() bool { return s.finished }

// Diameter returns the brush diameter in pixels
func (s *Stroke) Diameter() int { return s.diameter }

// Action paints one circle centered at (x, y) and displays the result
func (s *Stroke) Action(x, y float64) error {
	if s.finished {
		return ErrFinished
	}
	var clip *raster.Buffer
	if s.ref != nil {
		clip = s.ref.Raster()
		if clip == nil {
			// the reference region is gone, nothing may be painted
			return nil
		}
	}
	s.current.FillCircle(x, y, s.diameter, s.color, s.mode, clip)
	s.canvas.Show(s.current)
	return nil
}

// Changed reports whether the gesture altered any pixel so far
func (s *Stroke) Changed() bool {
	return !s.original.Equal(s.current)
}

// Finish freezes the command. With a log, the command is pushed only if it
// changed the layer; the return value reports whether it was pushed.
func (s *Stroke) Finish(log *history.Log) bool {
	s.finished = true
	if log == nil || !s.Changed() {
		return false
	}
	log.Push(s)
	return true
}

// Undo implements history.Command
func (s *Stroke) Undo() { s.canvas.Show(s.original) }

// Redo implements history.Command
func (s *Stroke) Redo() { s.canvas.Show(s.current) }
