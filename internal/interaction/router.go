// Pointer event routing to stroke commands and point objects
package interaction

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/commands"
	"github.com/andres-fr/secv-guis/internal/history"
	"github.com/andres-fr/secv-guis/internal/layers"
	"github.com/andres-fr/secv-guis/internal/raster"
)

// Tool is the active brush type
type Tool int

const (
	ToolPainter Tool = iota
	ToolEraser
	ToolMaskedPainter
	ToolPoints
)

func (t Tool) String() string {
	switch t {
	case ToolPainter:
		return "Painter"
	case ToolEraser:
		return "Eraser"
	case ToolMaskedPainter:
		return "Masked painter"
	case ToolPoints:
		return "Point list"
	default:
		return "Unknown"
	}
}

// Target selects the mask layer strokes are applied to
type Target int

const (
	TargetPreannotation Target = iota
	TargetAnnotation
)

func (t Target) String() string {
	if t == TargetPreannotation {
		return "Preannotation"
	}
	return "Annotation"
}

// PointListKind labels point-list objects in the scene registry
const PointListKind = "PointList"

// LayerSource resolves a target to the current layer handle. Handles change
// whenever a layer is replaced, so the router never caches them.
type LayerSource interface {
	Handle(t Target) (layers.Handle, bool)
}

// Event is a pointer event in image coordinates
type Event struct {
	X, Y     float64
	Button   desktop.MouseButton
	Modifier fyne.KeyModifier
}

// Router turns pointer gestures into commands. At most one stroke is open at
// a time, and every gesture yields at most one log entry.
type Router struct {
	scene  *layers.Scene
	log    *history.Log
	source LayerSource
	logger *logrus.Logger

	tool     Tool
	target   Target
	brush    int
	maxBrush int
	points   layers.PointListStyle

	open       *commands.Stroke
	openTarget Target
	openHandle layers.Handle
	pressed    bool

	onEdit func()
}

// NewRouter creates a router painting into the layers of scene
func NewRouter(scene *layers.Scene, log *history.Log, source LayerSource, logger *logrus.Logger) *Router {
	return &Router{
		scene:    scene,
		log:      log,
		source:   source,
		logger:   logger,
		tool:     ToolPainter,
		target:   TargetAnnotation,
		brush:    15,
		maxBrush: 200,
		points: layers.PointListStyle{
			Fill:  raster.Color{A: 100},
			Frame: raster.Color{A: 255},
			Lines: true,
		},
	}
}

// OnEdit registers a callback fired after every effective interaction
func (r *Router) OnEdit(fn func()) { r.onEdit = fn }

func (r *Router) Tool() Tool { return r.tool }

// SetTool switches the brush type, closing any open stroke
func (r *Router) SetTool(t Tool) {
	if t == r.tool {
		return
	}
	r.Finish()
	r.tool = t
	r.logger.WithField("tool", t.String()).Debug("Active tool changed")
}

func (r *Router) Target() Target { return r.target }

// SetTarget switches the painted layer, closing any open stroke
func (r *Router) SetTarget(t Target) {
	if t == r.target {
		return
	}
	r.Finish()
	r.target = t
	r.logger.WithField("target", t.String()).Debug("Paint target changed")
}

// SetPointStyle sets the look of new point lists
func (r *Router) SetPointStyle(style layers.PointListStyle) { r.points = style }

// SetMaxBrush sets the upper brush size bound and clamps the current size
func (r *Router) SetMaxBrush(max int) {
	if max < 1 {
		max = 1
	}
	r.maxBrush = max
	r.SetBrush(r.brush)
}

func (r *Router) Brush() int { return r.brush }

// SetBrush sets the brush diameter clamped to [1, max]
func (r *Router) SetBrush(size int) {
	r.brush = min(max(size, 1), r.maxBrush)
}

// AdjustBrush changes the brush diameter by delta, e.g. on Ctrl+wheel
func (r *Router) AdjustBrush(delta int) int {
	r.SetBrush(r.brush + delta)
	return r.brush
}

// PointerDown starts a gesture. A primary press paints, or adds a point with
// the point tool; holding Ctrl closes the point list after the point.
func (r *Router) PointerDown(ev Event) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	r.pressed = true
	if r.tool == ToolPoints {
		r.addPoint(ev.X, ev.Y, ev.Modifier&fyne.KeyModifierControl != 0)
		return
	}
	r.paint(ev.X, ev.Y)
}

// PointerMove paints while the primary button is held
func (r *Router) PointerMove(ev Event) {
	if !r.pressed || r.tool == ToolPoints {
		return
	}
	r.paint(ev.X, ev.Y)
}

// PointerUp ends the gesture and commits the open stroke
func (r *Router) PointerUp(ev Event) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	r.pressed = false
	r.Finish()
}

// Finish closes the open stroke. It is pushed to the log only if it changed
// its layer.
func (r *Router) Finish() {
	if r.open == nil {
		return
	}
	stroke := r.open
	r.open = nil
	if stroke.Finish(r.log) {
		r.logger.WithFields(logrus.Fields{
			"command": stroke.Name(),
			"target":  r.openTarget.String(),
			"history": r.log.Len(),
		}).Debug("Stroke committed")
	}
}

func (r *Router) paint(x, y float64) {
	handle, ok := r.source.Handle(r.target)
	if !ok {
		return
	}
	var kind commands.Kind
	switch r.tool {
	case ToolEraser:
		kind = commands.KindErase
	case ToolMaskedPainter:
		kind = commands.KindMaskedDraw
	default:
		kind = commands.KindDraw
	}

	stroke, err := r.stroke(kind, handle)
	if err != nil {
		r.logger.WithError(err).Error("Could not start stroke")
		return
	}
	if stroke == nil {
		return
	}
	if err := stroke.Action(x, y); err != nil {
		r.logger.WithError(err).Error("Stroke action failed")
		return
	}
	r.edited()
}

// stroke returns the command a paint action goes to. An open stroke of
// another kind or layer is finished first, an open one of the same kind and
// layer is reused, and otherwise a new one is built.
func (r *Router) stroke(kind commands.Kind, handle layers.Handle) (*commands.Stroke, error) {
	if r.open != nil {
		if r.open.Kind() != kind || r.openTarget != r.target || r.openHandle != handle {
			r.Finish()
		}
	}
	if r.open != nil && !r.open.Finished() {
		return r.open, nil
	}

	canvas := r.scene.Canvas(handle)
	if canvas.Raster() == nil {
		return nil, nil
	}
	var stroke *commands.Stroke
	switch kind {
	case commands.KindErase:
		stroke = commands.NewErase(canvas, r.brush)
	case commands.KindMaskedDraw:
		ref, ok := r.source.Handle(TargetPreannotation)
		if !ok {
			return nil, nil
		}
		c, err := r.scene.LayerColor(handle)
		if err != nil {
			return nil, err
		}
		stroke = commands.NewMaskedDraw(canvas, r.scene.Canvas(ref), c, r.brush)
	default:
		c, err := r.scene.LayerColor(handle)
		if err != nil {
			return nil, err
		}
		stroke = commands.NewDraw(canvas, c, r.brush)
	}
	r.open, r.openTarget, r.openHandle = stroke, r.target, handle
	return stroke, nil
}

func (r *Router) addPoint(x, y float64, closeAfter bool) {
	if r.scene.Size().Eq(image.Point{}) {
		return
	}
	r.Finish()
	style := r.points
	style.Diameter = r.brush
	if err := r.scene.ObjectAction(PointListKind, x, y, layers.PointListFactory(style), r.log); err != nil {
		r.logger.WithError(err).Error("Point action failed")
		return
	}
	if closeAfter {
		r.scene.CloseObjectAction()
	}
	r.edited()
}

func (r *Router) edited() {
	if r.onEdit != nil {
		r.onEdit()
	}
}
