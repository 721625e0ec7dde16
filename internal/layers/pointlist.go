package layers

import (
	"slices"

	"github.com/andres-fr/secv-guis/internal/commands"
	"github.com/andres-fr/secv-guis/internal/history"
	"github.com/andres-fr/secv-guis/internal/raster"
)

// PointListStyle describes how a point list is drawn
type PointListStyle struct {
	Diameter int
	Fill     raster.Color
	Frame    raster.Color
	Lines    bool
}

// PointList is a scene object collecting clicked points. Every point added
// is kept in an append-only history; the visible points are a subset of it,
// so undo and redo only change membership.
type PointList struct {
	scene *Scene
	style PointListStyle

	all      []Point
	active   []int
	pairs    map[int]int // point -> previous point its segment joins
	dots     map[int]ItemID
	segments map[int]ItemID
	finished bool
}

// NewPointList creates an empty point list drawn on scene
func NewPointList(scene *Scene, style PointListStyle) *PointList {
	return &PointList{
		scene:    scene,
		style:    style,
		pairs:    make(map[int]int),
		dots:     make(map[int]ItemID),
		segments: make(map[int]ItemID),
	}
}

// PointListFactory returns an ObjectAction factory for the given style
func PointListFactory(style PointListStyle) func(*Scene) *PointList {
	return func(s *Scene) *PointList { return NewPointList(s, style) }
}

// Action appends a point at (x, y). With a log, the addition becomes its own
// undoable step.
func (pl *PointList) Action(x, y float64, log *history.Log) error {
	if pl.finished {
		return commands.ErrFinished
	}
	before := slices.Clone(pl.active)

	idx := len(pl.all)
	pl.all = append(pl.all, Point{X: x, Y: y})
	if pl.style.Lines && len(pl.active) > 0 {
		pl.pairs[idx] = pl.active[len(pl.active)-1]
	}
	pl.active = append(pl.active, idx)
	pl.showPoint(idx)

	if log != nil {
		after := slices.Clone(pl.active)
		log.Push(commands.NewStep("Add point",
			func() { pl.setActive(before) },
			func() { pl.setActive(after) }))
	}
	return nil
}

// State returns the visible points in insertion order
func (pl *PointList) State() []Point {
	out := make([]Point, len(pl.active))
	for i, idx := range pl.active {
		out[i] = pl.all[idx]
	}
	return out
}

// Clear hides all points and segments. The point history is kept.
func (pl *PointList) Clear() {
	pl.setActive(nil)
}

// Finish makes the list reject further actions
func (pl *PointList) Finish() { pl.finished = true }

func (pl *PointList) Finished() bool { return pl.finished }

func (pl *PointList) setActive(members []int) {
	for _, idx := range pl.active {
		pl.hidePoint(idx)
	}
	pl.active = slices.Clone(members)
	for _, idx := range pl.active {
		pl.showPoint(idx)
	}
}

// showPoint adds the dot of idx, plus its segment when both ends are visible
func (pl *PointList) showPoint(idx int) {
	p := pl.all[idx]
	pl.dots[idx] = pl.scene.AddItem(Dot{
		Center:   p,
		Diameter: pl.style.Diameter,
		Fill:     pl.style.Fill,
		Frame:    pl.style.Frame,
	})
	prev, ok := pl.pairs[idx]
	if !ok || !slices.Contains(pl.active, prev) {
		return
	}
	pl.segments[idx] = pl.scene.AddItem(Segment{From: pl.all[prev], To: p, Color: pl.style.Frame})
}

func (pl *PointList) hidePoint(idx int) {
	if id, ok := pl.dots[idx]; ok {
		pl.scene.RemoveItem(id)
		delete(pl.dots, idx)
	}
	if id, ok := pl.segments[idx]; ok {
		pl.scene.RemoveItem(id)
		delete(pl.segments, idx)
	}
}
