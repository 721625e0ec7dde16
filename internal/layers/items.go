// Vector primitives drawn above the mask layers
package layers

import (
	"encoding/json"
	"fmt"

	"github.com/gogpu/gg"

	"github.com/andres-fr/secv-guis/internal/raster"
)

// Point is a position in image coordinates. It encodes as a JSON pair
// [x, y].
type Point struct {
	X, Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point needs 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// ItemID identifies an item added to a scene
type ItemID uint64

// Item is a primitive painted over the layers in insertion order. Items are
// anti-aliased vector shapes and never become part of a mask.
type Item interface {
	Paint(dc *gg.Context) error
}

// Dot is a filled circle with a one pixel frame
type Dot struct {
	Center   Point
	Diameter int
	Fill     raster.Color
	Frame    raster.Color
}

func (d Dot) Paint(dc *gg.Context) error {
	dc.DrawCircle(d.Center.X, d.Center.Y, float64(d.Diameter)/2)
	dc.SetColor(d.Fill.NRGBA())
	if err := dc.FillPreserve(); err != nil {
		return fmt.Errorf("fill dot: %w", err)
	}
	dc.SetColor(d.Frame.NRGBA())
	dc.SetLineWidth(1)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("frame dot: %w", err)
	}
	return nil
}

// Segment is a straight line between two points
type Segment struct {
	From, To Point
	Color    raster.Color
}

func (s Segment) Paint(dc *gg.Context) error {
	dc.DrawLine(s.From.X, s.From.Y, s.To.X, s.To.Y)
	dc.SetColor(s.Color.NRGBA())
	dc.SetLineWidth(1)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke segment: %w", err)
	}
	return nil
}
