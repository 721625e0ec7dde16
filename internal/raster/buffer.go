// Pixel buffers for mask layers with brush blitting
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// CompositionMode defines how brush paint combines with existing pixels
type CompositionMode int

const (
	// Replace overwrites all four channels, so overlapping dabs never
	// accumulate opacity and a transparent color punches holes.
	Replace CompositionMode = iota
	// Additive blends the paint over the destination (source-over).
	Additive
)

func (m CompositionMode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Additive:
		return "additive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Color is a non-premultiplied RGBA tuple
type Color struct {
	R, G, B, A uint8
}

// Transparent is the color used by erasers.
var Transparent = Color{}

// NRGBA converts the color for use with the image packages.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// IsZero reports whether all channels are zero
func (c Color) IsZero() bool {
	return c == Color{}
}

// Buffer is a 2-D RGBA8 pixel buffer. Pixels are stored non-premultiplied,
// which keeps the exact color of a layer recoverable after painting.
type Buffer struct {
	img *image.NRGBA
}

// New creates a fully transparent buffer
func New(width, height int) *Buffer {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Buffer{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// FromImage copies any image into a new buffer anchored at the origin
func FromImage(src image.Image) *Buffer {
	b := src.Bounds()
	buf := New(b.Dx(), b.Dy())
	draw.Draw(buf.img, buf.img.Bounds(), src, b.Min, draw.Src)
	return buf
}

// FromMask rasterizes a boolean mask: true pixels take the given color and
// false pixels stay (0, 0, 0, 0).
func FromMask(m Mask, c Color) *Buffer {
	buf := New(m.Width(), m.Height())
	pix := buf.img.Pix
	for i, v := range m.bits {
		if !v {
			continue
		}
		o := i * 4
		pix[o] = c.R
		pix[o+1] = c.G
		pix[o+2] = c.B
		pix[o+3] = c.A
	}
	return buf
}

// Width returns the buffer width in pixels
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height returns the buffer height in pixels
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Bounds returns the pixel rectangle of the buffer
func (b *Buffer) Bounds() image.Rectangle { return b.img.Rect }

// Image exposes the underlying pixels. It aliases the buffer, so only the
// owner of a buffer may draw into it.
func (b *Buffer) Image() *image.NRGBA { return b.img }

// At returns the pixel at (x, y); out of range reads are transparent
func (b *Buffer) At(x, y int) Color {
	if !(image.Point{X: x, Y: y}).In(b.img.Rect) {
		return Transparent
	}
	o := b.img.PixOffset(x, y)
	p := b.img.Pix[o : o+4 : o+4]
	return Color{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set writes a pixel, ignoring out of range coordinates
func (b *Buffer) Set(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}).In(b.img.Rect) {
		return
	}
	o := b.img.PixOffset(x, y)
	p := b.img.Pix[o : o+4 : o+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Clone returns a deep copy of the buffer
func (b *Buffer) Clone() *Buffer {
	out := New(b.Width(), b.Height())
	draw.Draw(out.img, out.img.Bounds(), b.img, b.img.Rect.Min, draw.Src)
	return out
}

// Equal reports byte-wise equality of size and pixels
func (b *Buffer) Equal(other *Buffer) bool {
	if b == other {
		return true
	}
	if b == nil || other == nil {
		return false
	}
	if b.img.Rect.Size() != other.img.Rect.Size() {
		return false
	}
	return bytes.Equal(b.img.Pix, other.img.Pix)
}

// ToMask marks every pixel with any non-zero channel as true
func (b *Buffer) ToMask() Mask {
	m := NewMask(b.Width(), b.Height())
	pix := b.img.Pix
	for i := range m.bits {
		o := i * 4
		m.bits[i] = pix[o] != 0 || pix[o+1] != 0 || pix[o+2] != 0 || pix[o+3] != 0
	}
	return m
}

// CircleBounds returns the box of a brush dab of the given diameter placed at
// (x, y). It matches the ellipse box used by FillCircle.
func CircleBounds(x, y float64, diameter int) image.Rectangle {
	radius := diameter / 2
	x0 := int(math.Floor(x)) - radius
	y0 := int(math.Floor(y)) - radius
	return image.Rect(x0, y0, x0+diameter, y0+diameter)
}

// FillCircle paints a filled disk inscribed in CircleBounds(x, y, diameter).
// A pixel is covered when its center lies inside the disk. With a non-nil
// clip, pixels whose clip alpha is zero are left untouched. It returns the
// rectangle that may have changed.
func (b *Buffer) FillCircle(x, y float64, diameter int, c Color, mode CompositionMode, clip *Buffer) image.Rectangle {
	if diameter <= 0 {
		return image.Rectangle{}
	}
	box := CircleBounds(x, y, diameter)
	area := box.Intersect(b.img.Rect)
	if area.Empty() {
		return image.Rectangle{}
	}

	r := float64(diameter) / 2
	cx := float64(box.Min.X) + r
	cy := float64(box.Min.Y) + r
	r2 := r * r

	for py := area.Min.Y; py < area.Max.Y; py++ {
		dy := float64(py) + 0.5 - cy
		for px := area.Min.X; px < area.Max.X; px++ {
			dx := float64(px) + 0.5 - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			if clip != nil && clip.At(px, py).A == 0 {
				continue
			}
			o := b.img.PixOffset(px, py)
			dst := b.img.Pix[o : o+4 : o+4]
			switch mode {
			case Additive:
				blendOver(dst, c)
			default:
				dst[0], dst[1], dst[2], dst[3] = c.R, c.G, c.B, c.A
			}
		}
	}
	return area
}

// blendOver composites c over dst in non-premultiplied space
func blendOver(dst []uint8, c Color) {
	sa := float64(c.A) / 255
	da := float64(dst[3]) / 255
	oa := sa + da*(1-sa)
	if oa == 0 {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0
		return
	}
	mix := func(s, d uint8) uint8 {
		v := (float64(s)*sa + float64(d)*da*(1-sa)) / oa
		return uint8(math.Round(v))
	}
	dst[0] = mix(c.R, dst[0])
	dst[1] = mix(c.G, dst[1])
	dst[2] = mix(c.B, dst[2])
	dst[3] = uint8(math.Round(oa * 255))
}
