package raster

import "image"

// Mask is a boolean raster stored row-major
type Mask struct {
	width, height int
	bits          []bool
}

// NewMask creates an all-false mask
func NewMask(width, height int) Mask {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return Mask{width: width, height: height, bits: make([]bool, width*height)}
}

// MaskFromBits wraps row-major values. It panics if the slice length does not
// match the dimensions.
func MaskFromBits(width, height int, bits []bool) Mask {
	if len(bits) != width*height {
		panic("raster: mask bits do not match dimensions")
	}
	return Mask{width: width, height: height, bits: bits}
}

func (m Mask) Width() int  { return m.width }
func (m Mask) Height() int { return m.height }

// Size returns the mask dimensions as a point (width, height)
func (m Mask) Size() image.Point { return image.Pt(m.width, m.height) }

// Get returns the value at (x, y); out of range reads are false
func (m Mask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// Set writes the value at (x, y), ignoring out of range coordinates
func (m Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.bits[y*m.width+x] = v
}

// Fill sets every pixel to v
func (m Mask) Fill(v bool) {
	for i := range m.bits {
		m.bits[i] = v
	}
}

// Count returns the number of true pixels
func (m Mask) Count() int {
	n := 0
	for _, v := range m.bits {
		if v {
			n++
		}
	}
	return n
}

// Equal reports whether both masks have the same size and values
func (m Mask) Equal(other Mask) bool {
	if m.width != other.width || m.height != other.height {
		return false
	}
	for i, v := range m.bits {
		if other.bits[i] != v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (m Mask) Clone() Mask {
	bits := make([]bool, len(m.bits))
	copy(bits, m.bits)
	return Mask{width: m.width, height: m.height, bits: bits}
}

// Bits exposes the row-major values. Callers must not resize the slice.
func (m Mask) Bits() []bool { return m.bits }

// Gray renders the mask as an 8-bit image where true is 255
func (m Mask) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for i, v := range m.bits {
		if v {
			img.Pix[i] = 255
		}
	}
	return img
}
