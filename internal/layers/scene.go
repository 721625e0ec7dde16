// Scene of an image with stacked, colored mask layers
package layers

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/andres-fr/secv-guis/internal/commands"
	"github.com/andres-fr/secv-guis/internal/raster"
)

var (
	ErrInvalidMask   = errors.New("mask does not match the image")
	ErrInvalidColor  = errors.New("invalid layer color")
	ErrUnknownHandle = errors.New("unknown layer handle")
	ErrAllocation    = errors.New("layer allocation failed")
)

// Allocator rasterizes a mask into a new layer buffer
type Allocator func(m raster.Mask, c raster.Color) (*raster.Buffer, error)

func defaultAllocator(m raster.Mask, c raster.Color) (*raster.Buffer, error) {
	return raster.FromMask(m, c), nil
}

// NewColor validates integer channels, e.g. from a config file. Every
// channel must fit a byte and alpha must be at least 1.
func NewColor(r, g, b, a int) (raster.Color, error) {
	for _, v := range []int{r, g, b, a} {
		if v < 0 || v > 255 {
			return raster.Color{}, fmt.Errorf("%w: channel %d out of [0, 255]", ErrInvalidColor, v)
		}
	}
	if a < 1 {
		return raster.Color{}, fmt.Errorf("%w: alpha must be at least 1", ErrInvalidColor)
	}
	return raster.Color{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}, nil
}

type layer struct {
	color raster.Color
	buf   *raster.Buffer
}

// Scene owns an image and the mask layers, items and point-list objects
// drawn over it. Layers are addressed by Handle only.
type Scene struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	alloc  Allocator

	image  *raster.Buffer
	layers arena
	stack  *LayerStack

	items     map[ItemID]Item
	itemOrder []ItemID
	nextItem  ItemID

	objects  map[string][]*PointList
	kinds    []string
	open     *PointList
	openKind string
}

// Option configures a scene
type Option func(*Scene)

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Scene) { s.logger = logger }
}

// WithAllocator replaces the layer rasterizer
func WithAllocator(alloc Allocator) Option {
	return func(s *Scene) { s.alloc = alloc }
}

// NewScene creates a scene over img. A nil image gives an empty scene.
func NewScene(img image.Image, opts ...Option) *Scene {
	s := &Scene{
		logger:  logrus.StandardLogger(),
		alloc:   defaultAllocator,
		stack:   NewLayerStack(),
		items:   make(map[ItemID]Item),
		objects: make(map[string][]*PointList),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setImage(img)
	return s
}

func (s *Scene) setImage(img image.Image) {
	if img == nil {
		s.image = raster.New(0, 0)
		return
	}
	s.image = raster.FromImage(img)
}

// Reset drops every layer, item and object and shows img
func (s *Scene) Reset(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers.reset()
	s.stack.Clear()
	s.items = make(map[ItemID]Item)
	s.itemOrder = nil
	s.objects = make(map[string][]*PointList)
	s.kinds = nil
	s.open, s.openKind = nil, ""
	s.setImage(img)
	s.logger.WithFields(logrus.Fields{
		"width":  s.image.Width(),
		"height": s.image.Height(),
	}).Debug("Scene reset")
}

// Size returns the image dimensions
func (s *Scene) Size() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image.Bounds().Size()
}

// Image returns the base image. It must not be modified.
func (s *Scene) Image() *raster.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

// AddLayer rasterizes mask with c and puts it on top of the stack, or
// directly below *below when given. Nothing changes on error.
func (s *Scene) AddLayer(mask raster.Mask, c raster.Color, below *Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLayer(mask, c, below)
}

func (s *Scene) addLayer(mask raster.Mask, c raster.Color, below *Handle) (Handle, error) {
	if mask.Width() != s.image.Width() || mask.Height() != s.image.Height() {
		return Handle{}, fmt.Errorf("%w: mask is %dx%d, image is %dx%d", ErrInvalidMask,
			mask.Width(), mask.Height(), s.image.Width(), s.image.Height())
	}
	if c.A == 0 {
		return Handle{}, fmt.Errorf("%w: alpha must be at least 1", ErrInvalidColor)
	}
	buf, err := s.alloc(mask, c)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrAllocation, err)
	}

	h := s.layers.insert(&layer{color: c, buf: buf})
	if below == nil {
		s.stack.Push(h)
	} else if err := s.stack.InsertBelow(h, *below); err != nil {
		s.layers.release(h)
		return Handle{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"layer":    h.String(),
		"position": s.stack.IndexOf(h),
		"pixels":   mask.Count(),
	}).Debug("Layer added")
	return h, nil
}

// RemoveLayer deletes a layer and returns its color
func (s *Scene) RemoveLayer(h Handle) (raster.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLayer(h)
}

func (s *Scene) removeLayer(h Handle) (raster.Color, error) {
	l, ok := s.layers.get(h)
	if !ok {
		return raster.Color{}, fmt.Errorf("remove %s: %w", h, ErrUnknownHandle)
	}
	s.stack.Remove(h)
	s.layers.release(h)
	s.logger.WithField("layer", h.String()).Debug("Layer removed")
	return l.color, nil
}

// ReplaceLayer swaps old for a layer built from mask at the same stack
// position. A nil color keeps the old color. Readers never observe the
// scene without either of the two layers, and on error old is untouched.
func (s *Scene) ReplaceLayer(old Handle, mask raster.Mask, c *raster.Color) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.layers.get(old)
	if !ok {
		return Handle{}, fmt.Errorf("replace %s: %w", old, ErrUnknownHandle)
	}
	color := l.color
	if c != nil {
		color = *c
	}
	h, err := s.addLayer(mask, color, &old)
	if err != nil {
		return Handle{}, fmt.Errorf("replace %s: %w", old, err)
	}
	if _, err := s.removeLayer(old); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// LayerAsMask reconstructs the boolean mask of a layer
func (s *Scene) LayerAsMask(h Handle) (raster.Mask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers.get(h)
	if !ok {
		return raster.Mask{}, fmt.Errorf("mask of %s: %w", h, ErrUnknownHandle)
	}
	return l.buf.ToMask(), nil
}

// LayerColor returns the color a layer was created with
func (s *Scene) LayerColor(h Handle) (raster.Color, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers.get(h)
	if !ok {
		return raster.Color{}, fmt.Errorf("color of %s: %w", h, ErrUnknownHandle)
	}
	return l.color, nil
}

// LayerRaster returns the displayed raster of a layer. Callers must not
// draw into it.
func (s *Scene) LayerRaster(h Handle) (*raster.Buffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers.get(h)
	if !ok {
		return nil, fmt.Errorf("raster of %s: %w", h, ErrUnknownHandle)
	}
	return l.buf, nil
}

// SetLayerRaster displays buf for the layer. It reports false for stale
// handles and buffers of the wrong size.
func (s *Scene) SetLayerRaster(h Handle, buf *raster.Buffer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers.get(h)
	if !ok || buf == nil || buf.Bounds().Size() != s.image.Bounds().Size() {
		return false
	}
	l.buf = buf
	return true
}

// Layers returns the live handles from bottom to top
func (s *Scene) Layers() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stack.Layers()
}

func (s *Scene) NumLayers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stack.Len()
}

// Canvas exposes one layer to stroke commands
func (s *Scene) Canvas(h Handle) commands.Canvas {
	return layerCanvas{scene: s, handle: h}
}

type layerCanvas struct {
	scene  *Scene
	handle Handle
}

func (c layerCanvas) Raster() *raster.Buffer {
	buf, err := c.scene.LayerRaster(c.handle)
	if err != nil {
		return nil
	}
	return buf
}

func (c layerCanvas) Show(buf *raster.Buffer) bool {
	return c.scene.SetLayerRaster(c.handle, buf)
}

// AddItem adds a primitive above all layers
func (s *Scene) AddItem(it Item) ItemID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItem++
	id := s.nextItem
	s.items[id] = it
	s.itemOrder = append(s.itemOrder, id)
	return id
}

// RemoveItem reports whether the item existed
func (s *Scene) RemoveItem(id ItemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	s.itemOrder = slices.DeleteFunc(s.itemOrder, func(v ItemID) bool { return v == id })
	return true
}

// Items returns the items in paint order
func (s *Scene) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		out = append(out, s.items[id])
	}
	return out
}

// Composite renders the image, the layers bottom to top and the items
func (s *Scene) Composite() *image.NRGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.image.Clone()
	dst := out.Image()
	for _, h := range s.stack.order {
		l, ok := s.layers.get(h)
		if !ok {
			continue
		}
		draw.Draw(dst, dst.Bounds(), l.buf.Image(), image.Point{}, draw.Over)
	}
	if len(s.itemOrder) > 0 {
		s.paintItems(dst)
	}
	return dst
}

func (s *Scene) paintItems(dst *image.NRGBA) {
	dc := gg.NewContext(dst.Bounds().Dx(), dst.Bounds().Dy())
	defer dc.Close()
	for _, id := range s.itemOrder {
		if err := s.items[id].Paint(dc); err != nil {
			s.logger.WithError(err).WithField("item", id).Warn("Failed to paint item")
		}
	}
	draw.Draw(dst, dst.Bounds(), dc.Image(), image.Point{}, draw.Over)
}
