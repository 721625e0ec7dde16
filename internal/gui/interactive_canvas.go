// Interactive canvas widget for painting masks
package gui

import (
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/core"
	"github.com/andres-fr/secv-guis/internal/interaction"
)

// InteractiveCanvas shows the scene composite and forwards pointer input to
// the session's router
type InteractiveCanvas struct {
	widget.BaseWidget

	session *core.Session
	logger  *logrus.Logger

	currentImage  *canvas.Image
	overlayRaster *canvas.Raster

	hovering        bool
	currentMousePos fyne.Position
	modifier        fyne.KeyModifier

	onEdited      func()
	onBrushChange func(int)
}

// NewInteractiveCanvas creates a new interactive canvas
func NewInteractiveCanvas(session *core.Session, logger *logrus.Logger) *InteractiveCanvas {
	ic := &InteractiveCanvas{
		session: session,
		logger:  logger,
	}
	ic.ExtendBaseWidget(ic)
	return ic
}

// CreateRenderer creates the renderer for the interactive canvas
func (ic *InteractiveCanvas) CreateRenderer() fyne.WidgetRenderer {
	ic.currentImage = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	ic.currentImage.FillMode = canvas.ImageFillContain
	ic.currentImage.ScaleMode = canvas.ImageScalePixels

	ic.overlayRaster = canvas.NewRaster(func(w, h int) image.Image {
		return ic.createOverlay(w, h)
	})

	return &interactiveCanvasRenderer{
		canvas:  ic,
		image:   ic.currentImage,
		overlay: ic.overlayRaster,
	}
}

// SetCallbacks registers the edit and brush size listeners
func (ic *InteractiveCanvas) SetCallbacks(onEdited func(), onBrushChange func(int)) {
	ic.onEdited = onEdited
	ic.onBrushChange = onBrushChange
}

// UpdateImage re-renders the scene
func (ic *InteractiveCanvas) UpdateImage() {
	if ic.currentImage == nil {
		return
	}
	if ic.session.Image().HasImage() {
		ic.currentImage.Image = ic.session.Scene().Composite()
	}
	ic.currentImage.Refresh()
	ic.overlayRaster.Refresh()
}

func (ic *InteractiveCanvas) event(pos fyne.Position, button desktop.MouseButton, mod fyne.KeyModifier) interaction.Event {
	x, y := ic.screenToImageCoords(pos)
	return interaction.Event{X: x, Y: y, Button: button, Modifier: mod}
}

// MouseDown implements desktop.Mouseable
func (ic *InteractiveCanvas) MouseDown(ev *desktop.MouseEvent) {
	if !ic.session.Image().HasImage() {
		return
	}
	ic.modifier = ev.Modifier
	ic.session.Router().PointerDown(ic.event(ev.Position, ev.Button, ev.Modifier))
	ic.edited()
}

// MouseUp implements desktop.Mouseable
func (ic *InteractiveCanvas) MouseUp(ev *desktop.MouseEvent) {
	ic.session.Router().PointerUp(ic.event(ev.Position, ev.Button, ev.Modifier))
	ic.edited()
}

// Dragged paints along the pointer path
func (ic *InteractiveCanvas) Dragged(ev *fyne.DragEvent) {
	ic.currentMousePos = ev.Position
	ic.session.Router().PointerMove(ic.event(ev.Position, desktop.MouseButtonPrimary, ic.modifier))
	ic.edited()
}

// DragEnd closes the stroke when the release happens outside MouseUp
func (ic *InteractiveCanvas) DragEnd() {
	ic.session.Router().PointerUp(interaction.Event{Button: desktop.MouseButtonPrimary})
	ic.edited()
}

// MouseIn implements desktop.Hoverable
func (ic *InteractiveCanvas) MouseIn(ev *desktop.MouseEvent) {
	ic.hovering = true
	ic.MouseMoved(ev)
}

// MouseMoved tracks the brush outline
func (ic *InteractiveCanvas) MouseMoved(ev *desktop.MouseEvent) {
	ic.currentMousePos = ev.Position
	ic.modifier = ev.Modifier
	if ic.overlayRaster != nil {
		ic.overlayRaster.Refresh()
	}
}

// MouseOut implements desktop.Hoverable
func (ic *InteractiveCanvas) MouseOut() {
	ic.hovering = false
	if ic.overlayRaster != nil {
		ic.overlayRaster.Refresh()
	}
}

// Scrolled resizes the brush while Ctrl is held
func (ic *InteractiveCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ic.modifier&fyne.KeyModifierControl == 0 {
		return
	}
	delta := 1
	if ev.Scrolled.DY < 0 {
		delta = -1
	}
	size := ic.session.Router().AdjustBrush(delta)
	ic.logger.WithField("brush", size).Debug("Brush size changed from wheel")
	if ic.onBrushChange != nil {
		ic.onBrushChange(size)
	}
	ic.overlayRaster.Refresh()
}

func (ic *InteractiveCanvas) edited() {
	ic.UpdateImage()
	if ic.onEdited != nil {
		ic.onEdited()
	}
}

// layout returns the scale and offset of the displayed image inside a w x h
// area, following ImageFillContain
func (ic *InteractiveCanvas) layout(w, h float64) (scale, offsetX, offsetY float64) {
	size := ic.session.Image().Size()
	if size.X == 0 || size.Y == 0 {
		return 1, 0, 0
	}
	scale = math.Min(w/float64(size.X), h/float64(size.Y))
	offsetX = (w - float64(size.X)*scale) / 2
	offsetY = (h - float64(size.Y)*scale) / 2
	return scale, offsetX, offsetY
}

// screenToImageCoords converts screen coordinates to image coordinates
func (ic *InteractiveCanvas) screenToImageCoords(pos fyne.Position) (float64, float64) {
	widgetSize := ic.Size()
	scale, offsetX, offsetY := ic.layout(float64(widgetSize.Width), float64(widgetSize.Height))
	return (float64(pos.X) - offsetX) / scale, (float64(pos.Y) - offsetY) / scale
}

// createOverlay draws the brush outline under the pointer
func (ic *InteractiveCanvas) createOverlay(w, h int) image.Image {
	overlay := image.NewRGBA(image.Rect(0, 0, w, h))
	if !ic.hovering || !ic.session.Image().HasImage() {
		return overlay
	}

	// the raster is in device pixels, the widget in logical ones
	widgetSize := ic.Size()
	if widgetSize.Width == 0 {
		return overlay
	}
	pixelScale := float64(w) / float64(widgetSize.Width)
	scale, _, _ := ic.layout(float64(w), float64(h))

	cx := float64(ic.currentMousePos.X) * pixelScale
	cy := float64(ic.currentMousePos.Y) * pixelScale
	r := float64(ic.session.Router().Brush()) * scale / 2
	ic.drawCircle(overlay, cx, cy, r, color.RGBA{A: 200})
	return overlay
}

// drawCircle draws a one pixel circle outline
func (ic *InteractiveCanvas) drawCircle(overlay *image.RGBA, cx, cy, r float64, col color.RGBA) {
	steps := int(math.Max(16, 2*math.Pi*r))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		overlay.Set(int(cx+r*math.Cos(a)), int(cy+r*math.Sin(a)), col)
	}
}

// interactiveCanvasRenderer is the renderer for the interactive canvas
type interactiveCanvasRenderer struct {
	canvas  *InteractiveCanvas
	image   *canvas.Image
	overlay *canvas.Raster
}

func (r *interactiveCanvasRenderer) Layout(size fyne.Size) {
	r.image.Resize(size)
	r.overlay.Resize(size)
}

func (r *interactiveCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *interactiveCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.image, r.overlay}
}

func (r *interactiveCanvasRenderer) Refresh() {
	r.image.Refresh()
	r.overlay.Refresh()
}

func (r *interactiveCanvasRenderer) Destroy() {
}
