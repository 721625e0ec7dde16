// Control panel with tool, brush, threshold, color and save settings
package gui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/core"
	"github.com/andres-fr/secv-guis/internal/interaction"
	"github.com/andres-fr/secv-guis/internal/raster"
)

var toolNames = []interaction.Tool{
	interaction.ToolPainter,
	interaction.ToolEraser,
	interaction.ToolMaskedPainter,
	interaction.ToolPoints,
}

var targetNames = []interaction.Target{
	interaction.TargetAnnotation,
	interaction.TargetPreannotation,
}

type ControlPanel struct {
	window  fyne.Window
	session *core.Session
	preview *core.ThresholdPreview
	logger  *logrus.Logger

	container *fyne.Container

	toolRadio   *widget.RadioGroup
	targetRadio *widget.RadioGroup

	brushSlider *widget.Slider
	brushLabel  *widget.Label

	thresholdSlider *widget.Slider
	thresholdLabel  *widget.Label

	swatches map[interaction.Target]*canvas.Rectangle

	savePreannotation *widget.Check
	saveAnnotation    *widget.Check
	savePoints        *widget.Check

	onEdited func()
	onError  func(string, error)
}

func NewControlPanel(window fyne.Window, session *core.Session, preview *core.ThresholdPreview, logger *logrus.Logger) *ControlPanel {
	panel := &ControlPanel{
		window:   window,
		session:  session,
		preview:  preview,
		logger:   logger,
		swatches: make(map[interaction.Target]*canvas.Rectangle),
	}
	panel.initializeUI()
	return panel
}

func (cp *ControlPanel) initializeUI() {
	router := cp.session.Router()
	cfg := cp.session.Config()

	cp.toolRadio = widget.NewRadioGroup(toolLabels(), func(value string) {
		for _, t := range toolNames {
			if t.String() == value {
				router.SetTool(t)
			}
		}
	})
	cp.toolRadio.SetSelected(router.Tool().String())
	closeBtn := widget.NewButton("Close point list", func() {
		cp.session.Scene().CloseObjectAction()
		cp.logger.Debug("Point list closed")
	})
	toolCard := widget.NewCard("Tool", "", container.NewVBox(cp.toolRadio, closeBtn))

	cp.targetRadio = widget.NewRadioGroup(targetLabels(), func(value string) {
		for _, t := range targetNames {
			if t.String() == value {
				router.SetTarget(t)
			}
		}
	})
	cp.targetRadio.SetSelected(router.Target().String())
	targetCard := widget.NewCard("Paint Target", "", cp.targetRadio)

	cp.brushLabel = widget.NewLabel("")
	cp.brushSlider = widget.NewSlider(1, float64(cfg.Brush.Max))
	cp.brushSlider.Step = 1
	cp.brushSlider.SetValue(float64(router.Brush()))
	cp.brushSlider.OnChanged = func(v float64) {
		router.SetBrush(int(v))
		cp.brushLabel.SetText(fmt.Sprintf("Diameter: %d px", router.Brush()))
	}
	cp.brushLabel.SetText(fmt.Sprintf("Diameter: %d px", router.Brush()))
	brushCard := widget.NewCard("Brush", "", container.NewVBox(cp.brushLabel, cp.brushSlider))

	steps := cfg.Threshold.Steps
	cp.thresholdLabel = widget.NewLabel("")
	cp.thresholdSlider = widget.NewSlider(0, float64(steps))
	cp.thresholdSlider.Step = 1
	cp.thresholdSlider.SetValue(float64(steps / 2))
	cp.setThresholdLabel(cp.session.KeepP())
	cp.thresholdSlider.OnChanged = func(v float64) {
		keepP := cp.session.PValueForStep(int(v))
		cp.setThresholdLabel(keepP)
		if cp.session.Image().Confidence() != nil {
			cp.preview.Request(keepP)
		}
	}
	thresholdCard := widget.NewCard("Preannotation Threshold", "",
		container.NewVBox(cp.thresholdLabel, cp.thresholdSlider))

	colorsCard := widget.NewCard("Colors", "", container.NewVBox(
		cp.colorRow(interaction.TargetAnnotation),
		cp.colorRow(interaction.TargetPreannotation),
	))

	cp.savePreannotation = widget.NewCheck("Preannotation mask", nil)
	cp.saveAnnotation = widget.NewCheck("Annotation mask", nil)
	cp.savePoints = widget.NewCheck("Point lists", nil)
	cp.savePreannotation.SetChecked(true)
	cp.saveAnnotation.SetChecked(true)
	cp.savePoints.SetChecked(true)
	saveCard := widget.NewCard("Save", "", container.NewVBox(
		cp.savePreannotation, cp.saveAnnotation, cp.savePoints,
	))

	content := container.NewVBox(
		toolCard,
		targetCard,
		brushCard,
		thresholdCard,
		colorsCard,
		saveCard,
	)
	cp.container = container.NewBorder(nil, nil, nil, nil, container.NewScroll(content))
}

func (cp *ControlPanel) colorRow(t interaction.Target) fyne.CanvasObject {
	swatch := canvas.NewRectangle(cp.session.LayerColor(t).NRGBA())
	swatch.SetMinSize(fyne.NewSize(24, 24))
	cp.swatches[t] = swatch

	btn := widget.NewButton(t.String(), func() {
		picker := dialog.NewColorPicker(t.String()+" color", "Pick the layer color", func(c color.Color) {
			nc := color.NRGBAModel.Convert(c).(color.NRGBA)
			rc := raster.Color{R: nc.R, G: nc.G, B: nc.B, A: nc.A}
			if err := cp.session.SetLayerColor(t, rc); err != nil {
				cp.showError("Invalid color", err)
				return
			}
			swatch.FillColor = nc
			swatch.Refresh()
			cp.logger.WithFields(logrus.Fields{
				"target": t.String(),
				"color":  fmt.Sprintf("%v", rc),
			}).Info("Layer color changed")
			if cp.onEdited != nil {
				cp.onEdited()
			}
		}, cp.window)
		picker.Advanced = true
		picker.Show()
	})
	return container.NewBorder(nil, nil, swatch, nil, btn)
}

func (cp *ControlPanel) setThresholdLabel(keepP float64) {
	cp.thresholdLabel.SetText(fmt.Sprintf("Keep p-value: %.3g", keepP))
}

// SetCallbacks registers the edit and error listeners
func (cp *ControlPanel) SetCallbacks(onEdited func(), onError func(string, error)) {
	cp.onEdited = onEdited
	cp.onError = onError
}

// SetBrush reflects a brush size changed elsewhere, e.g. from the wheel
func (cp *ControlPanel) SetBrush(size int) {
	cp.brushSlider.SetValue(float64(size))
}

// SaveOptions returns the outputs selected for saving
func (cp *ControlPanel) SaveOptions() core.SaveOptions {
	return core.SaveOptions{
		Preannotation: cp.savePreannotation.Checked,
		Annotation:    cp.saveAnnotation.Checked,
		Points:        cp.savePoints.Checked,
	}
}

func (cp *ControlPanel) showError(title string, err error) {
	if cp.onError != nil {
		cp.onError(title, err)
	}
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func toolLabels() []string {
	out := make([]string, len(toolNames))
	for i, t := range toolNames {
		out[i] = t.String()
	}
	return out
}

func targetLabels() []string {
	out := make([]string, len(targetNames))
	for i, t := range targetNames {
		out[i] = t.String()
	}
	return out
}
