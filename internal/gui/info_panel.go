// Info panel with mask statistics and agreement metrics
package gui

import (
	"fmt"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/core"
)

// InfoPanel shows the state of the current image and its masks
type InfoPanel struct {
	session *core.Session
	logger  *logrus.Logger

	container *fyne.Container

	imageLabel   *widget.Label
	historyLabel *widget.Label
	sourceLabel  *widget.Label

	metricsContent *fyne.Container
}

func NewInfoPanel(session *core.Session, logger *logrus.Logger) *InfoPanel {
	panel := &InfoPanel{
		session: session,
		logger:  logger,
	}
	panel.initializeUI()
	return panel
}

func (ip *InfoPanel) initializeUI() {
	ip.imageLabel = widget.NewLabel("No image loaded")
	ip.imageLabel.Wrapping = fyne.TextWrapBreak
	ip.historyLabel = widget.NewLabel("")
	ip.sourceLabel = widget.NewLabel("")
	ip.sourceLabel.Wrapping = fyne.TextWrapBreak
	imageCard := widget.NewCard("Image", "", container.NewVBox(ip.imageLabel, ip.sourceLabel, ip.historyLabel))

	ip.metricsContent = container.NewVBox(
		widget.NewLabel("Statistics appear here once an image is loaded."),
	)
	refreshBtn := widget.NewButton("Update Statistics", ip.UpdateStats)
	metricsCard := widget.NewCard("Mask Statistics", "", container.NewVBox(ip.metricsContent, refreshBtn))

	ip.container = container.NewVBox(imageCard, metricsCard)
}

// Refresh updates the image and history labels
func (ip *InfoPanel) Refresh() {
	img := ip.session.Image()
	if !img.HasImage() {
		ip.imageLabel.SetText("No image loaded")
		ip.sourceLabel.SetText("")
		ip.historyLabel.SetText("")
		return
	}
	size := img.Size()
	ip.imageLabel.SetText(fmt.Sprintf("%s\n%d x %d px", img.Basename(), size.X, size.Y))
	if src := img.ConfidenceSource(); src != "" {
		ip.sourceLabel.SetText(fmt.Sprintf("Confidence map: %s\nKeep p-value: %.3g", src, ip.session.KeepP()))
	} else {
		ip.sourceLabel.SetText("No confidence map")
	}
	log := ip.session.Log()
	ip.historyLabel.SetText(fmt.Sprintf("History: %d undo, %d redo", log.Index(), log.Len()-log.Index()))
}

// UpdateStats recomputes coverage, region and agreement figures
func (ip *InfoPanel) UpdateStats() {
	ip.metricsContent.RemoveAll()
	stats, err := ip.session.Stats()
	if err != nil {
		ip.logger.WithError(err).Debug("No statistics available")
		ip.metricsContent.Add(widget.NewLabel("Statistics appear here once an image is loaded."))
		ip.metricsContent.Refresh()
		return
	}

	ip.metricsContent.Add(widget.NewLabel(fmt.Sprintf("Preannotation coverage: %.2f%%", stats.PreannotationCoverage*100)))
	ip.metricsContent.Add(widget.NewLabel(fmt.Sprintf("Annotation coverage: %.2f%%", stats.AnnotationCoverage*100)))
	ip.metricsContent.Add(widget.NewLabel(fmt.Sprintf("Annotation regions: %d", stats.AnnotationRegions)))
	ip.metricsContent.Add(widget.NewSeparator())

	names := make([]string, 0, len(stats.Agreement))
	for name := range stats.Agreement {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		ip.metricsContent.Add(widget.NewLabel(fmt.Sprintf("%s: %.4f", name, stats.Agreement[name])))
	}
	ip.metricsContent.Refresh()
}

// Clear resets the statistics section
func (ip *InfoPanel) Clear() {
	ip.metricsContent.RemoveAll()
	ip.metricsContent.Add(widget.NewLabel("Statistics appear here once an image is loaded."))
	ip.metricsContent.Refresh()
	ip.Refresh()
}

func (ip *InfoPanel) GetContainer() fyne.CanvasObject {
	return ip.container
}
