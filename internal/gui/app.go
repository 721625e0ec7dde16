// Main application window wiring the annotation session to the widgets
package gui

import (
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/core"
)

const (
	windowTitle  = "SECV Mask Annotator"
	previewDelay = 150 * time.Millisecond
)

// Application represents the main application
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger

	// Core components
	session *core.Session
	preview *core.ThresholdPreview

	// GUI components
	canvas       *InteractiveCanvas
	toolbar      *Toolbar
	controlPanel *ControlPanel
	infoPanel    *InfoPanel
	menuHandler  *MenuHandler

	// Layout containers
	mainContent *container.Split
	statusCard  *widget.Card
}

func NewApplication(app fyne.App, session *core.Session, logger *logrus.Logger) *Application {
	window := app.NewWindow(windowTitle)
	window.Resize(fyne.NewSize(1600, 1000))
	window.CenterOnScreen()

	appInstance := &Application{
		app:     app,
		window:  window,
		logger:  logger,
		session: session,
	}

	appInstance.initializeCore()
	appInstance.initializeGUI()
	appInstance.setupLayout()
	appInstance.setupCallbacks()

	return appInstance
}

func (a *Application) initializeCore() {
	a.preview = core.NewThresholdPreview(a.session.ThresholdMask, previewDelay, a.logger)
}

func (a *Application) initializeGUI() {
	a.canvas = NewInteractiveCanvas(a.session, a.logger)
	a.menuHandler = NewMenuHandler(a.window, a.session, a.logger)
	a.toolbar = NewToolbar(a.menuHandler)
	a.controlPanel = NewControlPanel(a.window, a.session, a.preview, a.logger)
	a.infoPanel = NewInfoPanel(a.session, a.logger)
}

func (a *Application) setupLayout() {
	a.statusCard = widget.NewCard("Status", "", widget.NewLabel("Open an image to start annotating"))

	centerPanel := container.NewBorder(
		container.NewVBox(a.toolbar.GetContainer(), widget.NewSeparator()),
		a.statusCard,
		nil,
		nil,
		container.NewPadded(a.canvas),
	)

	rightPanel := container.NewScroll(a.infoPanel.GetContainer())
	centerAndRight := container.NewHSplit(centerPanel, rightPanel)
	centerAndRight.SetOffset(0.8)

	a.mainContent = container.NewHSplit(a.controlPanel.GetContainer(), centerAndRight)
	a.mainContent.SetOffset(0.2)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(a.mainContent)
	a.menuHandler.RegisterShortcuts()
	a.toolbar.SetBrowsing(false)
}

func (a *Application) setupCallbacks() {
	a.menuHandler.SetSaveOptions(a.controlPanel.SaveOptions)

	// Threshold preview results arrive off the UI goroutine
	a.preview.SetCallbacks(
		func(res core.PreviewResult) {
			fyne.Do(func() {
				if !a.preview.Current(res) {
					a.logger.WithField("keep_p", res.KeepP).Debug("Discarding stale threshold preview")
					return
				}
				if err := a.session.ApplyPreannotation(res.KeepP, res.Mask); err != nil {
					a.showError("Threshold Error", err)
					return
				}
				a.refreshCanvas()
			})
		},
		func(err error) {
			fyne.Do(func() {
				a.showError("Threshold Error", err)
			})
		},
	)

	a.menuHandler.SetCallbacks(
		a.imageLoaded,
		a.refreshCanvas,
		a.showError,
	)

	a.controlPanel.SetCallbacks(a.refreshCanvas, a.showError)
	a.canvas.SetCallbacks(nil, a.controlPanel.SetBrush)

	a.session.Log().OnChange(a.infoPanel.Refresh)
	a.session.Tracker().OnChanged(a.updateTitle)
	a.session.Tracker().OnSaved(func(saved map[string]string) {
		for kind, path := range saved {
			a.logger.WithFields(logrus.Fields{
				"output": kind,
				"path":   path,
			}).Info("Output saved")
		}
		a.updateStatusMessage(fmt.Sprintf("Saved %d file(s)", len(saved)))
	})
}

// updateTitle shows the image name and marks unsaved edits
func (a *Application) updateTitle(dirty bool) {
	title := windowTitle
	if name := a.session.Image().Basename(); name != "" {
		title = fmt.Sprintf("%s - %s", windowTitle, name)
	}
	if dirty {
		title += " *"
	}
	a.window.SetTitle(title)
}

func (a *Application) imageLoaded(path string) {
	a.preview.Stop()
	a.canvas.UpdateImage()
	a.toolbar.SetImageState(true, filepath.Base(path))
	a.toolbar.SetBrowsing(a.menuHandler.Browsing())
	a.infoPanel.Clear()
	a.updateTitle(false)
	a.updateStatusMessage(fmt.Sprintf("Loaded: %s", path))
}

func (a *Application) refreshCanvas() {
	a.canvas.UpdateImage()
	a.infoPanel.Refresh()
}

func (a *Application) updateStatusMessage(message string) {
	if a.statusCard != nil {
		a.statusCard.SetContent(widget.NewLabel(message))
	}
}

// LoadImageFromPath opens an image given on the command line
func (a *Application) LoadImageFromPath(path string) {
	a.session.SwitchImage(path, nil, func(err error) {
		if err != nil {
			a.showError("Failed to open image", err)
			return
		}
		a.imageLoaded(path)
	})
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.session.Tracker().Discard(a.menuHandler.Confirm, func() {
			a.cleanup()
			a.app.Quit()
		}, nil)
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	a.preview.Stop()
	a.session.Router().Finish()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}
