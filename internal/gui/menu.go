// Menu handler for file and edit actions
package gui

import (
	"errors"
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/core"
	"github.com/andres-fr/secv-guis/internal/io"
)

const keymapsText = `Left click: paint with the active tool
Ctrl + left click: add the last point and close the point list
Ctrl + wheel: change the brush size
Ctrl+Z / Ctrl+Y: undo / redo
Ctrl+O: open image, Ctrl+S: save
Page Down / Page Up: next / previous image in folder`

// MenuHandler handles menu actions
type MenuHandler struct {
	window  fyne.Window
	session *core.Session
	logger  *logrus.Logger

	// folder browsing
	folder string
	files  []string

	saveOptions func() core.SaveOptions

	onImageLoaded func(string)
	onEdited      func()
	onError       func(string, error)
}

func NewMenuHandler(window fyne.Window, session *core.Session, logger *logrus.Logger) *MenuHandler {
	return &MenuHandler{
		window:  window,
		session: session,
		logger:  logger,
		saveOptions: func() core.SaveOptions {
			return core.SaveOptions{Preannotation: true, Annotation: true, Points: true}
		},
	}
}

// SetCallbacks registers the listeners notified after menu actions
func (mh *MenuHandler) SetCallbacks(onImageLoaded func(string), onEdited func(), onError func(string, error)) {
	mh.onImageLoaded = onImageLoaded
	mh.onEdited = onEdited
	mh.onError = onError
}

// SetSaveOptions sets the provider of the outputs written on save
func (mh *MenuHandler) SetSaveOptions(fn func() core.SaveOptions) {
	mh.saveOptions = fn
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.OpenImage),
		fyne.NewMenuItem("Open Folder...", mh.OpenFolder),
		fyne.NewMenuItem("Next Image", mh.NextImage),
		fyne.NewMenuItem("Previous Image", mh.PreviousImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Mask...", mh.LoadMask),
		fyne.NewMenuItem("Load Preannotation...", mh.LoadPreannotation),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save...", mh.Save),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mh.Undo),
		fyne.NewMenuItem("Redo", mh.Redo),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Keyboard Shortcuts", mh.showKeymaps),
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, editMenu, helpMenu)
}

// RegisterShortcuts binds the keyboard shortcuts to the window canvas
func (mh *MenuHandler) RegisterShortcuts() {
	c := mh.window.Canvas()
	ctrl := fyne.KeyModifierShortcutDefault
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: ctrl}, func(fyne.Shortcut) { mh.Undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: ctrl}, func(fyne.Shortcut) { mh.Redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: ctrl}, func(fyne.Shortcut) { mh.OpenImage() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: ctrl}, func(fyne.Shortcut) { mh.Save() })
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyPageDown:
			mh.NextImage()
		case fyne.KeyPageUp:
			mh.PreviousImage()
		}
	})
}

// Confirm asks before unsaved edits are thrown away
func (mh *MenuHandler) Confirm(answer func(ok bool)) {
	dialog.ShowConfirm("Unsaved Changes",
		"The current annotations have not been saved.\nDiscard them?",
		answer, mh.window)
}

func (mh *MenuHandler) OpenImage() {
	mh.logger.Info("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		mh.switchImage(path)
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(mh.session.Config().Extensions()))
	fileDialog.Show()
}

// OpenFolder lists the images of a folder and opens the first one
func (mh *MenuHandler) OpenFolder() {
	folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			mh.showError("Folder Dialog Error", err)
			return
		}
		if uri == nil {
			return
		}
		files, err := io.ListFiles(uri.Path(), mh.session.Config().Extensions())
		if err != nil {
			mh.showError("Failed to list folder", err)
			return
		}
		mh.logger.WithFields(logrus.Fields{
			"folder": uri.Path(),
			"images": len(files),
		}).Info("Folder opened")
		mh.folder = uri.Path()
		mh.files = files
		if len(files) == 0 {
			dialog.ShowInformation("Empty Folder", "No supported images in "+uri.Path(), mh.window)
			return
		}
		mh.switchImage(files[0])
	}, mh.window)
	folderDialog.Show()
}

// Browsing reports whether a folder with images is open
func (mh *MenuHandler) Browsing() bool { return len(mh.files) > 0 }

// NextImage opens the next image of the browsed folder
func (mh *MenuHandler) NextImage() { mh.step(1) }

// PreviousImage opens the previous image of the browsed folder
func (mh *MenuHandler) PreviousImage() { mh.step(-1) }

func (mh *MenuHandler) step(delta int) {
	if len(mh.files) == 0 {
		return
	}
	next, ok := io.Neighbor(mh.files, mh.session.Image().Path(), delta)
	if !ok {
		return
	}
	mh.switchImage(next)
}

func (mh *MenuHandler) switchImage(path string) {
	mh.session.SwitchImage(path, mh.Confirm, func(err error) {
		switch {
		case errors.Is(err, core.ErrDiscardDeclined):
			mh.logger.WithField("path", path).Debug("Image switch declined")
		case err != nil:
			mh.showError("Failed to open image", err)
		default:
			if mh.onImageLoaded != nil {
				mh.onImageLoaded(path)
			}
		}
	})
}

// LoadMask replaces the annotation with a mask image
func (mh *MenuHandler) LoadMask() {
	mh.openFile("Load Mask", mh.session.Config().Extensions(), func(path string) error {
		return mh.session.LoadMask(path)
	})
}

// LoadPreannotation thresholds a confidence map into the preannotation
func (mh *MenuHandler) LoadPreannotation() {
	mh.openFile("Load Preannotation", []string{".npz"}, func(path string) error {
		return mh.session.LoadPreannotation(path)
	})
}

func (mh *MenuHandler) openFile(title string, exts []string, load func(string) error) {
	if !mh.session.Image().HasImage() {
		mh.showError(title, core.ErrNoImage)
		return
	}
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		if err := load(path); err != nil {
			mh.showError(title, err)
			return
		}
		mh.logger.WithField("path", path).Info(title)
		mh.edited()
	}, mh.window)
	fileDialog.SetFilter(storage.NewExtensionFileFilter(exts))
	fileDialog.Show()
}

// Save writes the selected outputs into a chosen folder
func (mh *MenuHandler) Save() {
	if !mh.session.Image().HasImage() {
		return
	}
	folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			mh.showError("Folder Dialog Error", err)
			return
		}
		if uri == nil {
			return
		}
		saved, err := mh.session.Save(uri.Path(), mh.saveOptions())
		if err != nil {
			mh.showError("Failed to save", err)
			return
		}
		names := ""
		for _, kind := range []string{core.OutputPreannotation, core.OutputAnnotation, core.OutputPoints} {
			if p, ok := saved[kind]; ok {
				names += filepath.Base(p) + "\n"
			}
		}
		dialog.ShowInformation("Saved", fmt.Sprintf("Written to %s:\n%s", uri.Path(), names), mh.window)
	}, mh.window)
	if mh.folder != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(mh.folder)); err == nil {
			folderDialog.SetLocation(lister)
		}
	}
	folderDialog.Show()
}

func (mh *MenuHandler) Undo() {
	if mh.session.Undo() {
		mh.edited()
	}
}

func (mh *MenuHandler) Redo() {
	if mh.session.Redo() {
		mh.edited()
	}
}

func (mh *MenuHandler) edited() {
	if mh.onEdited != nil {
		mh.onEdited()
	}
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	if mh.onError != nil {
		mh.onError(title, err)
		return
	}
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) showKeymaps() {
	dialog.ShowCustom("Keyboard Shortcuts", "Close", widget.NewLabel(keymapsText), mh.window)
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabelWithStyle("SECV Mask Annotator", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Paint annotation masks over images, guided by\nthresholded confidence maps."),
		widget.NewLabel("Masks are saved as PNG, point lists as JSON."),
	)
	dialog.ShowCustom("About", "Close", content, mh.window)
}
