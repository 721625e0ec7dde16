// Top toolbar with file, navigation and history buttons
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type Toolbar struct {
	menu *MenuHandler

	container *fyne.Container

	openBtn    *widget.Button
	folderBtn  *widget.Button
	prevBtn    *widget.Button
	nextBtn    *widget.Button
	maskBtn    *widget.Button
	preannBtn  *widget.Button
	saveBtn    *widget.Button
	undoBtn    *widget.Button
	redoBtn    *widget.Button
	imageLabel *widget.Label
}

func NewToolbar(menu *MenuHandler) *Toolbar {
	toolbar := &Toolbar{menu: menu}
	toolbar.initializeUI()
	return toolbar
}

func (tb *Toolbar) initializeUI() {
	tb.openBtn = widget.NewButtonWithIcon("Open Image", theme.FileImageIcon(), tb.menu.OpenImage)
	tb.openBtn.Importance = widget.HighImportance
	tb.folderBtn = widget.NewButtonWithIcon("Open Folder", theme.FolderOpenIcon(), tb.menu.OpenFolder)
	tb.prevBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), tb.menu.PreviousImage)
	tb.nextBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), tb.menu.NextImage)

	tb.maskBtn = widget.NewButtonWithIcon("Load Mask", theme.UploadIcon(), tb.menu.LoadMask)
	tb.preannBtn = widget.NewButtonWithIcon("Load Preannotation", theme.UploadIcon(), tb.menu.LoadPreannotation)
	tb.saveBtn = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), tb.menu.Save)
	tb.saveBtn.Importance = widget.HighImportance

	tb.undoBtn = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), tb.menu.Undo)
	tb.redoBtn = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), tb.menu.Redo)

	tb.imageLabel = widget.NewLabel("No image")
	tb.imageLabel.Truncation = fyne.TextTruncateEllipsis

	leftSection := container.NewHBox(
		tb.openBtn,
		tb.folderBtn,
		tb.prevBtn,
		tb.nextBtn,
		widget.NewSeparator(),
		tb.maskBtn,
		tb.preannBtn,
		tb.saveBtn,
	)
	rightSection := container.NewHBox(tb.undoBtn, tb.redoBtn)

	tb.container = container.NewBorder(nil, nil, leftSection, rightSection, tb.imageLabel)
	tb.SetImageState(false, "")
}

// SetImageState enables the buttons that need an open image
func (tb *Toolbar) SetImageState(hasImage bool, name string) {
	for _, b := range []*widget.Button{tb.maskBtn, tb.preannBtn, tb.saveBtn, tb.undoBtn, tb.redoBtn} {
		if hasImage {
			b.Enable()
		} else {
			b.Disable()
		}
	}
	if hasImage {
		tb.imageLabel.SetText(name)
	} else {
		tb.imageLabel.SetText("No image")
	}
}

// SetBrowsing enables the folder navigation buttons
func (tb *Toolbar) SetBrowsing(enabled bool) {
	if enabled {
		tb.prevBtn.Enable()
		tb.nextBtn.Enable()
		return
	}
	tb.prevBtn.Disable()
	tb.nextBtn.Disable()
}

func (tb *Toolbar) GetContainer() fyne.CanvasObject {
	return tb.container
}
