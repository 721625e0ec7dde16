// Layer ordering, bottom to top
package layers

import (
	"fmt"
	"slices"
)

// LayerStack keeps the paint order of the scene's layers. Index 0 is painted
// first.
type LayerStack struct {
	order []Handle
}

func NewLayerStack() *LayerStack {
	return &LayerStack{order: make([]Handle, 0, 4)}
}

// Push places h on top of the stack
func (ls *LayerStack) Push(h Handle) {
	ls.order = append(ls.order, h)
}

// InsertBelow places h directly under ref
func (ls *LayerStack) InsertBelow(h, ref Handle) error {
	i := ls.IndexOf(ref)
	if i < 0 {
		return fmt.Errorf("insert below %s: %w", ref, ErrUnknownHandle)
	}
	ls.order = slices.Insert(ls.order, i, h)
	return nil
}

// Remove drops h from the stack and reports whether it was there
func (ls *LayerStack) Remove(h Handle) bool {
	i := ls.IndexOf(h)
	if i < 0 {
		return false
	}
	ls.order = slices.Delete(ls.order, i, i+1)
	return true
}

// IndexOf returns the paint position of h, or -1
func (ls *LayerStack) IndexOf(h Handle) int {
	return slices.Index(ls.order, h)
}

// Layers returns a copy of the order
func (ls *LayerStack) Layers() []Handle {
	return slices.Clone(ls.order)
}

func (ls *LayerStack) Len() int { return len(ls.order) }

func (ls *LayerStack) Clear() { ls.order = ls.order[:0] }
