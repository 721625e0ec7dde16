package core

import "sync"

// Confirm asks the user a yes/no question and reports the answer through the
// callback. GUI dialogs answer asynchronously.
type Confirm func(answer func(ok bool))

// Tracker remembers whether the annotation state has unsaved edits
type Tracker struct {
	mu        sync.Mutex
	dirty     bool
	onChanged func(dirty bool)
	onSaved   func(saved map[string]string)
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// OnChanged registers a callback fired whenever the dirty flag flips
func (t *Tracker) OnChanged(fn func(dirty bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChanged = fn
}

// OnSaved registers a callback receiving what was written on each save
func (t *Tracker) OnSaved(fn func(saved map[string]string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSaved = fn
}

func (t *Tracker) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// Edit marks the state as changed
func (t *Tracker) Edit() { t.set(true, nil) }

// Save marks the state as saved. saved maps output names to paths.
func (t *Tracker) Save(saved map[string]string) { t.set(false, saved) }

// Reset marks a freshly loaded state
func (t *Tracker) Reset() { t.set(false, nil) }

func (t *Tracker) set(dirty bool, saved map[string]string) {
	t.mu.Lock()
	changed := t.dirty != dirty
	t.dirty = dirty
	onChanged, onSaved := t.onChanged, t.onSaved
	t.mu.Unlock()

	if changed && onChanged != nil {
		onChanged(dirty)
	}
	if saved != nil && onSaved != nil {
		onSaved(saved)
	}
}

// Discard runs proceed when the state may be thrown away: right away when
// nothing is unsaved, otherwise only if confirm answers yes. decline runs
// when the user refuses and may be nil.
func (t *Tracker) Discard(confirm Confirm, proceed, decline func()) {
	if !t.Dirty() {
		proceed()
		return
	}
	if confirm == nil {
		if decline != nil {
			decline()
		}
		return
	}
	confirm(func(ok bool) {
		switch {
		case ok:
			proceed()
		case decline != nil:
			decline()
		}
	})
}
