package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerDirtyFlag(t *testing.T) {
	tr := NewTracker()
	var flips []bool
	tr.OnChanged(func(dirty bool) { flips = append(flips, dirty) })

	tr.Edit()
	tr.Edit()
	assert.True(t, tr.Dirty())
	tr.Save(map[string]string{"annotation": "/out/a_annot.png"})
	assert.False(t, tr.Dirty())
	tr.Reset()

	assert.Equal(t, []bool{true, false}, flips)
}

func TestTrackerDiscard(t *testing.T) {
	tests := []struct {
		name      string
		dirty     bool
		answer    *bool
		proceeded bool
		declined  bool
		asked     bool
	}{
		{name: "clean", proceeded: true},
		{name: "dirty accepted", dirty: true, answer: ptr(true), proceeded: true, asked: true},
		{name: "dirty declined", dirty: true, answer: ptr(false), declined: true, asked: true},
		{name: "dirty without dialog", dirty: true, declined: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			if tt.dirty {
				tr.Edit()
			}
			var asked, proceeded, declined bool
			var confirm Confirm
			if tt.answer != nil {
				confirm = func(answer func(bool)) {
					asked = true
					answer(*tt.answer)
				}
			}
			tr.Discard(confirm, func() { proceeded = true }, func() { declined = true })
			assert.Equal(t, tt.asked, asked)
			assert.Equal(t, tt.proceeded, proceeded)
			assert.Equal(t, tt.declined, declined)
		})
	}
}

func ptr[T any](v T) *T { return &v }
