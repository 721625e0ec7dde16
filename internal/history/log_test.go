package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// counter is a command that moves a shared value between two states
type counter struct {
	name        string
	value       *int
	before, now int
}

func (c *counter) Name() string { return c.name }
func (c *counter) Undo()        { *c.value = c.before }
func (c *counter) Redo()        { *c.value = c.now }

func apply(l *Log, value *int, name string, next int) {
	cmd := &counter{name: name, value: value, before: *value, now: next}
	*value = next
	l.Push(cmd)
}

func TestUndoRedo(t *testing.T) {
	v := 0
	l := NewLog()
	apply(l, &v, "one", 1)
	apply(l, &v, "two", 2)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2, l.Index())

	assert.True(t, l.Undo())
	assert.Equal(t, 1, v)
	assert.True(t, l.Undo())
	assert.Equal(t, 0, v)
	assert.False(t, l.Undo(), "undo at the bottom is a no-op")
	assert.Equal(t, 0, l.Index())

	assert.True(t, l.Redo())
	assert.True(t, l.Redo())
	assert.Equal(t, 2, v)
	assert.False(t, l.Redo(), "redo at the top is a no-op")
}

func TestPushTruncatesRedoTail(t *testing.T) {
	v := 0
	l := NewLog()
	apply(l, &v, "one", 1)
	apply(l, &v, "two", 2)
	l.Undo()

	apply(l, &v, "three", 3)
	assert.Equal(t, []string{"one", "three"}, l.Names())
	assert.False(t, l.CanRedo())

	l.Undo()
	assert.Equal(t, 1, v)
	l.Undo()
	assert.Equal(t, 0, v)
	assert.False(t, l.CanUndo())
}

func TestPushDoesNotRedo(t *testing.T) {
	v := 5
	l := NewLog()
	l.Push(&counter{name: "x", value: &v, before: 0, now: 9})
	assert.Equal(t, 5, v)
}

func TestClear(t *testing.T) {
	v := 0
	l := NewLog()
	apply(l, &v, "one", 1)
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Undo())
	assert.Equal(t, 1, v)
}

func TestOnChange(t *testing.T) {
	v, calls := 0, 0
	l := NewLog()
	l.OnChange(func() { calls++ })
	apply(l, &v, "one", 1)
	l.Undo()
	l.Undo() // no-op, no notification
	l.Redo()
	l.Clear()
	assert.Equal(t, 4, calls)
}

func TestPushNilIgnored(t *testing.T) {
	l := NewLog()
	l.Push(nil)
	assert.Equal(t, 0, l.Len())
}
