// Linear undo/redo history of reversible commands
package history

// Command is a reversible edit. Undo and Redo must not fail: anything that
// can fail has to happen before the command is pushed.
type Command interface {
	Name() string
	Undo()
	Redo()
}

// Log is a linear undo stack. Commands before the cursor are applied, the
// ones after it have been undone and can be redone until the next Push.
type Log struct {
	commands []Command
	cursor   int

	onChange func()
}

// NewLog creates an empty log
func NewLog() *Log {
	return &Log{commands: make([]Command, 0)}
}

// OnChange registers a callback fired after every mutation of the log
func (l *Log) OnChange(fn func()) {
	l.onChange = fn
}

// Push appends an already applied command and drops any redo tail
func (l *Log) Push(cmd Command) {
	if cmd == nil {
		return
	}
	for i := l.cursor; i < len(l.commands); i++ {
		l.commands[i] = nil
	}
	l.commands = append(l.commands[:l.cursor], cmd)
	l.cursor = len(l.commands)
	l.notify()
}

// Undo reverts the command right before the cursor. It reports false at the
// bottom of the stack.
func (l *Log) Undo() bool {
	if l.cursor == 0 {
		return false
	}
	l.cursor--
	l.commands[l.cursor].Undo()
	l.notify()
	return true
}

// Redo reapplies the command at the cursor. It reports false at the top.
func (l *Log) Redo() bool {
	if l.cursor >= len(l.commands) {
		return false
	}
	l.commands[l.cursor].Redo()
	l.cursor++
	l.notify()
	return true
}

// Clear drops every command. Used when a new image invalidates the layers
// the commands point to.
func (l *Log) Clear() {
	for i := range l.commands {
		l.commands[i] = nil
	}
	l.commands = l.commands[:0]
	l.cursor = 0
	l.notify()
}

// Len returns the number of stored commands, applied or undone
func (l *Log) Len() int { return len(l.commands) }

// Index returns the cursor position
func (l *Log) Index() int { return l.cursor }

func (l *Log) CanUndo() bool { return l.cursor > 0 }
func (l *Log) CanRedo() bool { return l.cursor < len(l.commands) }

// Names lists the command names from oldest to newest
func (l *Log) Names() []string {
	names := make([]string, len(l.commands))
	for i, cmd := range l.commands {
		names[i] = cmd.Name()
	}
	return names
}

func (l *Log) notify() {
	if l.onChange != nil {
		l.onChange()
	}
}
