package commands

// Step is a single-shot command built from two closures. It splits a
// composite action into individually undoable parts, e.g.
//
//	log.Push(commands.NewStep("Add point", removeIt, addIt))
type Step struct {
	name string
	undo func()
	redo func()
}

// NewStep creates a step. Either closure may be nil.
func NewStep(name string, undo, redo func()) *Step {
	return &Step{name: name, undo: undo, redo: redo}
}

func (s *Step) Name() string { return s.name }

func (s *Step) Undo() {
	if s.undo != nil {
		s.undo()
	}
}

func (s *Step) Redo() {
	if s.redo != nil {
		s.redo()
	}
}
