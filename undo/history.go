package undo

// History pairs undo and redo stacks. Steps recorded while undoing land
// on redo stack and vice versa.
type History struct {
	undo   *Stack
	redo   *Stack
	inUndo bool
	inRedo bool
	notify func(h *History)

	options []Option
}

// HistoryOption provides a way to set options to history.
type HistoryOption func(*History)

// WithChange sets listener called after every change of history.
func WithChange(fn func(h *History)) HistoryOption {
	return func(h *History) {
		h.notify = fn
	}
}

// WithStackOptions sets options applied to both stacks.
func WithStackOptions(options ...Option) HistoryOption {
	return func(h *History) {
		h.options = append(h.options, options...)
	}
}

// NewHistory returns empty history.
func NewHistory(options ...HistoryOption) *History {
	h := History{}
	for _, option := range options {
		option(&h)
	}
	h.undo = New(append(h.options[:len(h.options):len(h.options)], WithNotify(h.undoNotify))...)
	h.redo = New(append(h.options[:len(h.options):len(h.options)], WithNotify(h.redoNotify))...)
	return &h
}

// Stack returns the stack where steps must be recorded at the moment.
func (h *History) Stack() *Stack {
	if h.inUndo {
		return h.redo
	}
	return h.undo
}

// UndoStack returns the undo stack.
func (h *History) UndoStack() *Stack {
	return h.undo
}

// RedoStack returns the redo stack.
func (h *History) RedoStack() *Stack {
	return h.redo
}

// Undo reverts the newest undo group. Inverse steps are recorded as a
// redo group with the same name.
func (h *History) Undo() error {
	if h.inUndo || h.inRedo {
		return ErrGroupOpen
	}
	name, ok := h.undo.Peek()
	if !ok {
		return nil
	}
	if h.undo.IsOpen() {
		return ErrGroupOpen
	}
	h.inUndo = true
	h.redo.Open(name)
	err := h.undo.Undo()
	h.redo.Close()
	h.inUndo = false
	h.changed()
	return err
}

// Redo reapplies the newest redo group. Inverse steps are recorded as an
// undo group with the same name.
func (h *History) Redo() error {
	if h.inUndo || h.inRedo {
		return ErrGroupOpen
	}
	name, ok := h.redo.Peek()
	if !ok {
		return nil
	}
	if h.redo.IsOpen() {
		return ErrGroupOpen
	}
	h.inRedo = true
	h.undo.Open(name)
	err := h.redo.Undo()
	h.undo.Close()
	h.inRedo = false
	h.changed()
	return err
}

// CanUndo returns true if there is a group to undo.
func (h *History) CanUndo() bool {
	return h.undo.Depth() > 0 && !h.undo.IsOpen()
}

// CanRedo returns true if there is a group to redo.
func (h *History) CanRedo() bool {
	return h.redo.Depth() > 0 && !h.redo.IsOpen()
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo.Clear()
	h.redo.Clear()
}

// Dirty returns true if undo stack is dirty.
func (h *History) Dirty() bool {
	return h.undo.Dirty()
}

// CleanDirty marks history clean.
func (h *History) CleanDirty() {
	h.undo.CleanDirty()
	h.redo.CleanDirty()
}

func (h *History) undoNotify(s *Stack, stepAdded bool) {
	// a new user change invalidates redo.
	if stepAdded && !h.inRedo {
		s.ForceDirty()
		h.redo.Clear()
	}
	h.changed()
}

func (h *History) redoNotify(*Stack, bool) {
	h.changed()
}

func (h *History) changed() {
	if h.notify != nil {
		h.notify(h)
	}
}
