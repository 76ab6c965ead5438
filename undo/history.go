package undo

import "github.com/mvogt/gridcalc/engine"

// DefaultCapacity bounds how many commands History keeps before evicting
// the oldest on overflow, matching a spreadsheet's usual 100-step history.
const DefaultCapacity = 100

// History manages the undo and redo stacks. The zero value is not usable;
// use NewHistory.
type History struct {
	capacity int
	undo     []Command
	redo     []Command
}

// NewHistory builds a History bounded at capacity commands. A capacity of
// 0 or less falls back to DefaultCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

// Do applies cmd to e and pushes it onto the undo stack, evicting the
// oldest entry if the stack is at capacity and discarding the redo stack
// (a fresh edit invalidates whatever redo history existed). It reports
// whether cmd applied successfully; a failed command is never pushed.
func (h *History) Do(e *engine.Engine, cmd Command) bool {
	if !cmd.Apply(e) {
		return false
	}
	h.undo = append(h.undo, cmd)
	if len(h.undo) > h.capacity {
		h.undo = h.undo[1:]
	}
	h.redo = nil
	return true
}

// CanUndo reports whether there is a command to undo.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether there is a command to redo.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo reverses the most recently applied command and moves it to the
// redo stack. It reports false if the undo stack is empty or the revert
// itself fails, in which case the command is pushed back onto the undo
// stack unchanged so the log stays consistent.
func (h *History) Undo(e *engine.Engine) bool {
	if !h.CanUndo() {
		return false
	}
	last := len(h.undo) - 1
	cmd := h.undo[last]
	h.undo = h.undo[:last]
	if !cmd.Reverse(e) {
		h.undo = append(h.undo, cmd)
		return false
	}
	h.redo = append(h.redo, cmd)
	return true
}

// Redo re-applies the most recently undone command. It reports false if
// the redo stack is empty or the re-application fails, in which case the
// command is pushed back onto the redo stack unchanged.
func (h *History) Redo(e *engine.Engine) bool {
	if !h.CanRedo() {
		return false
	}
	last := len(h.redo) - 1
	cmd := h.redo[last]
	h.redo = h.redo[:last]
	if !cmd.Apply(e) {
		h.redo = append(h.redo, cmd)
		return false
	}
	h.undo = append(h.undo, cmd)
	return true
}

// UndoDescription names the command Undo would reverse, or "" if none.
func (h *History) UndoDescription() string {
	if !h.CanUndo() {
		return ""
	}
	return h.undo[len(h.undo)-1].Description()
}

// RedoDescription names the command Redo would re-apply, or "" if none.
func (h *History) RedoDescription() string {
	if !h.CanRedo() {
		return ""
	}
	return h.redo[len(h.redo)-1].Description()
}

// Clear discards all undo/redo history.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
