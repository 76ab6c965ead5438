// Package undo implements the undo/redo log as a command-pattern sum
// type: one struct per command variant, each able to apply itself to an
// engine.Engine and reverse itself. Two bounded stacks track history.
package undo

import (
	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/engine"
	"github.com/mvogt/gridcalc/sheet"
)

// Command is implemented by every undoable operation. Apply performs the
// forward action and reports whether it succeeded; Reverse undoes it and
// reports whether the revert succeeded, so History can re-push a command
// that failed to undo instead of silently dropping it onto the redo stack.
// Description is shown in an undo/redo menu entry.
type Command interface {
	Apply(e *engine.Engine) bool
	Reverse(e *engine.Engine) bool
	Description() string
}

// cellSnapshot captures one cell's prior contents, used to restore cells a
// structural edit removes.
type cellSnapshot struct {
	At     address.Addr
	Raw    string
	Format sheet.Format
}

func snapshot(e *engine.Engine, a address.Addr) (cellSnapshot, bool) {
	c, ok := e.Sheet().Get(a)
	if !ok {
		return cellSnapshot{}, false
	}
	return cellSnapshot{At: a, Raw: c.Raw, Format: c.Format}, true
}

func restore(e *engine.Engine, s cellSnapshot) {
	e.SetCellFormula(s.At, s.Raw)
	e.Sheet().SetFormat(s.At, s.Format)
}

// SetCell records a single cell's raw text changing, capturing whatever
// was there before (including "nothing") so Reverse can put it back.
type SetCell struct {
	At      address.Addr
	NewRaw  string
	hadOld  bool
	oldSnap cellSnapshot
}

// NewSetCell builds a SetCell command by reading at's current contents out
// of e before the caller applies newRaw.
func NewSetCell(e *engine.Engine, at address.Addr, newRaw string) *SetCell {
	snap, had := snapshot(e, at)
	return &SetCell{At: at, NewRaw: newRaw, hadOld: had, oldSnap: snap}
}

func (c *SetCell) Apply(e *engine.Engine) bool {
	e.SetCellFormula(c.At, c.NewRaw)
	return true
}

func (c *SetCell) Reverse(e *engine.Engine) bool {
	if c.hadOld {
		restore(e, c.oldSnap)
		return true
	}
	e.Sheet().Delete(c.At)
	return true
}

func (c *SetCell) Description() string { return "Set " + c.At.String() }

// InsertRow inserts a blank row at Row.
type InsertRow struct {
	Row int
}

func (c *InsertRow) Apply(e *engine.Engine) bool {
	if c.Row < 0 {
		return false
	}
	e.InsertRow(c.Row)
	return true
}
func (c *InsertRow) Reverse(e *engine.Engine) bool {
	if c.Row < 0 {
		return false
	}
	e.DeleteRow(c.Row)
	return true
}
func (c *InsertRow) Description() string { return "Insert row" }

// DeleteRow deletes Row, remembering every cell on it so Reverse can
// restore them after re-inserting the row.
type DeleteRow struct {
	Row      int
	removed  []cellSnapshot
	captured bool
}

// NewDeleteRow builds a DeleteRow command, capturing Row's current cells.
func NewDeleteRow(e *engine.Engine, row int) *DeleteRow {
	d := &DeleteRow{Row: row}
	for _, a := range e.Sheet().UsedRange() {
		if a.Row != row {
			continue
		}
		if snap, ok := snapshot(e, a); ok {
			d.removed = append(d.removed, snap)
		}
	}
	d.captured = true
	return d
}

func (c *DeleteRow) Apply(e *engine.Engine) bool {
	if c.Row < 0 {
		return false
	}
	e.DeleteRow(c.Row)
	return true
}

func (c *DeleteRow) Reverse(e *engine.Engine) bool {
	e.InsertRow(c.Row)
	for _, snap := range c.removed {
		restore(e, snap)
	}
	return true
}

func (c *DeleteRow) Description() string { return "Delete row" }

// InsertColumn inserts a blank column at Col.
type InsertColumn struct {
	Col int
}

func (c *InsertColumn) Apply(e *engine.Engine) bool {
	if c.Col < 0 {
		return false
	}
	e.InsertColumn(c.Col)
	return true
}
func (c *InsertColumn) Reverse(e *engine.Engine) bool {
	if c.Col < 0 {
		return false
	}
	e.DeleteColumn(c.Col)
	return true
}
func (c *InsertColumn) Description() string { return "Insert column" }

// DeleteColumn deletes Col, remembering every cell on it.
type DeleteColumn struct {
	Col     int
	removed []cellSnapshot
}

// NewDeleteColumn builds a DeleteColumn command, capturing Col's cells.
func NewDeleteColumn(e *engine.Engine, col int) *DeleteColumn {
	d := &DeleteColumn{Col: col}
	for _, a := range e.Sheet().UsedRange() {
		if a.Col != col {
			continue
		}
		if snap, ok := snapshot(e, a); ok {
			d.removed = append(d.removed, snap)
		}
	}
	return d
}

func (c *DeleteColumn) Apply(e *engine.Engine) bool {
	if c.Col < 0 {
		return false
	}
	e.DeleteColumn(c.Col)
	return true
}

func (c *DeleteColumn) Reverse(e *engine.Engine) bool {
	e.InsertColumn(c.Col)
	for _, snap := range c.removed {
		restore(e, snap)
	}
	return true
}

func (c *DeleteColumn) Description() string { return "Delete column" }

// FormatCell records a cell's display format changing.
type FormatCell struct {
	At        address.Addr
	NewFormat sheet.Format
	oldFormat sheet.Format
}

// NewFormatCell builds a FormatCell command, capturing at's current format.
func NewFormatCell(e *engine.Engine, at address.Addr, newFormat sheet.Format) *FormatCell {
	old := sheet.Format{}
	if c, ok := e.Sheet().Get(at); ok {
		old = c.Format
	}
	return &FormatCell{At: at, NewFormat: newFormat, oldFormat: old}
}

func (c *FormatCell) Apply(e *engine.Engine) bool {
	e.Sheet().SetFormat(c.At, c.NewFormat)
	return true
}
func (c *FormatCell) Reverse(e *engine.Engine) bool {
	e.Sheet().SetFormat(c.At, c.oldFormat)
	return true
}
func (c *FormatCell) Description() string { return "Format " + c.At.String() }

// Macro groups several commands into one undo-stack entry, the same way a
// real spreadsheet treats "fill down" or "paste" as a single user-visible
// action. If a child's Apply fails partway through, Macro rolls back every
// child already applied, in reverse order, and reports failure itself.
type Macro struct {
	Commands []Command
	Label    string
}

func (c *Macro) Apply(e *engine.Engine) bool {
	var applied []Command
	for _, cmd := range c.Commands {
		if !cmd.Apply(e) {
			for i := len(applied) - 1; i >= 0; i-- {
				applied[i].Reverse(e)
			}
			return false
		}
		applied = append(applied, cmd)
	}
	return true
}

func (c *Macro) Reverse(e *engine.Engine) bool {
	ok := true
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if !c.Commands[i].Reverse(e) {
			ok = false
		}
	}
	return ok
}

func (c *Macro) Description() string {
	if c.Label != "" {
		return c.Label
	}
	return "Macro"
}
