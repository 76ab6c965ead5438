// Package engine orchestrates recalculation: it owns the dependency graph
// and an AST cache, and drives package eval over package sheet's store in
// topological order whenever a formula changes. This is the glue — sheet,
// depgraph, parser, and eval all stay ignorant of each other.
package engine

import (
	"golang.org/x/exp/maps"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/ast"
	"github.com/mvogt/gridcalc/cellval"
	"github.com/mvogt/gridcalc/depgraph"
	"github.com/mvogt/gridcalc/eval"
	"github.com/mvogt/gridcalc/parser"
	"github.com/mvogt/gridcalc/sheet"
)

// Engine ties a sheet.Sheet to a dependency graph and drives recalculation.
type Engine struct {
	sheet       *sheet.Sheet
	graph       *depgraph.Graph
	asts        map[address.Addr]ast.Node
	dirty       map[address.Addr]struct{}
	calculating bool
}

// New builds an engine over an existing, possibly non-empty sheet.
func New(sh *sheet.Sheet) *Engine {
	return &Engine{
		sheet: sh,
		graph: depgraph.New(),
		asts:  make(map[address.Addr]ast.Node),
		dirty: make(map[address.Addr]struct{}),
	}
}

// Sheet exposes the underlying store for read access (e.g. rendering).
func (e *Engine) Sheet() *sheet.Sheet { return e.sheet }

// SetCellFormula installs new raw text at a, reparsing it if it is a
// formula, rebuilding its dependency edges, checking for a cycle, and then
// recalculating every cell whose value could have changed. A cycle leaves
// every cell in the cycle holding a #CYCLE! value without clearing the
// graph edges that caused it, matching how a real spreadsheet keeps
// showing the error until the formula is edited again.
func (e *Engine) SetCellFormula(a address.Addr, raw string) {
	e.graph.ClearDependencies(a)
	delete(e.asts, a)
	e.sheet.SetRaw(a, raw)

	if len(raw) > 0 && raw[0] == '=' {
		node, err := parser.Parse(raw)
		if err != nil {
			e.sheet.SetValue(a, cellval.New(cellval.Generic))
			return
		}
		e.asts[a] = node
		for _, ref := range ast.Refs(node) {
			e.graph.AddDependency(a, ref)
		}
		if cycle := e.graph.FindCycle(a); cycle != nil {
			for _, cell := range cycle {
				e.sheet.SetValue(cell, cellval.New(cellval.Cycle))
			}
			return
		}
	}

	e.markDirty(a)
	if !e.calculating {
		e.recalculate()
	}
}

// markDirty flags a and every cell that transitively reads it.
func (e *Engine) markDirty(a address.Addr) {
	e.dirty[a] = struct{}{}
	for _, dep := range e.graph.AllDependents(a) {
		e.dirty[dep] = struct{}{}
	}
}

// recalculate evaluates every dirty cell in dependency order. It is a
// no-op while already running (the orchestration that triggers
// recalculation never calls in while calculating is true, but the guard
// stays as the single source of truth for that invariant) or when nothing
// is dirty.
func (e *Engine) recalculate() {
	if e.calculating || len(e.dirty) == 0 {
		return
	}
	e.calculating = true
	defer func() { e.calculating = false }()

	order, err := e.graph.TopoSort(e.dirty)
	if err != nil {
		// A cycle slipped past SetCellFormula's own check (e.g. introduced by
		// a structural edit elsewhere); mark every cycle found from a dirty
		// cell with #CYCLE!, then recompute the rest of the dirty set around
		// those cycles rather than leaving it stale.
		rest := maps.Clone(e.dirty)
		for cell := range e.dirty {
			if cycle := e.graph.FindCycle(cell); cycle != nil {
				for _, c := range cycle {
					e.sheet.SetValue(c, cellval.New(cellval.Cycle))
					delete(rest, c)
				}
			}
		}
		if order, err = e.graph.TopoSort(rest); err != nil {
			maps.Clear(e.dirty)
			return
		}
	}

	for _, cell := range order {
		e.calculateCell(cell)
	}
	maps.Clear(e.dirty)
}

func (e *Engine) calculateCell(a address.Addr) {
	cell, ok := e.sheet.Get(a)
	if !ok {
		return
	}
	if !cell.IsFormula() {
		e.sheet.SetValue(a, literalValue(cell.Raw))
		return
	}
	node, ok := e.asts[a]
	if !ok {
		e.sheet.SetValue(a, cellval.New(cellval.Generic))
		return
	}
	v, err := eval.Eval(node, e.lookup)
	if err != nil {
		e.sheet.SetValue(a, cellval.New(cellval.Generic))
		return
	}
	e.sheet.SetValue(a, v)
}

// lookup reads a cell's current value for the evaluator. An absent cell, or
// one holding no value yet, reads as the empty string rather than Go nil, so
// =A1="" on an empty A1 compares string to string instead of nil to string.
func (e *Engine) lookup(a address.Addr) cellval.Value {
	cell, ok := e.sheet.Get(a)
	if !ok || cell.Value == nil {
		return ""
	}
	return cell.Value
}

// literalValue coerces a non-formula cell's raw text: numeric-looking text
// becomes a number, everything else is stored as a string. An empty raw
// string becomes nil, the sheet's empty value.
func literalValue(raw string) cellval.Value {
	if raw == "" {
		return nil
	}
	if cellval.LooksNumeric(raw) {
		if f, ok := cellval.ToNumber(raw); ok {
			return f
		}
	}
	return raw
}

// Recalculate forces a full recalculation of every cell currently on the
// sheet, useful after a bulk load from storage where formulas were
// installed without going through SetCellFormula.
func (e *Engine) Recalculate() {
	for _, a := range e.sheet.UsedRange() {
		e.dirty[a] = struct{}{}
	}
	e.recalculate()
}

// InstallFormula is like SetCellFormula but skips the immediate
// recalculation pass, for bulk loads that call Recalculate once at the
// end instead of after every cell.
func (e *Engine) InstallFormula(a address.Addr, raw string) {
	e.graph.ClearDependencies(a)
	delete(e.asts, a)
	e.sheet.SetRaw(a, raw)
	if len(raw) > 0 && raw[0] == '=' {
		node, err := parser.Parse(raw)
		if err != nil {
			e.sheet.SetValue(a, cellval.New(cellval.Generic))
			return
		}
		e.asts[a] = node
		for _, ref := range ast.Refs(node) {
			e.graph.AddDependency(a, ref)
		}
	}
}

// InsertRow, DeleteRow, InsertColumn, and DeleteColumn shift the sheet's
// cells and then rebuild the dependency graph and recalculate from
// scratch. A shift moves a formula's raw text to a new address without
// rewriting the cell references inside it — the same "references don't
// follow their cells" behavior spec'd for structural edits — so the safe
// and simple response is to treat every formula as newly installed and
// let recalculation sort out the result, including any reference that now
// points at an empty cell or a cell that moved out from under it.
func (e *Engine) InsertRow(at int) {
	e.sheet.InsertRow(at)
	e.rebuild()
}

// DeleteRow removes row at and shifts everything below it up.
func (e *Engine) DeleteRow(at int) {
	e.sheet.DeleteRow(at)
	e.rebuild()
}

// InsertColumn shifts every cell at or right of at one column over.
func (e *Engine) InsertColumn(at int) {
	e.sheet.InsertColumn(at)
	e.rebuild()
}

// DeleteColumn removes column at and shifts everything to its right over.
func (e *Engine) DeleteColumn(at int) {
	e.sheet.DeleteColumn(at)
	e.rebuild()
}

// rebuild reparses every remaining cell's formula against its (possibly
// new) address and recalculates the whole sheet.
func (e *Engine) rebuild() {
	e.graph = depgraph.New()
	maps.Clear(e.asts)
	maps.Clear(e.dirty)
	for _, a := range e.sheet.UsedRange() {
		cell, ok := e.sheet.Get(a)
		if !ok {
			continue
		}
		e.InstallFormula(a, cell.Raw)
	}
	e.Recalculate()
}
