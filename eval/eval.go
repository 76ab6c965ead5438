// Package eval evaluates an ast.Node against a cell-lookup function and
// returns the resulting cellval.Value. It is a pure function: given the
// same node and the same lookup answers, it always returns the same
// result, with no cell store or dependency graph threaded through it.
package eval

import (
	"errors"
	"fmt"
	"math"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/ast"
	"github.com/mvogt/gridcalc/cellval"
)

// ErrEval is the sentinel wrapped by evaluation failures that do not map to
// one of the cellval error sentinels (which propagate as values, not Go
// errors — see Eval's doc comment).
var ErrEval = errors.New("eval: error")

// Lookup resolves a cell address to its current value. The engine supplies
// this backed by the live cell store; tests can supply a plain map.
type Lookup func(address.Addr) cellval.Value

// Eval evaluates node using lookup to resolve cell and range references.
// Evaluation failures that the spreadsheet model itself defines (divide by
// zero, a bad coercion, an unknown function) come back as a *cellval.Error
// Value, not a Go error — exactly what a real formula engine displays in
// the cell. Eval's error return is reserved for inputs eval considers a
// programmer bug (a nil node).
func Eval(node ast.Node, lookup Lookup) (cellval.Value, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: nil node", ErrEval)
	}
	return eval(node, lookup), nil
}

func eval(node ast.Node, lookup Lookup) cellval.Value {
	switch n := node.(type) {
	case ast.Number:
		return n.Value
	case ast.String:
		return n.Value
	case ast.Bool:
		return n.Value
	case ast.CellRef:
		return lookup(n.At)
	case ast.Range:
		// A bare range outside a function has no scalar meaning; spreadsheets
		// conventionally take its top-left cell.
		if len(n.Cells) == 0 {
			return cellval.New(cellval.Ref)
		}
		return lookup(n.Cells[0])
	case ast.Unary:
		return evalUnary(n, lookup)
	case ast.Binary:
		return evalBinary(n, lookup)
	case ast.Function:
		return evalFunction(n, lookup)
	}
	return cellval.New(cellval.Generic)
}

func evalUnary(n ast.Unary, lookup Lookup) cellval.Value {
	v := eval(n.Child, lookup)
	if e, ok := cellval.AsError(v); ok {
		return e
	}
	f, ok := cellval.ToNumber(v)
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	if n.Op == ast.UnaryMinus {
		return -f
	}
	return f
}

func evalBinary(n ast.Binary, lookup Lookup) cellval.Value {
	left := eval(n.Left, lookup)
	if e, ok := cellval.AsError(left); ok {
		return e
	}
	right := eval(n.Right, lookup)
	if e, ok := cellval.AsError(right); ok {
		return e
	}

	switch n.Op {
	case ast.OpEq:
		return cellval.Equal(left, right)
	case ast.OpNeq:
		return !cellval.Equal(left, right)
	}

	if isOrderingOp(n.Op) {
		return evalOrdering(n.Op, left, right)
	}

	lf, lok := cellval.ToNumber(left)
	rf, rok := cellval.ToNumber(right)
	if !lok || !rok {
		return cellval.New(cellval.ValueErr)
	}
	switch n.Op {
	case ast.OpAdd:
		return lf + rf
	case ast.OpSub:
		return lf - rf
	case ast.OpMul:
		return lf * rf
	case ast.OpDiv:
		if rf == 0 {
			return cellval.New(cellval.Div0)
		}
		return lf / rf
	case ast.OpPow:
		return math.Pow(lf, rf)
	}
	return cellval.New(cellval.Generic)
}

func isOrderingOp(op ast.Op) bool {
	switch op {
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return true
	}
	return false
}

// evalOrdering compares numbers numerically and strings lexically; a
// type mismatch between operands is a #VALUE! error.
func evalOrdering(op ast.Op, left, right cellval.Value) cellval.Value {
	if lf, lok := left.(float64); lok {
		if rf, rok := right.(float64); rok {
			return compareOrdering(op, lf < rf, lf == rf)
		}
	}
	if ls, lok := left.(string); lok {
		if rs, rok := right.(string); rok {
			return compareOrdering(op, ls < rs, ls == rs)
		}
	}
	return cellval.New(cellval.ValueErr)
}

func compareOrdering(op ast.Op, less, equal bool) cellval.Value {
	switch op {
	case ast.OpLt:
		return less
	case ast.OpLte:
		return less || equal
	case ast.OpGt:
		return !less && !equal
	case ast.OpGte:
		return !less
	}
	return cellval.New(cellval.Generic)
}

func evalFunction(n ast.Function, lookup Lookup) cellval.Value {
	// IF is special: only the condition argument's error propagates
	// unconditionally; the untaken branch is never evaluated.
	if n.Name == "IF" {
		return evalIf(n, lookup)
	}

	fn, ok := functions[n.Name]
	if !ok {
		return cellval.New(cellval.Name)
	}

	// Range arguments flatten into the argument list (SUM(A1:A3,10) sees
	// four values: A1, A2, A3 and 10); every other node contributes one value.
	var args []cellval.Value
	for _, a := range n.Args {
		if rng, isRange := a.(ast.Range); isRange {
			for _, addr := range rng.Cells {
				v := lookup(addr)
				if e, ok := cellval.AsError(v); ok {
					return e
				}
				args = append(args, v)
			}
			continue
		}
		v := eval(a, lookup)
		if e, ok := cellval.AsError(v); ok {
			return e
		}
		args = append(args, v)
	}
	return fn(args)
}

func evalIf(n ast.Function, lookup Lookup) cellval.Value {
	if len(n.Args) < 2 || len(n.Args) > 3 {
		return cellval.New(cellval.ValueErr)
	}
	cond := eval(n.Args[0], lookup)
	if e, ok := cellval.AsError(cond); ok {
		return e
	}
	truthy, ok := cellval.ToNumber(cond)
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	if truthy != 0 {
		return eval(n.Args[1], lookup)
	}
	if len(n.Args) == 3 {
		return eval(n.Args[2], lookup)
	}
	return ""
}
