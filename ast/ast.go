// Package ast defines the formula syntax tree produced by package parser.
// Nodes are inert data — a discriminated union in the style spec.md §9
// calls for — so that package eval can stay a pure function over
// (Node, lookup).
package ast

import "github.com/mvogt/gridcalc/address"

// Op identifies a binary operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

// UnaryOp identifies a unary prefix operator.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
)

// Node is the AST interface every node variant implements. It carries no
// behavior — evaluation lives entirely in package eval.
type Node interface {
	isNode()
}

// Number is a numeric literal.
type Number struct {
	Value float64
}

// String is a string literal.
type String struct {
	Value string
}

// Bool is a TRUE/FALSE literal.
type Bool struct {
	Value bool
}

// CellRef is a reference to a single cell.
type CellRef struct {
	At address.Addr
}

// Range is a reference to a rectangular block of cells.
type Range struct {
	Cells []address.Addr
}

// Unary is a prefix unary operation.
type Unary struct {
	Op    UnaryOp
	Child Node
}

// Binary is an infix binary operation.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

// Function is a call to a named built-in function.
type Function struct {
	Name string
	Args []Node
}

func (Number) isNode()   {}
func (String) isNode()   {}
func (Bool) isNode()     {}
func (CellRef) isNode()  {}
func (Range) isNode()    {}
func (Unary) isNode()    {}
func (Binary) isNode()   {}
func (Function) isNode() {}

// Refs walks node and returns every address it reads, in encounter order,
// deduplicated. This is what the dependency graph extracts to build edges.
func Refs(n Node) []address.Addr {
	var out []address.Addr
	seen := make(map[address.Addr]struct{})
	add := func(a address.Addr) {
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	var walk func(Node)
	walk = func(n Node) {
		switch x := n.(type) {
		case CellRef:
			add(x.At)
		case Range:
			for _, a := range x.Cells {
				add(a)
			}
		case Unary:
			walk(x.Child)
		case Binary:
			walk(x.Left)
			walk(x.Right)
		case Function:
			for _, arg := range x.Args {
				walk(arg)
			}
		}
	}
	walk(n)
	return out
}
