package eval

import (
	"math"
	"strings"

	"github.com/mvogt/gridcalc/cellval"
)

// Func is a built-in spreadsheet function: already-evaluated, already
// error-checked arguments in, a single result out. Functions never see a
// *cellval.Error argument — evalFunction short-circuits those upstream.
type Func func(args []cellval.Value) cellval.Value

// functions is the registry consulted by evalFunction. It covers the
// aggregate and scalar functions a minimal formula language needs; IF is
// handled separately because it must not evaluate its untaken branch.
var functions = map[string]Func{
	"SUM":     fnSum,
	"AVERAGE": fnAverage,
	"MIN":     fnMin,
	"MAX":     fnMax,
	"COUNT":   fnCount,
	"ABS":     fnAbs,
	"ROUND":   fnRound,
	"CONCAT":  fnConcat,
}

// isEmpty reports whether a holds a blank cell: either Go nil (no value
// installed) or "" (the empty string an unset cell reads as).
func isEmpty(a cellval.Value) bool {
	if a == nil {
		return true
	}
	s, ok := a.(string)
	return ok && s == ""
}

// numericArgs coerces every argument to a number, skipping blank cells, the
// way SUM/AVERAGE ignore blanks in a range. It reports failure if any
// non-empty argument doesn't coerce.
func numericArgs(args []cellval.Value) ([]float64, bool) {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		if isEmpty(a) {
			continue
		}
		f, ok := cellval.ToNumber(a)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func fnSum(args []cellval.Value) cellval.Value {
	nums, ok := numericArgs(args)
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total
}

func fnAverage(args []cellval.Value) cellval.Value {
	nums, ok := numericArgs(args)
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	if len(nums) == 0 {
		return cellval.New(cellval.Div0)
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums))
}

func fnMin(args []cellval.Value) cellval.Value {
	nums, ok := numericArgs(args)
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	if len(nums) == 0 {
		return cellval.New(cellval.ValueErr)
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

func fnMax(args []cellval.Value) cellval.Value {
	nums, ok := numericArgs(args)
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	if len(nums) == 0 {
		return cellval.New(cellval.ValueErr)
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return m
}

// fnCount counts every non-blank argument, regardless of its type.
func fnCount(args []cellval.Value) cellval.Value {
	var n float64
	for _, a := range args {
		if !isEmpty(a) {
			n++
		}
	}
	return n
}

func fnAbs(args []cellval.Value) cellval.Value {
	if len(args) != 1 {
		return cellval.New(cellval.ValueErr)
	}
	f, ok := cellval.ToNumber(args[0])
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	return math.Abs(f)
}

// fnRound accepts one or two arguments, defaulting the digit count to 0.
func fnRound(args []cellval.Value) cellval.Value {
	if len(args) != 1 && len(args) != 2 {
		return cellval.New(cellval.ValueErr)
	}
	f, ok := cellval.ToNumber(args[0])
	if !ok {
		return cellval.New(cellval.ValueErr)
	}
	var digits float64
	if len(args) == 2 {
		digits, ok = cellval.ToNumber(args[1])
		if !ok {
			return cellval.New(cellval.ValueErr)
		}
	}
	scale := math.Pow(10, digits)
	return math.Round(f*scale) / scale
}

func fnConcat(args []cellval.Value) cellval.Value {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(cellval.ToDisplayString(a))
	}
	return b.String()
}
