package parser_test

import (
	"testing"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/ast"
	"github.com/mvogt/gridcalc/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequiresLeadingEquals(t *testing.T) {
	_, err := parser.Parse("A1+1")
	assert.ErrorIs(t, err, parser.ErrParse)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	// =1+2*3 should parse as 1+(2*3), not (1+2)*3.
	node, err := parser.Parse("=1+2*3")
	require.NoError(t, err)
	bin, ok := node.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
	assert.Equal(t, ast.Number{Value: 1}, bin.Left)
	rhs, ok := bin.Right.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	// =2^3^2 should parse as 2^(3^2).
	node, err := parser.Parse("=2^3^2")
	require.NoError(t, err)
	bin, ok := node.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpPow, bin.Op)
	assert.Equal(t, ast.Number{Value: 2}, bin.Left)
	rhs, ok := bin.Right.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpPow, rhs.Op)
}

func TestParseUnaryMinusOnCellRef(t *testing.T) {
	node, err := parser.Parse("=-A1")
	require.NoError(t, err)
	u, ok := node.(ast.Unary)
	require.True(t, ok)
	assert.Equal(t, ast.UnaryMinus, u.Op)
	a, err := address.Parse("A1")
	require.NoError(t, err)
	assert.Equal(t, ast.CellRef{At: a}, u.Child)
}

func TestParseFunctionCallWithRangeArg(t *testing.T) {
	node, err := parser.Parse("=SUM(A1:A3,10)")
	require.NoError(t, err)
	fn, ok := node.(ast.Function)
	require.True(t, ok)
	assert.Equal(t, "SUM", fn.Name)
	require.Len(t, fn.Args, 2)
	_, ok = fn.Args[0].(ast.Range)
	assert.True(t, ok)
	assert.Equal(t, ast.Number{Value: 10}, fn.Args[1])
}

func TestParseComparisonOperators(t *testing.T) {
	node, err := parser.Parse("=A1<>B1")
	require.NoError(t, err)
	bin, ok := node.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpNeq, bin.Op)
}

func TestParseBooleanLiterals(t *testing.T) {
	node, err := parser.Parse("=TRUE")
	require.NoError(t, err)
	assert.Equal(t, ast.Bool{Value: true}, node)
}

func TestParseParenthesizedExpr(t *testing.T) {
	node, err := parser.Parse("=(1+2)*3")
	require.NoError(t, err)
	bin, ok := node.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, bin.Op)
	lhs, ok := bin.Left.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, lhs.Op)
}

func TestParseUnknownIdentifierFails(t *testing.T) {
	_, err := parser.Parse("=FOO")
	assert.ErrorIs(t, err, parser.ErrParse)
}

func TestParseTrailingGarbageFails(t *testing.T) {
	_, err := parser.Parse("=1+1)")
	assert.ErrorIs(t, err, parser.ErrParse)
}
