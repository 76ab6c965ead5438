package eval_test

import (
	"testing"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/cellval"
	"github.com/mvogt/gridcalc/eval"
	"github.com/mvogt/gridcalc/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(values map[string]cellval.Value) eval.Lookup {
	return func(a address.Addr) cellval.Value {
		return values[a.String()]
	}
}

func evalFormula(t *testing.T, src string, values map[string]cellval.Value) cellval.Value {
	t.Helper()
	node, err := parser.Parse(src)
	require.NoError(t, err)
	v, err := eval.Eval(node, lookupFrom(values))
	require.NoError(t, err)
	return v
}

func TestEvalArithmetic(t *testing.T) {
	v := evalFormula(t, "=1+2*3", nil)
	assert.Equal(t, float64(7), v)
}

func TestEvalCellReference(t *testing.T) {
	v := evalFormula(t, "=A1+1", map[string]cellval.Value{"A1": float64(4)})
	assert.Equal(t, float64(5), v)
}

func TestEvalDivisionByZero(t *testing.T) {
	v := evalFormula(t, "=1/0", nil)
	e, ok := cellval.AsError(v)
	require.True(t, ok)
	assert.Equal(t, cellval.Div0, e.Code)
}

func TestEvalErrorPropagatesThroughBinary(t *testing.T) {
	values := map[string]cellval.Value{"A1": cellval.New(cellval.Div0)}
	v := evalFormula(t, "=A1+1", values)
	e, ok := cellval.AsError(v)
	require.True(t, ok)
	assert.Equal(t, cellval.Div0, e.Code)
}

func TestEvalSumOverRange(t *testing.T) {
	values := map[string]cellval.Value{"A1": float64(1), "A2": float64(2), "A3": float64(3)}
	v := evalFormula(t, "=SUM(A1:A3)", values)
	assert.Equal(t, float64(6), v)
}

func TestEvalSumSkipsBlankCells(t *testing.T) {
	values := map[string]cellval.Value{"A1": float64(1), "A3": float64(3)}
	v := evalFormula(t, "=SUM(A1:A3)", values)
	assert.Equal(t, float64(4), v)
}

func TestEvalIfDoesNotEvaluateUntakenBranch(t *testing.T) {
	values := map[string]cellval.Value{"A1": cellval.New(cellval.Div0)}
	v := evalFormula(t, "=IF(TRUE,1,A1)", values)
	assert.Equal(t, float64(1), v)
}

func TestEvalIfDefaultsElseToEmptyString(t *testing.T) {
	v := evalFormula(t, "=IF(FALSE,1)", nil)
	assert.Equal(t, "", v)
}

func TestEvalIfPropagatesConditionError(t *testing.T) {
	values := map[string]cellval.Value{"A1": cellval.New(cellval.Div0)}
	v := evalFormula(t, "=IF(A1,1,2)", values)
	e, ok := cellval.AsError(v)
	require.True(t, ok)
	assert.Equal(t, cellval.Div0, e.Code)
}

func TestEvalEqualityHasNoNumericCoercion(t *testing.T) {
	values := map[string]cellval.Value{"A1": "1"}
	v := evalFormula(t, "=A1=1", values)
	assert.Equal(t, false, v)
}

func TestEvalUnknownFunctionIsNameError(t *testing.T) {
	v := evalFormula(t, "=BOGUS(1)", nil)
	e, ok := cellval.AsError(v)
	require.True(t, ok)
	assert.Equal(t, cellval.Name, e.Code)
}

func TestEvalConcat(t *testing.T) {
	v := evalFormula(t, `=CONCAT("a","b",1)`, nil)
	assert.Equal(t, "ab1", v)
}

func TestEvalRound(t *testing.T) {
	v := evalFormula(t, "=ROUND(3.14159,2)", nil)
	assert.Equal(t, 3.14, v)
}

func TestEvalRoundDefaultsDigitsToZero(t *testing.T) {
	v := evalFormula(t, "=ROUND(3.7)", nil)
	assert.Equal(t, float64(4), v)
}

func TestEvalMinMaxOnEmptyRangeIsValueError(t *testing.T) {
	for _, formula := range []string{"=MIN(A1:A3)", "=MAX(A1:A3)"} {
		v := evalFormula(t, formula, nil)
		e, ok := cellval.AsError(v)
		require.True(t, ok, "formula %s", formula)
		assert.Equal(t, cellval.ValueErr, e.Code)
	}
}

func TestEvalCountCountsAnyNonBlankValue(t *testing.T) {
	values := map[string]cellval.Value{"A1": float64(1), "A2": "text", "A3": true}
	v := evalFormula(t, "=COUNT(A1:A3)", values)
	assert.Equal(t, float64(3), v)
}
