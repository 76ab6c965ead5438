package lexer_test

import (
	"testing"

	"github.com/mvogt/gridcalc/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexSimpleArithmetic(t *testing.T) {
	toks, err := lexer.Lex("A1+B2*2")
	require.NoError(t, err)
	assert.Equal(t, []lexer.Kind{
		lexer.CellRef, lexer.Operator, lexer.CellRef, lexer.Operator, lexer.Number, lexer.EOF,
	}, kinds(toks))
}

func TestLexRange(t *testing.T) {
	toks, err := lexer.Lex("SUM(A1:A3)")
	require.NoError(t, err)
	assert.Equal(t, []lexer.Kind{
		lexer.Ident, lexer.LParen, lexer.RangeRef, lexer.RParen, lexer.EOF,
	}, kinds(toks))
	assert.Equal(t, "A1:A3", toks[2].Text)
}

func TestLexString(t *testing.T) {
	toks, err := lexer.Lex(`"hello world"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, lexer.String, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Text)
}

// There is no escape syntax: a doubled quote inside a string literal closes
// the first string and immediately opens a second one, yielding two String
// tokens rather than one token with an embedded quote.
func TestLexDoubledQuoteIsTwoStringTokens(t *testing.T) {
	toks, err := lexer.Lex(`"ab""cd"`)
	require.NoError(t, err)
	require.Len(t, toks, 3) // string, string, eof
	assert.Equal(t, lexer.String, toks[0].Kind)
	assert.Equal(t, "ab", toks[0].Text)
	assert.Equal(t, lexer.String, toks[1].Kind)
	assert.Equal(t, "cd", toks[1].Text)
}

func TestLexComparisonOperators(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want string
	}{
		{"A1<>B1", "<>"},
		{"A1!=B1", "<>"},
		{"A1<=B1", "<="},
		{"A1>=B1", ">="},
		{"A1=B1", "="},
	} {
		toks, err := lexer.Lex(tc.src)
		require.NoError(t, err)
		require.Len(t, toks, 4) // cell, op, cell, eof
		assert.Equal(t, tc.want, toks[1].Text)
	}
}

func TestLexUnclosedString(t *testing.T) {
	_, err := lexer.Lex(`"abc`)
	assert.ErrorIs(t, err, lexer.ErrLex)
}

func TestLexUnbalancedParens(t *testing.T) {
	_, err := lexer.Lex("SUM(A1:A3")
	assert.ErrorIs(t, err, lexer.ErrLex)
}

func TestLexFunctionVsIdentifier(t *testing.T) {
	toks, err := lexer.Lex("FOO")
	require.NoError(t, err)
	assert.Equal(t, lexer.Ident, toks[0].Kind)
	assert.Equal(t, "FOO", toks[0].Text)
}
