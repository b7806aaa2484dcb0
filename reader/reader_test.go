package reader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carp-lang/carp/lexer"
	"github.com/carp-lang/carp/reader"
)

func symbols(texts ...string) []lexer.Symbol {
	out := make([]lexer.Symbol, len(texts))
	for i, t := range texts {
		out[i] = lexer.Symbol{Text: t, Line: 1, Column: i}
	}
	return out
}

func TestCurrentRefusesClosingSymbol(t *testing.T) {
	r := reader.New(symbols(")"))
	_, err := r.Current()
	require.Error(t, err)

	var tErr *reader.TranslationError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Unexpected closing symbol", tErr.Message)
}

func TestCurrentOrClosingErrorsPastEnd(t *testing.T) {
	r := reader.New(symbols())
	_, err := r.CurrentOrClosing()
	require.ErrorIs(t, err, reader.ErrOutOfRange)
}

func TestCurrentOrNoneAbsentPastEnd(t *testing.T) {
	r := reader.New(symbols())
	_, ok := r.CurrentOrNone()
	assert.False(t, ok)
}

func TestNextClosingRequiresClosingBracket(t *testing.T) {
	r := reader.New(symbols("x"))
	err := r.NextClosing()
	require.Error(t, err)
	var tErr *reader.TranslationError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Missing closing bracket", tErr.Message)
}

func TestNextExpressionRequiresHeader(t *testing.T) {
	r := reader.New(symbols("x"))
	_, err := r.NextExpression()
	require.Error(t, err)
	var tErr *reader.TranslationError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "An expression was expected", tErr.Message)
}

func TestBackRepositionsForDiagnostics(t *testing.T) {
	r := reader.New(symbols("(print", ")"))
	_, err := r.NextExpression()
	require.NoError(t, err)

	_, err = r.Current() // peeks ")" -> error
	require.Error(t, err)

	r.Back()
	sym, ok := r.CurrentOrNone()
	require.True(t, ok)
	assert.Equal(t, "(print", sym.Text)
}

func TestHasNextAndAdvance(t *testing.T) {
	r := reader.New(symbols("a", "b"))
	assert.True(t, r.HasNext())

	sym, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", sym.Text)

	sym, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", sym.Text)

	assert.False(t, r.HasNext())
}
