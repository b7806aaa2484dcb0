package translator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carp-lang/carp/control"
	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/lexer"
	"github.com/carp-lang/carp/ops"
	"github.com/carp-lang/carp/reader"
	"github.com/carp-lang/carp/translator"
)

func translate(t *testing.T, source string) []ops.Operation {
	t.Helper()
	symbols, err := lexer.Scan(source)
	require.NoError(t, err)
	program, err := translator.Translate(reader.New(symbols))
	require.NoError(t, err)
	return program
}

func runProgram(t *testing.T, program []ops.Operation, input string) *control.ControlUnit {
	t.Helper()
	buf := make([]int64, len(input))
	for i, r := range input {
		buf[i] = int64(r)
	}
	dp := datapath.New(datapath.DefaultSize, program, buf)
	cu := control.New(dp)
	require.NoError(t, cu.Run())
	return cu
}

func outputString(cu *control.ControlUnit) string {
	out := cu.DataPath.Output()
	b := make([]rune, len(out))
	for i, v := range out {
		b[i] = rune(v)
	}
	return string(b)
}

func TestHelloWorldPrintsNoTerminator(t *testing.T) {
	program := translate(t, `(print "Hello World")`)
	cu := runProgram(t, program, "")
	assert.Equal(t, "Hello World", outputString(cu))
}

func TestCatEchoesInputWithTrailingNull(t *testing.T) {
	program := translate(t, `(loop (!= (input) 0) (print (input)))`)
	cu := runProgram(t, program, "abc")
	out := cu.DataPath.Output()
	assert.Equal(t, []int64{'a', 'b', 'c', 0}, out)
}

func TestArithmeticOutputsSeven(t *testing.T) {
	program := translate(t, `(output (+ 1 (* 2 3)))`)
	cu := runProgram(t, program, "")
	assert.Equal(t, "7\n", outputString(cu))
}

func TestNegativeOutputHasLeadingMinus(t *testing.T) {
	program := translate(t, `(output (- 0 42))`)
	cu := runProgram(t, program, "")
	assert.Equal(t, "-42\n", outputString(cu))
}

func TestVariableAllocatedAtDeviceBoundary(t *testing.T) {
	program := translate(t, `(assign x 5) (output x)`)
	cu := runProgram(t, program, "")
	assert.Equal(t, "5\n", outputString(cu))
	assert.Equal(t, int64(5), cu.DataPath.Memory[16])
}

func TestMissingArgumentIsTranslationError(t *testing.T) {
	symbols, err := lexer.Scan(`(print )`)
	require.NoError(t, err)
	_, err = translator.Translate(reader.New(symbols))
	require.Error(t, err)
}

func TestUnknownOperationReportsName(t *testing.T) {
	symbols, err := lexer.Scan(`(frobnicate 1)`)
	require.NoError(t, err)
	_, err = translator.Translate(reader.New(symbols))
	require.Error(t, err)
	var tErr *reader.TranslationError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Unknown operation: 'frobnicate'", tErr.Message)
}

func TestUndefinedVariableReportsName(t *testing.T) {
	symbols, err := lexer.Scan(`(output missing)`)
	require.NoError(t, err)
	_, err = translator.Translate(reader.New(symbols))
	require.Error(t, err)
	var tErr *reader.TranslationError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Variable 'missing' is not defined", tErr.Message)
}

func TestReadWriteAliasesMatchInputPrint(t *testing.T) {
	program := translate(t, `(loop (!= (read) 0) (write (read)))`)
	cu := runProgram(t, program, "hi")
	assert.Equal(t, []int64{'h', 'i', 0}, cu.DataPath.Output())
}

func TestComparatorGreaterThanTakesBranch(t *testing.T) {
	program := translate(t, `(assign x 0) (if (> 5 3) (assign x 1)) (output x)`)
	cu := runProgram(t, program, "")
	assert.Equal(t, "1\n", outputString(cu))
}

func TestComparatorLessThanSkipsBranch(t *testing.T) {
	program := translate(t, `(assign x 0) (if (< 5 3) (assign x 1)) (output x)`)
	cu := runProgram(t, program, "")
	assert.Equal(t, "0\n", outputString(cu))
}
