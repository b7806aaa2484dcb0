package alu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carp-lang/carp/alu"
)

func TestAddSetsFlags(t *testing.T) {
	result, flags, err := alu.Execute(alu.Add, 2, 3, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result)
	assert.False(t, flags.Zero)
	assert.False(t, flags.Negative)
}

func TestSubToZeroSetsZeroFlag(t *testing.T) {
	result, flags, err := alu.Execute(alu.Sub, 4, 4, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result)
	assert.True(t, flags.Zero)
}

func TestSubNegativeSetsNegativeFlag(t *testing.T) {
	result, flags, err := alu.Execute(alu.Sub, 1, 5, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(-4), result)
	assert.True(t, flags.Negative)
}

func TestFlagsSuppressedLeavesCurrentUnchanged(t *testing.T) {
	current := alu.Flags{Zero: true, Negative: true}
	_, flags, err := alu.Execute(alu.Add, 1, 1, false, current)
	require.NoError(t, err)
	assert.Equal(t, current, flags)
}

func TestDivFloorsTowardNegativeInfinity(t *testing.T) {
	result, _, err := alu.Execute(alu.Div, -7, 2, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(-4), result)
}

func TestModTakesSignOfDivisor(t *testing.T) {
	result, _, err := alu.Execute(alu.Mod, -7, 2, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result)
}

func TestDivByZeroIsError(t *testing.T) {
	_, _, err := alu.Execute(alu.Div, 1, 0, true, alu.Flags{})
	require.ErrorIs(t, err, alu.ErrDivideByZero)
}

func TestModByZeroIsError(t *testing.T) {
	_, _, err := alu.Execute(alu.Mod, 1, 0, true, alu.Flags{})
	require.ErrorIs(t, err, alu.ErrDivideByZero)
}

func TestPositiveOverflowFoldsByFloorModulo(t *testing.T) {
	// MaxValue+1 folded modulo (MaxValue+1) lands back on zero, per the
	// reference ALU's literal `result %= WORD_MAX_VALUE + 1` reduction.
	result, _, err := alu.Execute(alu.Add, alu.MaxValue, 1, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result)
}

func TestNegativeOverflowFoldsByFloorModulo(t *testing.T) {
	// MinValue-1 folded modulo MinValue (a negative modulus, Python floor
	// semantics) lands on -1, per `result %= WORD_MIN_VALUE`.
	result, _, err := alu.Execute(alu.Sub, alu.MinValue, 1, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), result)
}

func TestLeftPassthrough(t *testing.T) {
	result, _, err := alu.Execute(alu.Left, 9, 2, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(9), result)
}

func TestRightPassthrough(t *testing.T) {
	result, _, err := alu.Execute(alu.Right, 9, 2, true, alu.Flags{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result)
}
