// Package alu implements the stateless word-sized arithmetic unit: two
// inputs in, a wrapped word result out, with optional Zero/Negative flag
// update.
package alu

import "errors"

const (
	// MaxValue is the largest representable signed 32-bit word.
	MaxValue int64 = 1<<31 - 1
	// MinValue is the smallest representable signed 32-bit word.
	MinValue int64 = -1 << 31
)

// ErrDivideByZero is returned by Execute for Div/Mod when source is zero.
var ErrDivideByZero = errors.New("alu: division by zero")

// Op names one of the ALU's stateless operations.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Left  // passthrough returning target unchanged
	Right // passthrough returning source unchanged
)

// Flags holds the ALU's two condition bits.
type Flags struct {
	Zero     bool
	Negative bool
}

// floorDiv matches Python's int.__floordiv__: truncates toward negative
// infinity rather than toward zero.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// pyMod matches Python's int.__mod__: the result takes the sign of the
// divisor, not the dividend.
func pyMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// wrap folds a raw result into the signed 32-bit word range, using
// floor-modulo reduction (matching the reference ALU's own `%=` reduction,
// which is Python's floor modulo, not truncating modulo).
func wrap(result int64) int64 {
	if result > MaxValue {
		return pyMod(result, MaxValue+1)
	}
	if result < MinValue {
		return pyMod(result, MinValue)
	}
	return result
}

// Execute applies op to (target, source), wraps the result into a signed
// word, and — when updateFlags is true — refreshes current against the
// wrapped result. It returns the wrapped result and the flags to keep
// (updated or, when updateFlags is false, current unchanged).
func Execute(op Op, target, source int64, updateFlags bool, current Flags) (int64, Flags, error) {
	var raw int64
	switch op {
	case Add:
		raw = target + source
	case Sub:
		raw = target - source
	case Mul:
		raw = target * source
	case Div:
		if source == 0 {
			return 0, current, ErrDivideByZero
		}
		raw = floorDiv(target, source)
	case Mod:
		if source == 0 {
			return 0, current, ErrDivideByZero
		}
		raw = pyMod(target, source)
	case Left:
		raw = target
	case Right:
		raw = source
	default:
		raw = target
	}

	result := wrap(raw)

	flags := current
	if updateFlags {
		flags = Flags{Zero: result == 0, Negative: result < 0}
	}
	return result, flags, nil
}
