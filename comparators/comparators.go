// Package comparators holds the static mapping from a surface comparator
// symbol to its lowering template: which flag to test, whether the compare
// operands are reversed, and whether the tested sense must be negated.
package comparators

import "github.com/carp-lang/carp/ops"

// Template is the static shape of one comparator's lowering.
type Template struct {
	Zero    bool // test Zero flag rather than Negative
	Reverse bool // emit pmc (right,left swapped) rather than cmp
	Negated bool // an extra jb follows the jump, so the body runs when the tested flag is set
}

// Data is a Template resolved into concrete op codes.
type Data struct {
	Jump    ops.OpCode
	Command ops.OpCode
	Negated bool
}

// Data derives the concrete jump and compare op codes for t.
func (t Template) Data() Data {
	jump := ops.Jn
	if t.Zero {
		jump = ops.Jz
	}
	command := ops.Cmp
	if t.Reverse {
		command = ops.Pmc
	}
	return Data{Jump: jump, Command: command, Negated: t.Negated}
}

var table = map[string]Template{
	">=": {Zero: false, Reverse: false, Negated: false},
	"<":  {Zero: false, Reverse: false, Negated: true},
	"<=": {Zero: false, Reverse: true, Negated: false},
	">":  {Zero: false, Reverse: true, Negated: true},
	"=":  {Zero: true, Reverse: false, Negated: false},
	"!=": {Zero: true, Reverse: false, Negated: true},
}

// Lookup returns the template for a comparator symbol, and whether it exists.
func Lookup(symbol string) (Template, bool) {
	t, ok := table[symbol]
	return t, ok
}
