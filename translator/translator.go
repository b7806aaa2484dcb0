// Package translator lowers a symbol stream into a flat list of machine
// operations, resolving variables via variables.Index and comparators via
// comparators.Lookup.
package translator

import (
	"fmt"
	"strconv"

	"github.com/carp-lang/carp/comparators"
	"github.com/carp-lang/carp/lexer"
	"github.com/carp-lang/carp/ops"
	"github.com/carp-lang/carp/reader"
	"github.com/carp-lang/carp/variables"
)

// Default device count and addresses, mirroring datapath's own defaults;
// variable allocation begins at deviceCount. MachineConfig overrides these
// per translation the same way datapath.MachineConfig does for execution.
const deviceCount = 16
const inputAddress = 1
const outputAddress = 3

// MachineConfig mirrors datapath.MachineConfig's device dimensions, so a
// loaded config.Config.Machine can be wired into both the translator's
// address assignment and the executor's device window with the same
// numbers. A zero field falls back to this package's default.
type MachineConfig struct {
	DeviceCount   int
	InputAddress  int
	OutputAddress int
}

func (c MachineConfig) withDefaults() MachineConfig {
	if c.DeviceCount <= 0 {
		c.DeviceCount = deviceCount
	}
	if c.InputAddress <= 0 {
		c.InputAddress = inputAddress
	}
	if c.OutputAddress <= 0 {
		c.OutputAddress = outputAddress
	}
	return c
}

// Aliases maps older expression-head spellings, seen across revisions of
// the source corpus, to the canonical form dispatched on in translateValuable.
var Aliases = map[string]string{
	"read":  "input",
	"write": "print",
}

var operatorToCode = map[string]ops.OpCode{
	"+": ops.Add,
	"-": ops.Sub,
	"*": ops.Mul,
	"/": ops.Div,
	"%": ops.Mod,
}

// Translator walks a Reader, accumulating a flat Result operation list.
type Translator struct {
	Reader    *reader.Reader
	Result    []ops.Operation
	Variables *variables.Index

	inputAddress  int
	outputAddress int
}

// New builds a Translator over r with a fresh variable index starting at
// the default device-count boundary.
func New(r *reader.Reader) *Translator {
	return NewWithConfig(r, MachineConfig{})
}

// NewWithConfig builds a Translator the way New does, but lets the caller
// override the device count and device addresses too (wired from
// config.Config.Machine by callers that load one).
func NewWithConfig(r *reader.Reader, cfg MachineConfig) *Translator {
	cfg = cfg.withDefaults()
	return &Translator{
		Reader:        r,
		Variables:     variables.New(cfg.DeviceCount),
		inputAddress:  cfg.InputAddress,
		outputAddress: cfg.OutputAddress,
	}
}

func errAt(sym lexer.Symbol, err error) error {
	if err == nil {
		return nil
	}
	return reader.NewTranslationError(sym, err.Error())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (t *Translator) checkClosedBracket() error {
	return t.Reader.NextClosing()
}

// argKind discriminates the atom parseArgument can produce.
type argKind int

const (
	argNone argKind = iota
	argInt
	argString
	argVar
)

type parsedArgument struct {
	kind    argKind
	intVal  int32
	text    string
	address int
}

// stripQuotes removes the surrounding quote characters from a quoted
// symbol's literal text, so callers iterate only the string's content.
// The symbol's raw text retains its quotes (needed for IsQuoted checks
// elsewhere); print's character-by-character emission needs the content.
func stripQuotes(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}

func (t *Translator) parseArgumentSymbol(sym lexer.Symbol, allowStrings bool) (parsedArgument, error) {
	if sym.IsQuoted() {
		if allowStrings {
			return parsedArgument{kind: argString, text: stripQuotes(sym.Text)}, nil
		}
		return parsedArgument{}, reader.NewTranslationError(sym, "Argument can't be a string")
	}
	if isDigits(sym.Text) {
		v, err := strconv.ParseInt(sym.Text, 10, 32)
		if err != nil {
			return parsedArgument{}, reader.NewTranslationError(sym, fmt.Sprintf("Invalid integer literal: '%s'", sym.Text))
		}
		return parsedArgument{kind: argInt, intVal: int32(v)}, nil
	}
	addr, err := t.Variables.Read(sym.Text)
	if err != nil {
		return parsedArgument{}, errAt(sym, err)
	}
	return parsedArgument{kind: argVar, address: addr}, nil
}

// parseArgument peeks the current symbol: an expression header means the
// argument is itself a nested valuable (reported as argNone, unconsumed);
// otherwise the symbol is consumed and classified as int/string/variable.
func (t *Translator) parseArgument(allowStrings bool) (parsedArgument, error) {
	sym, err := t.Reader.Current()
	if err != nil {
		return parsedArgument{}, err
	}
	if sym.IsExpressionHeader() {
		return parsedArgument{kind: argNone}, nil
	}
	sym, err = t.Reader.Next()
	if err != nil {
		return parsedArgument{}, err
	}
	return t.parseArgumentSymbol(sym, allowStrings)
}

// translateArgument lowers a single argument position: a nested valuable,
// an integer literal, a variable load, or (when allowStrings) a quoted
// string emitted one mov+operation pair per character. operation, when
// non-nil, is appended after the value is materialized (once per
// character for strings).
func (t *Translator) translateArgument(operation *ops.Operation, resultRegister ops.Register, allowStrings bool, stack bool) error {
	argument, err := t.parseArgument(allowStrings)
	if err != nil {
		return err
	}

	if allowStrings && argument.kind == argString {
		for _, ch := range argument.text {
			t.Result = append(t.Result, ops.Operation{
				Code: ops.Mov, Right: resultRegister, Left: ops.ValueOperand(int32(ch)),
			})
			if operation != nil {
				t.Result = append(t.Result, *operation)
			}
		}
		return nil
	}

	switch argument.kind {
	case argNone:
		if err := t.translateValuable(resultRegister, stack); err != nil {
			return err
		}
	case argInt:
		t.Result = append(t.Result, ops.Operation{
			Code: ops.Mov, Right: resultRegister, Left: ops.ValueOperand(argument.intVal),
		})
	case argVar:
		t.Result = append(t.Result, ops.Operation{
			Code: ops.Load, Right: resultRegister, Address: argument.address,
		})
	}

	if operation != nil {
		t.Result = append(t.Result, *operation)
	}
	return nil
}

// translateConstruct lowers an if/loop condition: either a parenthesized
// comparator or a bare variable tested against zero. It returns the index
// of the skip-jump to patch and the index where the body begins.
func (t *Translator) translateConstruct() (skipIndex int, bodyStart int, err error) {
	header, err := t.Reader.Next()
	if err != nil {
		return 0, 0, err
	}

	if header.IsExpressionHeader() {
		symbol := header.Text[1:]
		tmpl, ok := comparators.Lookup(symbol)
		if !ok {
			return 0, 0, reader.NewTranslationError(header, fmt.Sprintf("Unknown comparator: '%s'", symbol))
		}
		data := tmpl.Data()
		if err := t.translateOperation(data.Command, ops.A, false); err != nil {
			return 0, 0, err
		}
		t.Result = append(t.Result, ops.Operation{Code: data.Jump, Offset: 1})
		skipIndex = len(t.Result) - 1
		if data.Negated {
			t.Result = append(t.Result, ops.Operation{Code: ops.Jb, Offset: 1})
			skipIndex = len(t.Result) - 1
		}
		if err := t.checkClosedBracket(); err != nil {
			return 0, 0, err
		}
	} else {
		addr, err := t.Variables.Read(header.Text)
		if err != nil {
			return 0, 0, errAt(header, err)
		}
		t.Result = append(t.Result, ops.Operation{Code: ops.Load, Right: ops.A, Address: addr})
		t.Result = append(t.Result, ops.Operation{Code: ops.Jz, Offset: 1})
		skipIndex = len(t.Result) - 1
	}

	bodyStart = len(t.Result)
	if err := t.translateBlocks(true); err != nil {
		return 0, 0, err
	}
	return skipIndex, bodyStart, nil
}

// translateOperation lowers `(<op> first rest...)`: the first argument
// materializes into resultRegister, then each remaining argument is
// evaluated into the other register and folded in with opType. When
// stack is true, the other register is saved/restored around the fold so
// an outer evaluation's use of it survives.
func (t *Translator) translateOperation(opType ops.OpCode, resultRegister ops.Register, stack bool) error {
	if err := t.translateArgument(nil, resultRegister, false, true); err != nil {
		return err
	}

	bufferRegister := ops.B
	if resultRegister == ops.B {
		bufferRegister = ops.A
	}

	if stack {
		t.Result = append(t.Result, ops.Operation{Code: ops.Push, Right: bufferRegister})
	}

	for {
		sym, err := t.Reader.CurrentOrClosing()
		if err != nil {
			return err
		}
		if sym.IsClosing() {
			break
		}
		if err := t.translateArgument(nil, bufferRegister, false, true); err != nil {
			return err
		}
		t.Result = append(t.Result, ops.Operation{
			Code: opType, Right: resultRegister, Left: ops.RegOperand(bufferRegister),
		})
	}

	if stack {
		t.Result = append(t.Result, ops.Operation{Code: ops.Grab, Right: bufferRegister})
	}
	return nil
}

// translateOutput emits the fixed ~30-operation decimal-printing template:
// zero as a special case, a leading '-' for negatives (via *-1), a
// push/mod/div digit-extraction loop, then a grab/save printing loop,
// null-terminated and newline-terminated.
func (t *Translator) translateOutput(register ops.Register) {
	buffer := ops.B
	if register == ops.B {
		buffer = ops.A
	}
	itoc := ops.ValueOperand(48)

	t.Result = append(t.Result,
		ops.Operation{Code: ops.Push, Right: register},
		ops.Operation{Code: ops.Mov, Right: register, Left: ops.RegOperand(register)},
	)
	t.Result = append(t.Result, // zero
		ops.Operation{Code: ops.Jz, Offset: 1},
		ops.Operation{Code: ops.Jb, Offset: 3},
		ops.Operation{Code: ops.Add, Right: register, Left: itoc},
		ops.Operation{Code: ops.Save, Right: register, Address: t.outputAddress},
		ops.Operation{Code: ops.Jb, Offset: 18},
	)
	t.Result = append(t.Result, // negative
		ops.Operation{Code: ops.Jn, Offset: 1},
		ops.Operation{Code: ops.Jb, Offset: 3},
		ops.Operation{Code: ops.Mov, Right: buffer, Left: ops.ValueOperand(45)},
		ops.Operation{Code: ops.Save, Right: buffer, Address: t.outputAddress},
		ops.Operation{Code: ops.Mul, Right: register, Left: ops.ValueOperand(-1)},
	)
	t.Result = append(t.Result, // null-termination seed
		ops.Operation{Code: ops.Mov, Right: buffer, Left: ops.ValueOperand(0)},
		ops.Operation{Code: ops.Push, Right: buffer},
	)
	t.Result = append(t.Result, // digit extraction loop
		ops.Operation{Code: ops.Mov, Right: buffer, Left: ops.RegOperand(register)},
		ops.Operation{Code: ops.Jz, Offset: 5},
		ops.Operation{Code: ops.Mod, Right: buffer, Left: ops.ValueOperand(10)},
		ops.Operation{Code: ops.Add, Right: buffer, Left: itoc},
		ops.Operation{Code: ops.Push, Right: buffer},
		ops.Operation{Code: ops.Div, Right: register, Left: ops.ValueOperand(10)},
		ops.Operation{Code: ops.Jb, Offset: -7},
	)
	t.Result = append(t.Result, // printing loop
		ops.Operation{Code: ops.Grab, Right: register},
		ops.Operation{Code: ops.Jz, Offset: 2},
		ops.Operation{Code: ops.Save, Right: register, Address: t.outputAddress},
		ops.Operation{Code: ops.Jb, Offset: -4},
	)
	t.Result = append(t.Result,
		ops.Operation{Code: ops.Mov, Right: register, Left: ops.ValueOperand(10)},
		ops.Operation{Code: ops.Save, Right: register, Address: t.outputAddress},
		ops.Operation{Code: ops.Grab, Right: register},
	)
}

func canonicalHeader(head string) string {
	if alias, ok := Aliases[head]; ok {
		return alias
	}
	return head
}

// translateValuable lowers a single parenthesized form into the result
// list, consuming its closing bracket.
func (t *Translator) translateValuable(resultRegister ops.Register, stack bool) error {
	headerSym, err := t.Reader.NextExpression()
	if err != nil {
		return err
	}
	head := canonicalHeader(headerSym.Text[1:])

	switch head {
	case "print":
		op := ops.Operation{Code: ops.Save, Address: t.outputAddress}
		if err := t.translateArgument(&op, resultRegister, true, stack); err != nil {
			return err
		}
	case "output":
		if err := t.translateArgument(nil, resultRegister, false, stack); err != nil {
			return err
		}
		t.translateOutput(resultRegister)
	case "assign":
		nameSym, err := t.Reader.Next()
		if err != nil {
			return err
		}
		location, err := t.Variables.Register(nameSym.Text)
		if err != nil {
			return errAt(nameSym, err)
		}
		op := ops.Operation{Code: ops.Save, Address: location}
		if err := t.translateArgument(&op, resultRegister, false, stack); err != nil {
			return err
		}
	case "if":
		skipIndex, bodyStart, err := t.translateConstruct()
		if err != nil {
			return err
		}
		t.Result[skipIndex].Offset = len(t.Result) - bodyStart
	case "loop":
		conditionStart := len(t.Result)
		skipIndex, bodyStart, err := t.translateConstruct()
		if err != nil {
			return err
		}
		t.Result = append(t.Result, ops.Operation{Code: ops.Jb, Offset: conditionStart - len(t.Result) - 1})
		t.Result[skipIndex].Offset = len(t.Result) - bodyStart
	case "input":
		t.Result = append(t.Result, ops.Operation{Code: ops.Load, Right: resultRegister, Address: t.inputAddress})
	default:
		opType, ok := operatorToCode[head]
		if !ok {
			return reader.NewTranslationError(headerSym, fmt.Sprintf("Unknown operation: '%s'", head))
		}
		if err := t.translateOperation(opType, resultRegister, stack); err != nil {
			return err
		}
	}

	return t.checkClosedBracket()
}

// translateBlocks walks top-level forms until the reader is exhausted, or
// (when allowQuit) until a closing bracket is found without consuming it.
func (t *Translator) translateBlocks(allowQuit bool) error {
	for t.Reader.HasNext() {
		if allowQuit {
			sym, err := t.Reader.CurrentOrClosing()
			if err != nil {
				return err
			}
			if sym.IsClosing() {
				return nil
			}
		}
		if err := t.translateValuable(ops.A, false); err != nil {
			return err
		}
	}
	return nil
}

// Translate runs the whole program through the translator with default
// device dimensions, returning the flat operation list.
func Translate(r *reader.Reader) ([]ops.Operation, error) {
	return TranslateWithConfig(r, MachineConfig{})
}

// TranslateWithConfig runs the whole program through the translator using
// cfg's device dimensions, the translation-side half of the same
// config.Config.Machine values an executor is built with.
func TranslateWithConfig(r *reader.Reader, cfg MachineConfig) ([]ops.Operation, error) {
	t := NewWithConfig(r, cfg)
	if err := t.translateBlocks(false); err != nil {
		return nil, err
	}
	return t.Result, nil
}
