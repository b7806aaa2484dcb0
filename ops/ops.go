// Package ops defines the Operation and Operand types shared by the
// translator and the executor, along with their wire (JSON) encoding.
package ops

import (
	"encoding/json"
	"fmt"
)

// Register names one of the machine's two general registers.
type Register string

const (
	A Register = "A"
	B Register = "B"
)

func (r Register) String() string { return string(r) }

// OpCode names a single machine operation.
type OpCode string

const (
	Mov OpCode = "mov"
	Cmp OpCode = "cmp"
	Pmc OpCode = "pmc"
	Add OpCode = "add"
	Sub OpCode = "sub"
	Mul OpCode = "mul"
	Div OpCode = "div"
	Mod OpCode = "mod"

	Push OpCode = "push"
	Grab OpCode = "grab"

	Jz OpCode = "jz"
	Jn OpCode = "jn"
	Jb OpCode = "jb"

	Load OpCode = "load"
	Save OpCode = "save"
)

// Family groups op codes that share a field layout.
type Family int

const (
	Binary Family = iota
	Stack
	Jump
	Memory
)

var families = map[OpCode]Family{
	Mov: Binary, Cmp: Binary, Pmc: Binary, Add: Binary, Sub: Binary, Mul: Binary, Div: Binary, Mod: Binary,
	Push: Stack, Grab: Stack,
	Jz: Jump, Jn: Jump, Jb: Jump,
	Load: Memory, Save: Memory,
}

// FamilyOf reports which field layout a code uses, and whether code is known.
func FamilyOf(code OpCode) (Family, bool) {
	f, ok := families[code]
	return f, ok
}

// OperandKind discriminates an Operand's payload.
type OperandKind int

const (
	RegisterOperand OperandKind = iota
	ImmediateOperand
)

// Operand is the tagged Register-or-Immediate union fed to Binary operations.
type Operand struct {
	Kind  OperandKind
	Reg   Register
	Value int32
}

// RegOperand builds a register-kind Operand.
func RegOperand(r Register) Operand { return Operand{Kind: RegisterOperand, Reg: r} }

// ValueOperand builds an immediate-kind Operand.
func ValueOperand(v int32) Operand { return Operand{Kind: ImmediateOperand, Value: v} }

type wireOperand struct {
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Value *int32 `json:"value,omitempty"`
}

func (o Operand) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case RegisterOperand:
		return json.Marshal(wireOperand{Type: "registry", Code: string(o.Reg)})
	case ImmediateOperand:
		v := o.Value
		return json.Marshal(wireOperand{Type: "value", Value: &v})
	default:
		return nil, fmt.Errorf("ops: unknown operand kind %d", o.Kind)
	}
}

func (o *Operand) UnmarshalJSON(data []byte) error {
	var w wireOperand
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "registry":
		*o = RegOperand(Register(w.Code))
	case "value":
		if w.Value == nil {
			return fmt.Errorf("ops: value operand missing \"value\"")
		}
		*o = ValueOperand(*w.Value)
	default:
		return fmt.Errorf("ops: unknown operand type %q", w.Type)
	}
	return nil
}

// Operation is a single machine instruction. Only the fields relevant to
// its Family are meaningful; the others are zero.
type Operation struct {
	Code    OpCode
	Right   Register // Binary, Stack, Memory. Defaults to A when absent on the wire.
	Left    Operand  // Binary only.
	Offset  int      // Jump only. Defaults to 1 when absent on the wire.
	Address int      // Memory only.
}

type wireOperation struct {
	Code    OpCode   `json:"code"`
	Right   *string  `json:"right,omitempty"`
	Left    *Operand `json:"left,omitempty"`
	Offset  *int     `json:"offset,omitempty"`
	Address *int     `json:"address,omitempty"`
}

func (op Operation) MarshalJSON() ([]byte, error) {
	family, ok := FamilyOf(op.Code)
	if !ok {
		return nil, fmt.Errorf("ops: unknown op code %q", op.Code)
	}

	w := wireOperation{Code: op.Code}
	right := string(op.Right)

	switch family {
	case Binary:
		w.Right = &right
		left := op.Left
		w.Left = &left
	case Stack:
		w.Right = &right
	case Jump:
		offset := op.Offset
		w.Offset = &offset
	case Memory:
		w.Right = &right
		address := op.Address
		w.Address = &address
	}
	return json.Marshal(w)
}

func (op *Operation) UnmarshalJSON(data []byte) error {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	family, ok := FamilyOf(w.Code)
	if !ok {
		return fmt.Errorf("ops: unknown op code %q", w.Code)
	}

	result := Operation{Code: w.Code}

	switch family {
	case Binary, Stack, Memory:
		if w.Right != nil {
			result.Right = Register(*w.Right)
		} else {
			result.Right = A
		}
	}

	switch family {
	case Binary:
		if w.Left == nil {
			return fmt.Errorf("ops: %q operation missing \"left\"", w.Code)
		}
		result.Left = *w.Left
	case Jump:
		if w.Offset != nil {
			result.Offset = *w.Offset
		} else {
			result.Offset = 1
		}
	case Memory:
		if w.Address == nil {
			return fmt.Errorf("ops: %q operation missing \"address\"", w.Code)
		}
		result.Address = *w.Address
	}

	*op = result
	return nil
}
