// Package control drives a datapath.DataPath through the fetch/execute/
// memory cycle and accumulates the per-cycle snapshot log.
package control

import (
	"fmt"

	"github.com/carp-lang/carp/alu"
	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/ops"
)

var binaryALUOp = map[ops.OpCode]alu.Op{
	ops.Mov: alu.Right,
	ops.Add: alu.Add,
	ops.Sub: alu.Sub,
	ops.Mul: alu.Mul,
	ops.Div: alu.Div,
	ops.Mod: alu.Mod,
}

// DefaultMaxCycles bounds a run when no explicit cycle cap is configured
// (§6 "Configured constants").
const DefaultMaxCycles = 1_000_000

// CycleLimitError reports that a run was aborted after reaching MaxCycles
// without the instruction pointer walking off the end of the program
// (almost always a non-terminating loop in the source).
type CycleLimitError struct {
	MaxCycles int
}

func (e *CycleLimitError) Error() string {
	return fmt.Sprintf("exceeded maximum cycle count (%d)", e.MaxCycles)
}

// ControlUnit owns a DataPath and the append-only snapshot log produced as
// it runs.
type ControlUnit struct {
	DataPath  *datapath.DataPath
	Log       []datapath.Snapshot
	Finished  bool
	MaxCycles int
}

// New builds a ControlUnit over dp, ready to Run, capped at
// DefaultMaxCycles. Set MaxCycles on the returned unit (e.g. from
// config.Config.Machine.MaxCycles) to override that cap, or to 0 to run
// unbounded.
func New(dp *datapath.DataPath) *ControlUnit {
	return &ControlUnit{DataPath: dp, MaxCycles: DefaultMaxCycles}
}

func (cu *ControlUnit) fetch() {
	if cu.DataPath.ReadCommand() {
		cu.DataPath.InstructionPointer++
	} else {
		cu.Finished = true
	}
}

func (cu *ControlUnit) executeBinary(op ops.Operation) error {
	var source int64
	switch op.Left.Kind {
	case ops.RegisterOperand:
		source = cu.DataPath.ReadRegister(op.Left.Reg)
	case ops.ImmediateOperand:
		source = int64(op.Left.Value)
	}
	target := cu.DataPath.ReadRegister(op.Right)

	switch op.Code {
	case ops.Cmp:
		_, err := cu.DataPath.ALUExecute(alu.Sub, target, source, true)
		return err
	case ops.Pmc:
		_, err := cu.DataPath.ALUExecute(alu.Sub, source, target, true)
		return err
	default:
		result, err := cu.DataPath.ALUExecute(binaryALUOp[op.Code], target, source, true)
		if err != nil {
			return err
		}
		cu.DataPath.WriteRegister(op.Right, result)
		return nil
	}
}

func (cu *ControlUnit) executeJump(op ops.Operation) error {
	flags := cu.DataPath.Flags
	if (op.Code == ops.Jz && !flags.Zero) || (op.Code == ops.Jn && !flags.Negative) {
		return nil
	}

	result, err := cu.DataPath.ALUExecute(alu.Add, int64(cu.DataPath.InstructionPointer), int64(op.Offset), false)
	if err != nil {
		return err
	}
	cu.DataPath.InstructionPointer = int(result)
	return nil
}

func (cu *ControlUnit) executeStack(op ops.Operation) error {
	delta := alu.Add
	if op.Code == ops.Push {
		delta = alu.Sub
	}
	result, err := cu.DataPath.ALUExecute(delta, int64(cu.DataPath.StackPointer), 1, false)
	if err != nil {
		return err
	}
	cu.DataPath.StackPointer = int(result)
	return nil
}

func (cu *ControlUnit) execute() error {
	op := *cu.DataPath.Command
	family, _ := ops.FamilyOf(op.Code)
	switch family {
	case ops.Binary:
		return cu.executeBinary(op)
	case ops.Jump:
		return cu.executeJump(op)
	case ops.Memory:
		cu.DataPath.MemoryPointer = op.Address
		return nil
	case ops.Stack:
		return cu.executeStack(op)
	}
	return nil
}

func (cu *ControlUnit) memoryStage() error {
	op := *cu.DataPath.Command
	family, _ := ops.FamilyOf(op.Code)
	switch family {
	case ops.Memory:
		switch op.Code {
		case ops.Load:
			return cu.DataPath.MemoryRead(op.Right, false)
		case ops.Save:
			return cu.DataPath.MemoryWrite(op.Right, false)
		}
	case ops.Stack:
		switch op.Code {
		case ops.Push:
			return cu.DataPath.MemoryWrite(op.Right, true)
		case ops.Grab:
			return cu.DataPath.MemoryRead(op.Right, true)
		}
	}
	return nil
}

func (cu *ControlUnit) saveState() {
	cu.Log = append(cu.Log, cu.DataPath.RecordState())
}

func (cu *ControlUnit) overLimit() bool {
	return cu.MaxCycles > 0 && len(cu.Log) > cu.MaxCycles
}

// Run executes the full fetch/execute/memory loop to completion, returning
// the error (if any) of the cycle that failed. The failing cycle's
// snapshot is still appended to the log before the error is returned. A run
// that reaches MaxCycles without the program finishing stops with a
// CycleLimitError.
func (cu *ControlUnit) Run() error {
	cu.saveState()
	cu.fetch()
	for !cu.Finished {
		if cu.overLimit() {
			cu.Finished = true
			return &CycleLimitError{MaxCycles: cu.MaxCycles}
		}
		if err := cu.execute(); err != nil {
			cu.saveState()
			return err
		}
		if err := cu.memoryStage(); err != nil {
			cu.saveState()
			return err
		}
		cu.saveState()
		cu.fetch()
	}
	return nil
}

// Step runs exactly one fetch/execute/memory cycle, for interactive
// debuggers. It reports whether the control unit is finished afterward,
// also finishing (with a CycleLimitError) once MaxCycles is reached.
func (cu *ControlUnit) Step() (bool, error) {
	if cu.Finished {
		return true, nil
	}
	if cu.overLimit() {
		cu.Finished = true
		return true, &CycleLimitError{MaxCycles: cu.MaxCycles}
	}
	if len(cu.Log) == 0 {
		cu.saveState()
		cu.fetch()
		if cu.Finished {
			return true, nil
		}
	}
	if err := cu.execute(); err != nil {
		cu.saveState()
		return true, err
	}
	if err := cu.memoryStage(); err != nil {
		cu.saveState()
		return true, err
	}
	cu.saveState()
	cu.fetch()
	return cu.Finished, nil
}
