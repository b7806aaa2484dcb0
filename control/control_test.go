package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carp-lang/carp/control"
	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/ops"
)

func run(instrs []ops.Operation, input []int64) *control.ControlUnit {
	dp := datapath.New(datapath.DefaultSize, instrs, input)
	cu := control.New(dp)
	_ = cu.Run()
	return cu
}

func TestEmptyProgramProducesOneSnapshot(t *testing.T) {
	cu := run(nil, nil)
	assert.True(t, cu.Finished)
	assert.Len(t, cu.Log, 1)
}

func TestLogLengthIsExecutedCyclesPlusOne(t *testing.T) {
	instrs := []ops.Operation{
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(3)},
		{Code: ops.Mov, Right: ops.B, Left: ops.ValueOperand(4)},
	}
	cu := run(instrs, nil)
	assert.Len(t, cu.Log, len(instrs)+1)
}

func TestMoveImmediateIntoAccumulator(t *testing.T) {
	instrs := []ops.Operation{{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(9)}}
	cu := run(instrs, nil)
	assert.Equal(t, int64(9), cu.DataPath.Accumulator())
}

func TestPushThenGrabRestoresRegister(t *testing.T) {
	instrs := []ops.Operation{
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(5)},
		{Code: ops.Push, Right: ops.A},
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(99)},
		{Code: ops.Grab, Right: ops.A},
	}
	cu := run(instrs, nil)
	assert.Equal(t, int64(5), cu.DataPath.Accumulator())
	assert.Equal(t, datapath.DefaultSize, cu.DataPath.StackPointer)
}

func TestPushDecrementsStackPointer(t *testing.T) {
	instrs := []ops.Operation{
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(1)},
		{Code: ops.Push, Right: ops.A},
	}
	cu := run(instrs, nil)
	assert.Equal(t, datapath.DefaultSize-1, cu.DataPath.StackPointer)
}

func TestUnconditionalJumpSkipsInstruction(t *testing.T) {
	// Jump instruction is at index 0; post-fetch IP is 1. To land on index
	// 2 (skipping index 1), offset = 2 - 1 = 1.
	instrs := []ops.Operation{
		{Code: ops.Jb, Offset: 1},
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(1)}, // skipped
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(2)},
	}
	cu := run(instrs, nil)
	assert.Equal(t, int64(2), cu.DataPath.Accumulator())
}

func TestJumpZeroTakenWhenZeroFlagSet(t *testing.T) {
	// Jump instruction is at index 2; post-fetch IP is 3. To land on
	// index 4 (skipping index 3), offset = 4 - 3 = 1.
	instrs := []ops.Operation{
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(0)},
		{Code: ops.Cmp, Right: ops.A, Left: ops.ValueOperand(0)},
		{Code: ops.Jz, Offset: 1},
		{Code: ops.Mov, Right: ops.B, Left: ops.ValueOperand(1)}, // skipped
		{Code: ops.Mov, Right: ops.B, Left: ops.ValueOperand(2)},
	}
	cu := run(instrs, nil)
	assert.Equal(t, int64(2), cu.DataPath.Buffer())
}

func TestOutputViaSaveAppendsCharacter(t *testing.T) {
	instrs := []ops.Operation{
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(int32('H'))},
		{Code: ops.Save, Right: ops.A, Address: datapath.OutputAddress},
	}
	cu := run(instrs, nil)
	assert.Equal(t, []int64{int64('H')}, cu.DataPath.Output())
}

func TestDivideByZeroReturnsErrorButStillLogsFinalSnapshot(t *testing.T) {
	instrs := []ops.Operation{
		{Code: ops.Mov, Right: ops.A, Left: ops.ValueOperand(1)},
		{Code: ops.Div, Right: ops.A, Left: ops.ValueOperand(0)},
	}
	dp := datapath.New(datapath.DefaultSize, instrs, nil)
	cu := control.New(dp)
	err := cu.Run()
	require.Error(t, err)
	assert.Len(t, cu.Log, 3)
}
