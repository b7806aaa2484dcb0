package datapath_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/ops"
)

func TestSnapshotMarshalsPerExecutionLogShape(t *testing.T) {
	output := int64('H')
	snap := datapath.Snapshot{
		Accumulator: 1, Buffer: 2,
		MemoryPointer: 3, StackPointer: 4, InstructionPointer: 5,
		Zero: true, Negative: false,
		Output: &output,
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	registries := decoded["registries"].(map[string]any)
	assert.Equal(t, float64(1), registries["accumulator"])
	assert.Equal(t, float64(4), registries["stack_pointer"])

	flags := decoded["flags"].(map[string]any)
	assert.Equal(t, true, flags["zero"])

	assert.Nil(t, decoded["input"])
	assert.Equal(t, float64('H'), decoded["output"])
}

func TestReadCommandAdvancesNothingButReportsFalseAtEnd(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)
	assert.False(t, dp.ReadCommand())
}

func TestReadCommandLatchesInstruction(t *testing.T) {
	instrs := []ops.Operation{{Code: ops.Push, Right: ops.A}}
	dp := datapath.New(datapath.DefaultSize, instrs, nil)
	require.True(t, dp.ReadCommand())
	require.NotNil(t, dp.Command)
	assert.Equal(t, ops.Push, dp.Command.Code)
}

func TestMemoryWriteThenReadOrdinaryAddress(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)
	dp.WriteRegister(ops.A, 42)
	dp.MemoryPointer = 20

	require.NoError(t, dp.MemoryWrite(ops.A, false))
	assert.Equal(t, int64(42), dp.Memory[20])

	require.NoError(t, dp.MemoryRead(ops.B, false))
	assert.Equal(t, int64(42), dp.ReadRegister(ops.B))
}

func TestMemoryAccessOutsideRangeIsIndexError(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)
	dp.MemoryPointer = 1000

	err := dp.MemoryWrite(ops.A, false)
	require.Error(t, err)
	var idxErr *datapath.IndexError
	require.ErrorAs(t, err, &idxErr)
}

func TestUnconnectedDeviceIsRuntimeError(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)
	dp.MemoryPointer = 5 // in device range, but not INPUT(1) or OUTPUT(3)

	err := dp.MemoryWrite(ops.A, false)
	require.Error(t, err)
	var rtErr *datapath.RuntimeError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, "Device 5 not connected", rtErr.Error())
}

func TestOutputAppendsInArrivalOrder(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)
	dp.MemoryPointer = datapath.OutputAddress

	dp.WriteRegister(ops.A, int64('h'))
	require.NoError(t, dp.MemoryWrite(ops.A, false))
	dp.WriteRegister(ops.A, int64('i'))
	require.NoError(t, dp.MemoryWrite(ops.A, false))

	assert.Equal(t, []int64{int64('h'), int64('i')}, dp.Output())
}

func TestInputConsumedFirstCharFirst(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, []int64{'a', 'b', 'c'})
	dp.MemoryPointer = datapath.InputAddress

	require.NoError(t, dp.MemoryRead(ops.A, false))
	assert.Equal(t, int64('a'), dp.ReadRegister(ops.A))

	require.NoError(t, dp.MemoryRead(ops.A, false))
	assert.Equal(t, int64('b'), dp.ReadRegister(ops.A))
}

func TestInputExhaustedDeliversZero(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)
	dp.MemoryPointer = datapath.InputAddress

	require.NoError(t, dp.MemoryRead(ops.A, false))
	assert.Equal(t, int64(0), dp.ReadRegister(ops.A))
}

func TestMemoryReadSetsFlagsFromLoadedValue(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)
	dp.MemoryPointer = 20
	dp.Memory[20] = -5

	require.NoError(t, dp.MemoryRead(ops.A, false))
	assert.True(t, dp.Flags.Negative)
}

func TestStackWriteThenReadAtTop(t *testing.T) {
	dp := datapath.New(datapath.DefaultSize, nil, nil)

	// push: the control unit decrements sp in its execute stage before the
	// memory stage writes at the new top.
	dp.StackPointer--
	dp.WriteRegister(ops.A, 7)
	require.NoError(t, dp.MemoryWrite(ops.A, true))

	// grab: the control unit increments sp in its execute stage before the
	// memory stage reads at sp-1, i.e. the slot push just wrote.
	dp.StackPointer++
	require.NoError(t, dp.MemoryRead(ops.B, true))
	assert.Equal(t, int64(7), dp.ReadRegister(ops.B))
}
