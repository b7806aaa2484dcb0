// Package datapath holds all mutable machine state: the two general
// registers, data memory with its memory-mapped device window, the stack
// sharing the memory array, instruction memory, and the current-instruction
// register.
package datapath

import (
	"encoding/json"
	"fmt"

	"github.com/carp-lang/carp/alu"
	"github.com/carp-lang/carp/ops"
)

// Default device count, address assignments, and memory size (§6
// "Configured constants"); MachineConfig overrides any of these per run.
const (
	DeviceCount   = 16
	InputAddress  = 1
	OutputAddress = 3
	DefaultSize   = 100
)

// MachineConfig sets the machine's tunable dimensions. A zero field falls
// back to this package's default for that dimension, so callers that don't
// care about configurability can leave a MachineConfig (or the whole
// struct) unset.
type MachineConfig struct {
	DeviceCount    int
	InputAddress   int
	OutputAddress  int
	DataMemorySize int
}

func (c MachineConfig) withDefaults() MachineConfig {
	if c.DeviceCount <= 0 {
		c.DeviceCount = DeviceCount
	}
	if c.InputAddress <= 0 {
		c.InputAddress = InputAddress
	}
	if c.OutputAddress <= 0 {
		c.OutputAddress = OutputAddress
	}
	if c.DataMemorySize <= 0 {
		c.DataMemorySize = DefaultSize
	}
	return c
}

// RuntimeError is a device-access failure: touching an unconnected
// memory-mapped device index.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

// IndexError is an out-of-range ordinary-memory access.
type IndexError struct {
	Message string
}

func (e *IndexError) Error() string { return e.Message }

// DataPath bundles the registers, memory, stack, devices, and instruction
// stream a Control Unit drives through fetch/execute/memory.
type DataPath struct {
	registers map[ops.Register]int64
	Flags     alu.Flags

	Memory        []int64
	MemoryPointer int
	StackPointer  int

	InstructionMemory []ops.Operation
	InstructionPointer int
	Command           *ops.Operation

	deviceCount   int
	inputAddress  int
	outputAddress int
	io            map[int][]int64
	lastIO        map[int]*int64
}

// New builds a DataPath with dataMemorySize words, the given instruction
// stream, and a pre-loaded input buffer (consumed first-char-first), using
// this package's default device count and addresses.
func New(dataMemorySize int, instructions []ops.Operation, input []int64) *DataPath {
	return NewWithConfig(MachineConfig{DataMemorySize: dataMemorySize}, instructions, input)
}

// NewWithConfig builds a DataPath the way New does, but lets the caller
// override the device count and device addresses too (wired from
// config.Config.Machine by callers that load one).
func NewWithConfig(cfg MachineConfig, instructions []ops.Operation, input []int64) *DataPath {
	cfg = cfg.withDefaults()

	reversed := make([]int64, len(input))
	for i, v := range input {
		reversed[len(input)-1-i] = v
	}

	return &DataPath{
		registers:          map[ops.Register]int64{ops.A: 0, ops.B: 0},
		Memory:             make([]int64, cfg.DataMemorySize),
		StackPointer:       cfg.DataMemorySize,
		InstructionMemory:  instructions,
		deviceCount:        cfg.DeviceCount,
		inputAddress:       cfg.InputAddress,
		outputAddress:      cfg.OutputAddress,
		io:                 map[int][]int64{cfg.InputAddress: reversed, cfg.OutputAddress: {}},
		lastIO:             map[int]*int64{},
	}
}

// Accumulator returns register A's current value.
func (d *DataPath) Accumulator() int64 { return d.registers[ops.A] }

// Buffer returns register B's current value.
func (d *DataPath) Buffer() int64 { return d.registers[ops.B] }

// ReadRegister returns a register's current value.
func (d *DataPath) ReadRegister(r ops.Register) int64 { return d.registers[r] }

// WriteRegister sets a register's value.
func (d *DataPath) WriteRegister(r ops.Register, value int64) { d.registers[r] = value }

// Output returns the accumulated OUTPUT device buffer.
func (d *DataPath) Output() []int64 { return d.io[d.outputAddress] }

// ReadCommand latches the instruction at the current instruction pointer
// into Command and reports true, or reports false when the pointer has
// walked off the end of the instruction memory.
func (d *DataPath) ReadCommand() bool {
	if d.InstructionPointer >= len(d.InstructionMemory) {
		return false
	}
	cmd := d.InstructionMemory[d.InstructionPointer]
	d.Command = &cmd
	return true
}

func (d *DataPath) device(index int) ([]int64, error) {
	device, ok := d.io[index]
	if !ok {
		return nil, &RuntimeError{Message: fmt.Sprintf("Device %d not connected", index)}
	}
	return device, nil
}

// ALUExecute plugs target/source into the ALU, updates the current flags,
// and returns the wrapped result.
func (d *DataPath) ALUExecute(op alu.Op, target, source int64, flags bool) (int64, error) {
	result, newFlags, err := alu.Execute(op, target, source, flags, d.Flags)
	if err != nil {
		return 0, err
	}
	d.Flags = newFlags
	return result, nil
}

// MemoryRead loads from the stack top (stack=true, index sp-1) or the
// memory pointer (stack=false) into dest, routed through the ALU's Left
// passthrough so Zero/Negative reflect the loaded value.
func (d *DataPath) MemoryRead(dest ops.Register, stack bool) error {
	index := d.MemoryPointer
	if stack {
		index = d.StackPointer - 1
	}

	var data int64
	switch {
	case index >= 0 && index < d.deviceCount:
		device, err := d.device(index)
		if err != nil {
			return err
		}
		if len(device) == 0 {
			data = 0
		} else {
			data = device[len(device)-1]
			d.io[index] = device[:len(device)-1]
		}
		v := data
		d.lastIO[index] = &v
	case index >= d.deviceCount && index < len(d.Memory):
		data = d.Memory[index]
	default:
		return &IndexError{Message: "An attempt to read from outside the memory"}
	}

	result, err := d.ALUExecute(alu.Left, data, 0, true)
	if err != nil {
		return err
	}
	d.WriteRegister(dest, result)
	return nil
}

// MemoryWrite stores src to the stack top (stack=true, index sp) or the
// memory pointer (stack=false).
func (d *DataPath) MemoryWrite(src ops.Register, stack bool) error {
	data := d.ReadRegister(src)
	index := d.MemoryPointer
	if stack {
		index = d.StackPointer
	}

	switch {
	case index >= 0 && index < d.deviceCount:
		device, err := d.device(index)
		if err != nil {
			return err
		}
		d.io[index] = append(device, data)
		v := data
		d.lastIO[index] = &v
	case index >= d.deviceCount && index < len(d.Memory):
		d.Memory[index] = data
	default:
		return &IndexError{Message: "An attempt to write to outside the memory"}
	}
	return nil
}

// Snapshot is one cycle's worth of machine state (§6 "Execution log").
type Snapshot struct {
	Accumulator        int64
	Buffer             int64
	MemoryPointer      int
	StackPointer       int
	InstructionPointer int
	Command            *ops.Operation
	Zero               bool
	Negative           bool
	Input              *int64
	Output             *int64
}

type wireRegistries struct {
	Accumulator        int64        `json:"accumulator"`
	Buffer             int64        `json:"buffer"`
	MemoryPointer      int          `json:"memory_pointer"`
	StackPointer       int          `json:"stack_pointer"`
	InstructionPointer int          `json:"instruction_pointer"`
	CommandData        *ops.Operation `json:"command_data"`
}

type wireFlags struct {
	Zero     bool `json:"zero"`
	Negative bool `json:"negative"`
}

type wireSnapshot struct {
	Registries wireRegistries `json:"registries"`
	Flags      wireFlags      `json:"flags"`
	Input      *int64         `json:"input"`
	Output     *int64         `json:"output"`
}

// MarshalJSON renders a Snapshot as §6's "Execution log" entry shape.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSnapshot{
		Registries: wireRegistries{
			Accumulator:        s.Accumulator,
			Buffer:             s.Buffer,
			MemoryPointer:      s.MemoryPointer,
			StackPointer:       s.StackPointer,
			InstructionPointer: s.InstructionPointer,
			CommandData:        s.Command,
		},
		Flags:  wireFlags{Zero: s.Zero, Negative: s.Negative},
		Input:  s.Input,
		Output: s.Output,
	})
}

// RecordState snapshots all registers, flags, and any device activity that
// happened since the previous snapshot, then clears the pending-I/O log.
func (d *DataPath) RecordState() Snapshot {
	snap := Snapshot{
		Accumulator:        d.Accumulator(),
		Buffer:             d.Buffer(),
		MemoryPointer:      d.MemoryPointer,
		StackPointer:       d.StackPointer,
		InstructionPointer: d.InstructionPointer,
		Command:            d.Command,
		Zero:               d.Flags.Zero,
		Negative:           d.Flags.Negative,
		Input:              d.lastIO[d.inputAddress],
		Output:             d.lastIO[d.outputAddress],
	}
	d.lastIO = map[int]*int64{}
	return snap
}
