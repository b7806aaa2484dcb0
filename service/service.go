// Package service provides Session, a façade coordinating the translator
// and the control unit for both the CLI and the TUI/GUI debuggers, so
// neither front end duplicates "translate, build a data path, step" logic.
package service

import (
	"fmt"
	"sync"

	"github.com/carp-lang/carp/config"
	"github.com/carp-lang/carp/control"
	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/lexer"
	"github.com/carp-lang/carp/ops"
	"github.com/carp-lang/carp/reader"
	"github.com/carp-lang/carp/translator"
)

// translatorConfig and dataPathConfig translate a loaded config.Config's
// Machine section into the translator's and datapath's own MachineConfig
// shapes, so the same device dimensions reach both halves of a run. A nil
// cfg yields the zero MachineConfig, which each package defaults on its
// own.
func translatorConfig(cfg *config.Config) translator.MachineConfig {
	if cfg == nil {
		return translator.MachineConfig{}
	}
	return translator.MachineConfig{
		DeviceCount:   cfg.Machine.DeviceCount,
		InputAddress:  cfg.Machine.InputAddress,
		OutputAddress: cfg.Machine.OutputAddress,
	}
}

func dataPathConfig(cfg *config.Config, dataMemorySize int) datapath.MachineConfig {
	dpCfg := datapath.MachineConfig{DataMemorySize: dataMemorySize}
	if cfg != nil {
		dpCfg.DeviceCount = cfg.Machine.DeviceCount
		dpCfg.InputAddress = cfg.Machine.InputAddress
		dpCfg.OutputAddress = cfg.Machine.OutputAddress
		if dpCfg.DataMemorySize <= 0 {
			dpCfg.DataMemorySize = cfg.Machine.DataMemorySize
		}
	}
	return dpCfg
}

// ExecutionState mirrors the Control Unit's run state for UI display.
type ExecutionState string

const (
	StateReady    ExecutionState = "ready"
	StateRunning  ExecutionState = "running"
	StateFinished ExecutionState = "finished"
	StateError    ExecutionState = "error"
)

// Session owns one compiled program and its Control Unit, and serializes
// access so the TUI and GUI can share it safely across goroutines.
type Session struct {
	mu      sync.RWMutex
	program []ops.Operation
	cfg     *config.Config
	control *control.ControlUnit
	state   ExecutionState
	lastErr error
}

// TranslateSource lexes, reads, and translates source text into a compiled
// program using default device dimensions, wrapping it in a fresh Session
// with no input loaded yet.
func TranslateSource(source string) (*Session, error) {
	return TranslateSourceWithConfig(source, nil)
}

// TranslateSourceWithConfig translates source the way TranslateSource does,
// but lowers it using cfg.Machine's device dimensions and remembers cfg so
// a later Load builds an executor with the matching dimensions and cycle
// cap. A nil cfg behaves exactly like TranslateSource.
func TranslateSourceWithConfig(source string, cfg *config.Config) (*Session, error) {
	symbols, err := lexer.Scan(source)
	if err != nil {
		return nil, err
	}
	program, err := translator.TranslateWithConfig(reader.New(symbols), translatorConfig(cfg))
	if err != nil {
		return nil, err
	}
	sess := NewSession(program)
	sess.cfg = cfg
	return sess, nil
}

// NewSession wraps an already-compiled program, ready to Load input and run,
// using default device dimensions and cycle cap.
func NewSession(program []ops.Operation) *Session {
	return NewSessionWithConfig(program, nil)
}

// NewSessionWithConfig wraps an already-compiled program the way NewSession
// does, but remembers cfg so a later Load builds an executor with its
// device dimensions and cycle cap. A nil cfg behaves exactly like
// NewSession.
func NewSessionWithConfig(program []ops.Operation, cfg *config.Config) *Session {
	return &Session{program: program, cfg: cfg, state: StateReady}
}

// Load builds a fresh Control Unit over the session's program with the
// given input buffer, discarding any prior run. dataMemorySize overrides
// any value from a config.Config the session was translated with; pass 0
// to use that config's (or the package default's) size.
func (s *Session) Load(input []int64, dataMemorySize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dp := datapath.NewWithConfig(dataPathConfig(s.cfg, dataMemorySize), s.program, input)
	s.control = control.New(dp)
	if s.cfg != nil {
		s.control.MaxCycles = s.cfg.Machine.MaxCycles
	}
	s.state = StateReady
	s.lastErr = nil
}

// Reset rebuilds the Control Unit from scratch over the same program,
// exactly as Load does: it uses the input buffer and data memory size
// passed to it, not those of an earlier Load.
func (s *Session) Reset(input []int64, dataMemorySize int) {
	s.Load(input, dataMemorySize)
}

// Step runs exactly one fetch/execute/memory cycle.
func (s *Session) Step() (finished bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.control == nil {
		return false, fmt.Errorf("service: session has no loaded program")
	}

	finished, err = s.control.Step()
	switch {
	case err != nil:
		s.state = StateError
		s.lastErr = err
	case finished:
		s.state = StateFinished
	default:
		s.state = StateRunning
	}
	return finished, err
}

// Run executes the full program to completion or the first runtime error.
func (s *Session) Run() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.control == nil {
		return fmt.Errorf("service: session has no loaded program")
	}

	err := s.control.Run()
	if err != nil {
		s.state = StateError
		s.lastErr = err
		return err
	}
	s.state = StateFinished
	return nil
}

// State reports the session's current execution state.
func (s *Session) State() ExecutionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastError returns the error (if any) that ended the last Step or Run.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Program returns the session's compiled operation list.
func (s *Session) Program() []ops.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.program
}

// Log returns the Control Unit's per-cycle snapshot log gathered so far.
func (s *Session) Log() []datapath.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.control == nil {
		return nil
	}
	return s.control.Log
}

// Snapshot returns the most recent snapshot, or the zero value if none
// has been recorded yet.
func (s *Session) Snapshot() datapath.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.control == nil || len(s.control.Log) == 0 {
		return datapath.Snapshot{}
	}
	return s.control.Log[len(s.control.Log)-1]
}

// Output returns the OUTPUT device's accumulated bytes so far.
func (s *Session) Output() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.control == nil {
		return nil
	}
	return s.control.DataPath.Output()
}

// OutputString decodes Output's bytes as characters.
func (s *Session) OutputString() string {
	out := s.Output()
	runes := make([]rune, len(out))
	for i, v := range out {
		runes[i] = rune(v)
	}
	return string(runes)
}

// DataPath exposes the underlying data path for the debugger front ends,
// which need direct read access to registers, memory, and the stack.
func (s *Session) DataPath() *datapath.DataPath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.control == nil {
		return nil
	}
	return s.control.DataPath
}

// StringToInput converts text into the int64 buffer Load expects, appending
// a trailing zero so a `(loop (!= (input) 0) ...)` cat-style program
// terminates (§8 S2).
func StringToInput(text string) []int64 {
	buf := make([]int64, len(text)+1)
	for i, r := range text {
		buf[i] = int64(r)
	}
	return buf
}
