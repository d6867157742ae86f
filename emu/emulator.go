package emu

import (
	"fmt"

	"github.com/sarchlab/pipesim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Done is true once every instruction of the program has executed.
	Done bool

	// Effect is the change made by the instruction, if one executed.
	Effect Effect

	// Err is set if an error occurred during decode or execution.
	Err error
}

// Emulator executes a program functionally, one instruction at a time and
// without a pipeline. It is the reference against which pipelined runs are
// checked.
type Emulator struct {
	regFile  *RegFile
	memory   *Memory
	decoder  *insts.Decoder
	executor *Executor

	program []*insts.Instruction
	pc      int

	instructionCount uint64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithRegFile makes the emulator operate on an existing register file.
func WithRegFile(regFile *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = regFile
	}
}

// WithMemory makes the emulator operate on an existing memory.
func WithMemory(memory *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// NewEmulator creates a new functional emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: NewRegFile(),
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.executor = NewExecutor(e.regFile, e.memory)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram sets the program and rewinds to its first instruction.
func (e *Emulator) LoadProgram(program []*insts.Instruction) {
	e.program = program
	e.pc = 0
}

// Step decodes and executes the next instruction.
func (e *Emulator) Step() StepResult {
	if e.pc >= len(e.program) {
		return StepResult{Done: true}
	}

	inst, err := e.decoder.Decode(e.program[e.pc])
	if err != nil {
		return StepResult{Err: fmt.Errorf("instruction %d: %w", e.pc, err)}
	}

	effect, err := e.executor.Execute(inst)
	if err != nil {
		return StepResult{Err: fmt.Errorf("instruction %d: %w", e.pc, err)}
	}

	e.pc++
	e.instructionCount++

	return StepResult{Effect: effect, Done: e.pc >= len(e.program)}
}

// Run executes instructions until the program ends or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Done {
			return nil
		}
	}
}
