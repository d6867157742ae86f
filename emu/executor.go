package emu

import (
	"fmt"

	"github.com/sarchlab/pipesim/insts"
)

// Effect describes the architectural change made by one instruction.
type Effect struct {
	Op insts.Op

	// WritesReg is true when Reg was written (ADD, SUB, LW).
	WritesReg bool
	Reg       insts.Reg

	// IsMemAccess is true for LW and SW; Addr is the effective address.
	IsMemAccess bool
	IsStore     bool
	Addr        int64

	// Value is the value written to Reg or to memory.
	Value int64
}

// Executor applies decoded instructions to a register file and memory.
// All architectural effects are committed by Execute.
type Executor struct {
	regFile *RegFile
	memory  *Memory

	alu *ALU
	lsu *LoadStoreUnit
}

// NewExecutor creates an executor bound to the given state.
func NewExecutor(regFile *RegFile, memory *Memory) *Executor {
	return &Executor{
		regFile: regFile,
		memory:  memory,
		alu:     NewALU(regFile),
		lsu:     NewLoadStoreUnit(regFile, memory),
	}
}

// Execute commits the effect of inst.
func (e *Executor) Execute(inst *insts.Decoded) (Effect, error) {
	if inst == nil {
		return Effect{}, fmt.Errorf("execute: nil instruction")
	}

	effect := Effect{Op: inst.Op}

	switch inst.Op {
	case insts.OpADD:
		effect.WritesReg = true
		effect.Reg = inst.Rd
		effect.Value = e.alu.ADD(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSUB:
		effect.WritesReg = true
		effect.Reg = inst.Rd
		effect.Value = e.alu.SUB(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpLW:
		effect.WritesReg = true
		effect.Reg = inst.Rt
		effect.IsMemAccess = true
		effect.Addr, effect.Value = e.lsu.LW(inst.Rt, inst.Base, inst.Offset)
	case insts.OpSW:
		effect.IsMemAccess = true
		effect.IsStore = true
		effect.Addr, effect.Value = e.lsu.SW(inst.Rt, inst.Base, inst.Offset)
	default:
		return Effect{}, fmt.Errorf("execute %q: unimplemented op %v", inst.Mnemonic, inst.Op)
	}

	return effect, nil
}

// WriteBack is the write-back stage action. Effects are committed at
// execute time, so there is nothing left to do here.
func (e *Executor) WriteBack(inst *insts.Decoded) {}
