// Package emu provides functional emulation of the simulator's
// architectural state: the register file, memory and the instruction
// executor.
package emu

import "github.com/sarchlab/pipesim/insts"

// RegFile represents the architectural register file.
// It holds 32 signed general-purpose registers ($r0-$r31), all zero at
// creation. $r0 is an ordinary register and may be written.
type RegFile struct {
	// R holds registers $r0-$r31.
	R [insts.NumRegs]int64
}

// NewRegFile creates a zeroed register file.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg insts.Reg) int64 {
	return r.R[reg]
}

// WriteReg writes a value to a register.
func (r *RegFile) WriteReg(reg insts.Reg, value int64) {
	r.R[reg] = value
}

// Snapshot returns a copy of all registers keyed by name ("$r0".."$r31").
func (r *RegFile) Snapshot() map[string]int64 {
	snapshot := make(map[string]int64, insts.NumRegs)
	for i, v := range r.R {
		snapshot[insts.Reg(i).String()] = v
	}
	return snapshot
}

// Reset zeroes every register.
func (r *RegFile) Reset() {
	r.R = [insts.NumRegs]int64{}
}
