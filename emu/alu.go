package emu

import "github.com/sarchlab/pipesim/insts"

// ALU implements register arithmetic. Results wrap on overflow.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ADD performs rd = rs + rt and returns the result.
func (a *ALU) ADD(rd, rs, rt insts.Reg) int64 {
	result := a.regFile.ReadReg(rs) + a.regFile.ReadReg(rt)
	a.regFile.WriteReg(rd, result)
	return result
}

// SUB performs rd = rs - rt and returns the result.
func (a *ALU) SUB(rd, rs, rt insts.Reg) int64 {
	result := a.regFile.ReadReg(rs) - a.regFile.ReadReg(rt)
	a.regFile.WriteReg(rd, result)
	return result
}
