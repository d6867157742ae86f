package emu

import "github.com/sarchlab/pipesim/insts"

// LoadStoreUnit implements word loads and stores.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// EffectiveAddress returns base + offset.
func (lsu *LoadStoreUnit) EffectiveAddress(base insts.Reg, offset int64) int64 {
	return lsu.regFile.ReadReg(base) + offset
}

// LW performs rt = mem[base + offset] and returns the address and the value
// loaded. Unwritten addresses load 0.
func (lsu *LoadStoreUnit) LW(rt, base insts.Reg, offset int64) (int64, int64) {
	addr := lsu.EffectiveAddress(base, offset)
	value := lsu.memory.Read(addr)
	lsu.regFile.WriteReg(rt, value)
	return addr, value
}

// SW performs mem[base + offset] = rt and returns the address and the value
// stored.
func (lsu *LoadStoreUnit) SW(rt, base insts.Reg, offset int64) (int64, int64) {
	addr := lsu.EffectiveAddress(base, offset)
	value := lsu.regFile.ReadReg(rt)
	lsu.memory.Write(addr, value)
	return addr, value
}
