// Package benchmarks provides a catalog of example programs and a harness
// that runs them on the timing pipeline and checks the result against the
// functional emulator.
package benchmarks

import (
	"fmt"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/loader"
)

// GetMicrobenchmarks returns the standard set of example programs.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		ReferenceExample(),
		singleAdd(),
		subChain(),
		storeLoadRoundTrip(),
		negativeOffset(),
		writeZeroRegister(),
		emptyProgram(),
	}
}

// Lookup finds a catalog benchmark by name.
func Lookup(name string) (Benchmark, bool) {
	for _, b := range GetMicrobenchmarks() {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// FromProgram wraps a loaded program as a benchmark with no expected state.
func FromProgram(prog *loader.Program) Benchmark {
	return Benchmark{
		Name:        prog.Name,
		Description: fmt.Sprintf("%d instructions loaded from file", len(prog.Instructions)),
		Setup:       prog.Apply,
		Program:     prog.Instructions,
	}
}

// ReferenceExample is the canonical two-loads, add, store program.
func ReferenceExample() Benchmark {
	return Benchmark{
		Name:        "reference_example",
		Description: "LW, LW, ADD, SW - loads 5 and 7, stores their sum",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			memory.Write(0, 5)
			memory.Write(4, 7)
		},
		Program: insts.NewProgram(
			"LW $r1, 0($r0)",
			"LW $r2, 4($r0)",
			"ADD $r3, $r1, $r2",
			"SW $r3, 8($r0)",
		),
		Expect: &Expectation{
			Cycles: 7,
			Regs:   map[insts.Reg]int64{1: 5, 2: 7, 3: 12},
			Memory: map[int64]int64{0: 5, 4: 7, 8: 12},
		},
	}
}

func singleAdd() Benchmark {
	return Benchmark{
		Name:        "single_add",
		Description: "one ADD - the minimum fetch-to-writeback latency",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(1, 2)
			regFile.WriteReg(2, 3)
		},
		Program:        insts.NewProgram("ADD $r3, $r1, $r2"),
		Expect: &Expectation{
			Cycles: 4,
			Regs:   map[insts.Reg]int64{1: 2, 2: 3, 3: 5},
		},
	}
}

// subChain reads each result one cycle after it is produced.
func subChain() Benchmark {
	const n = 10

	program := make([]*insts.Instruction, n)
	for i := range program {
		program[i] = insts.NewInstruction("SUB $r1, $r1, $r2")
	}

	return Benchmark{
		Name:        "sub_chain",
		Description: "10 dependent SUBs (r1 = r1 - r2) - results commit at EX",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(1, 100)
			regFile.WriteReg(2, 1)
		},
		Program:        program,
		Expect: &Expectation{
			Cycles: n + 3,
			Regs:   map[insts.Reg]int64{1: 100 - n, 2: 1},
		},
	}
}

func storeLoadRoundTrip() Benchmark {
	return Benchmark{
		Name:        "store_load_round_trip",
		Description: "SW then LW of the same word",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(1, 42)
		},
		Program: insts.NewProgram(
			"SW $r1, 16($r0)",
			"LW $r2, 16($r0)",
		),
		Expect: &Expectation{
			Cycles: 5,
			Regs:   map[insts.Reg]int64{1: 42, 2: 42},
			Memory: map[int64]int64{16: 42},
		},
	}
}

func negativeOffset() Benchmark {
	return Benchmark{
		Name:        "negative_offset",
		Description: "LW with a negative offset from a nonzero base",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(4, 20)
			memory.Write(16, 9)
		},
		Program:        insts.NewProgram("LW $r5, -4($r4)"),
		Expect: &Expectation{
			Cycles: 4,
			Regs:   map[insts.Reg]int64{4: 20, 5: 9},
			Memory: map[int64]int64{16: 9},
		},
	}
}

// writeZeroRegister shows that $r0 is an ordinary register.
func writeZeroRegister() Benchmark {
	return Benchmark{
		Name:        "write_zero_register",
		Description: "ADD into $r0 - $r0 is not hardwired",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(1, 3)
		},
		Program:        insts.NewProgram("ADD $r0, $r1, $r1"),
		Expect: &Expectation{
			Cycles: 4,
			Regs:   map[insts.Reg]int64{0: 6, 1: 3},
		},
	}
}

func emptyProgram() Benchmark {
	return Benchmark{
		Name:        "empty",
		Description: "no instructions - halts before the first cycle",
		Expect: &Expectation{
			Cycles: 0,
		},
	}
}
