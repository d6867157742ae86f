// Package insts provides instruction definitions and decoding for the
// pipeline simulator's small MIPS-like instruction set.
//
// This package turns textual instruction records into structured
// instruction representations. It supports:
//   - Register arithmetic: ADD, SUB (rd, rs, rt)
//   - Memory access: LW, SW (rt, offset(base))
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(insts.NewInstruction("ADD $r3, $r1, $r2"))
//	fmt.Printf("Op: %v, Rd: %v, Rs: %v, Rt: %v\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
package insts
