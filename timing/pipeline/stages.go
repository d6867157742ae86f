// Package pipeline provides the 5-slot pipeline model that replays how a
// program occupies the IF, ID, EX, MEM and WB stages cycle by cycle.
package pipeline

import (
	"fmt"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/cache"
)

// FetchStage reads instruction records from the program.
type FetchStage struct {
	program []*insts.Instruction
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(program []*insts.Instruction) *FetchStage {
	return &FetchStage{program: program}
}

// Fetch returns the instruction at pc as an undecoded slot.
func (s *FetchStage) Fetch(pc int) (Slot, bool) {
	if pc < 0 || pc >= len(s.program) {
		return Slot{}, false
	}
	return Slot{Valid: true, Index: pc, Inst: s.program[pc]}, true
}

// Len returns the program length.
func (s *FetchStage) Len() int {
	return len(s.program)
}

// DecodeStage turns a raw occupant into a decoded one.
type DecodeStage struct {
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(decoder *insts.Decoder) *DecodeStage {
	return &DecodeStage{decoder: decoder}
}

// Decode decodes the occupant of slot.
func (s *DecodeStage) Decode(slot Slot) (Slot, error) {
	decoded, err := s.decoder.Decode(slot.Inst)
	if err != nil {
		return Slot{}, err
	}
	slot.Decoded = decoded
	return slot, nil
}

// ExecuteStage commits each instruction's architectural effect.
type ExecuteStage struct {
	executor *emu.Executor
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage(executor *emu.Executor) *ExecuteStage {
	return &ExecuteStage{executor: executor}
}

// Execute executes the occupant of slot.
func (s *ExecuteStage) Execute(slot Slot) (Slot, error) {
	if slot.Decoded == nil {
		return Slot{}, fmt.Errorf("execute: instruction %d was not decoded", slot.Index)
	}

	effect, err := s.executor.Execute(slot.Decoded)
	if err != nil {
		return Slot{}, err
	}

	slot.Executed = true
	slot.Effect = effect
	return slot, nil
}

// MemoryStage is the memory-access bookkeeping stage. Memory itself was
// already updated at execute time; with a D-cache attached the stage
// records the access against it.
type MemoryStage struct {
	dcache *cache.Cache
}

// NewMemoryStage creates a new memory stage. dcache may be nil.
func NewMemoryStage(dcache *cache.Cache) *MemoryStage {
	return &MemoryStage{dcache: dcache}
}

// Access records the occupant's memory access, if any.
func (s *MemoryStage) Access(slot Slot) (cache.AccessResult, bool) {
	if s.dcache == nil || !slot.Effect.IsMemAccess {
		return cache.AccessResult{}, false
	}

	if slot.Effect.IsStore {
		return s.dcache.Write(slot.Effect.Addr), true
	}
	return s.dcache.Read(slot.Effect.Addr), true
}

// WritebackStage retires instructions.
type WritebackStage struct {
	executor *emu.Executor
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(executor *emu.Executor) *WritebackStage {
	return &WritebackStage{executor: executor}
}

// Writeback retires the occupant of slot. Returns true if an instruction
// retired.
func (s *WritebackStage) Writeback(slot Slot) bool {
	if !slot.Valid {
		return false
	}
	s.executor.WriteBack(slot.Decoded)
	return true
}
