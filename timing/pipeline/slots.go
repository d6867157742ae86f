package pipeline

import (
	"fmt"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
)

// Stage identifies one of the five pipeline slots.
type Stage int

// Pipeline stages, in program order.
const (
	StageIF Stage = iota
	StageID
	StageEX
	StageMEM
	StageWB

	// NumStages is the number of pipeline slots.
	NumStages = 5
)

var stageNames = [NumStages]string{"IF", "ID", "EX", "MEM", "WB"}

func (s Stage) String() string {
	if s < 0 || int(s) >= NumStages {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Stages returns all stages in slot order.
func Stages() []Stage {
	return []Stage{StageIF, StageID, StageEX, StageMEM, StageWB}
}

// Slot holds the occupant of one pipeline position.
//
// A freshly fetched instruction sits undecoded in the ID slot; from the EX
// slot onward the occupant is decoded.
type Slot struct {
	// Valid indicates if this slot holds an instruction.
	Valid bool

	// Index is the position of the instruction in the program.
	Index int

	// Inst is the raw instruction record.
	Inst *insts.Instruction

	// Decoded is set once the occupant has passed decode.
	Decoded *insts.Decoded

	// Executed is set once the occupant has passed execute; Effect then
	// holds what it committed.
	Executed bool
	Effect   emu.Effect
}

// Clear resets the slot to empty state.
func (s *Slot) Clear() {
	*s = Slot{}
}

// Text renders the occupant: the raw text before decode, the canonical
// decoded form after.
func (s Slot) Text() string {
	switch {
	case !s.Valid:
		return ""
	case s.Decoded != nil:
		return s.Decoded.String()
	case s.Inst != nil:
		return s.Inst.Text
	default:
		return ""
	}
}

// View returns an immutable summary of the slot.
func (s Slot) View() SlotView {
	if !s.Valid {
		return SlotView{}
	}
	return SlotView{
		Valid:   true,
		Index:   s.Index,
		Decoded: s.Decoded != nil,
		Text:    s.Text(),
	}
}

// SlotView is the recorded state of one slot at the end of a cycle.
type SlotView struct {
	Valid   bool
	Index   int
	Decoded bool
	Text    string
}

// CycleRecord is a snapshot of every slot at the end of one cycle.
type CycleRecord struct {
	// Cycle is the 1-based cycle number.
	Cycle uint64
	Slots [NumStages]SlotView
}

// Slot returns the recorded view of a stage.
func (r CycleRecord) Slot(stage Stage) SlotView {
	return r.Slots[stage]
}

// Occupancy returns the number of occupied slots.
func (r CycleRecord) Occupancy() int {
	n := 0
	for _, s := range r.Slots {
		if s.Valid {
			n++
		}
	}
	return n
}
