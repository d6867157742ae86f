package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/cache"
)

// ErrCycleLimit is returned when a run exceeds the configured cycle limit.
var ErrCycleLimit = errors.New("cycle limit reached")

// HookPosCycleEnd marks the end of a cycle. The hook item is the
// CycleRecord appended for that cycle.
var HookPosCycleEnd = &sim.HookPos{Name: "Pipeline Cycle End"}

// HookPosRetire marks an instruction leaving the WB slot. The hook item is
// the retired Slot.
var HookPosRetire = &sim.HookPos{Name: "Pipeline Retire"}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// Fetched is the number of instructions fetched.
	Fetched uint64
	// ALUOps is the number of ADD/SUB instructions executed.
	ALUOps uint64
	// Loads is the number of LW instructions executed.
	Loads uint64
	// Stores is the number of SW instructions executed.
	Stores uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithDecoder sets the instruction decoder.
func WithDecoder(decoder *insts.Decoder) PipelineOption {
	return func(p *Pipeline) {
		p.decoder = decoder
	}
}

// WithDCache attaches a data-cache statistics model to the MEM stage.
func WithDCache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		p.dcache = cache.New(config)
	}
}

// WithMaxCycles aborts a run with ErrCycleLimit after the given number of
// cycles. A value of 0 means no limit.
func WithMaxCycles(max uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxCycles = max
	}
}

// WithLogger sets the logger that receives per-cycle debug records.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline implements the 5-slot pipeline.
// Slots: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
//
// There is no hazard detection, forwarding, stalling or branching: every
// occupant advances exactly one slot per cycle.
type Pipeline struct {
	sim.HookableBase

	slots [NumStages]Slot

	// Pipeline stages
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	decoder *insts.Decoder
	dcache  *cache.Cache

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory

	// Program counter: index of the next instruction to fetch.
	pc int

	history History
	stats   Statistics

	maxCycles uint64
	logger    *slog.Logger

	// Execution state
	halted bool
	err    error
}

// NewPipeline creates a new pipeline running program against the given
// register file and memory.
func NewPipeline(
	regFile *emu.RegFile,
	memory *emu.Memory,
	program []*insts.Instruction,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		regFile: regFile,
		memory:  memory,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.decoder == nil {
		p.decoder = insts.NewDecoder()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}

	executor := emu.NewExecutor(regFile, memory)
	p.fetchStage = NewFetchStage(program)
	p.decodeStage = NewDecodeStage(p.decoder)
	p.executeStage = NewExecuteStage(executor)
	p.memoryStage = NewMemoryStage(p.dcache)
	p.writebackStage = NewWritebackStage(executor)

	return p
}

// PC returns the index of the next instruction to fetch.
func (p *Pipeline) PC() int {
	return p.pc
}

// Slot returns the current occupant of a stage.
func (p *Pipeline) Slot(stage Stage) Slot {
	return p.slots[stage]
}

// History returns the cycle records collected so far.
func (p *Pipeline) History() *History {
	return &p.history
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// DCacheStats returns the data-cache statistics if a D-cache is attached.
func (p *Pipeline) DCacheStats() (cache.Statistics, bool) {
	if p.dcache == nil {
		return cache.Statistics{}, false
	}
	return p.dcache.Stats(), true
}

// Halted returns true if the pipeline has halted.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Err returns the error that aborted the run, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Empty returns true if no slot holds an instruction.
func (p *Pipeline) Empty() bool {
	for _, s := range p.slots {
		if s.Valid {
			return false
		}
	}
	return true
}

// Run executes the pipeline until it halts. The context is checked between
// cycles.
func (p *Pipeline) Run(ctx context.Context) error {
	for !p.halted {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Tick()
	}
	return p.err
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Tick executes one pipeline cycle.
//
// Slots are processed from last to first (WB, MEM, EX, ID, IF) so that no
// occupant overwrites another within the cycle. The fetch step writes the
// new instruction straight into the ID slot, which decode has just
// vacated, so the IF slot is never occupied and an instruction takes four
// cycles from fetch to WB.
//
// Retiring the WB occupant happens at the start of a cycle. If that leaves
// the pipeline empty with nothing left to fetch, the pipeline halts and the
// pass does not count as a cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	// Stage 5: Writeback
	p.doWriteback()

	if p.Empty() && p.pc >= p.fetchStage.Len() {
		p.halted = true
		p.logger.Debug("pipeline halted",
			slog.Uint64("cycles", p.stats.Cycles),
			slog.Uint64("instructions", p.stats.Instructions))
		return
	}

	if p.maxCycles > 0 && p.stats.Cycles >= p.maxCycles {
		p.fail(fmt.Errorf("%w: %d", ErrCycleLimit, p.maxCycles))
		return
	}

	p.stats.Cycles++

	// Stage 4: Memory
	p.doMemory()

	// Stage 3: Execute
	if err := p.doExecute(); err != nil {
		p.fail(fmt.Errorf("cycle %d: %w", p.stats.Cycles, err))
		return
	}

	// Stage 2: Decode
	if err := p.doDecode(); err != nil {
		p.fail(fmt.Errorf("cycle %d: %w", p.stats.Cycles, err))
		return
	}

	// Stage 1: Fetch
	p.doFetch()

	p.record()
}

func (p *Pipeline) doWriteback() {
	wb := p.slots[StageWB]
	if !p.writebackStage.Writeback(wb) {
		return
	}

	p.stats.Instructions++
	p.slots[StageWB].Clear()

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosRetire,
		Item:   wb,
	})
}

func (p *Pipeline) doMemory() {
	mem := p.slots[StageMEM]
	if !mem.Valid {
		return
	}

	if result, ok := p.memoryStage.Access(mem); ok {
		p.logger.Debug("dcache access",
			slog.Int64("addr", mem.Effect.Addr),
			slog.Bool("store", mem.Effect.IsStore),
			slog.Bool("hit", result.Hit))
	}

	p.slots[StageWB] = mem
	p.slots[StageMEM].Clear()
}

func (p *Pipeline) doExecute() error {
	ex := p.slots[StageEX]
	if !ex.Valid {
		return nil
	}

	executed, err := p.executeStage.Execute(ex)
	if err != nil {
		return err
	}

	switch executed.Effect.Op {
	case insts.OpADD, insts.OpSUB:
		p.stats.ALUOps++
	case insts.OpLW:
		p.stats.Loads++
	case insts.OpSW:
		p.stats.Stores++
	}

	p.slots[StageMEM] = executed
	p.slots[StageEX].Clear()
	return nil
}

func (p *Pipeline) doDecode() error {
	id := p.slots[StageID]
	if !id.Valid {
		return nil
	}

	decoded, err := p.decodeStage.Decode(id)
	if err != nil {
		return err
	}

	p.slots[StageEX] = decoded
	p.slots[StageID].Clear()
	return nil
}

func (p *Pipeline) doFetch() {
	fetched, ok := p.fetchStage.Fetch(p.pc)
	if !ok {
		return
	}

	p.slots[StageID] = fetched
	p.pc++
	p.stats.Fetched++
}

func (p *Pipeline) record() {
	record := CycleRecord{Cycle: p.stats.Cycles}
	for i, s := range p.slots {
		record.Slots[i] = s.View()
	}
	p.history.append(record)

	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		attrs := []any{slog.Uint64("cycle", record.Cycle)}
		for _, stage := range Stages() {
			attrs = append(attrs, slog.String(stage.String(), record.Slot(stage).Text))
		}
		p.logger.Debug("cycle", attrs...)
	}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosCycleEnd,
		Item:   record,
	})
}

func (p *Pipeline) fail(err error) {
	p.err = err
	p.halted = true
	p.logger.Error("pipeline aborted", slog.Any("err", err))
}

// Reset clears all pipeline state so the program can be replayed. The
// register file and memory are left untouched.
func (p *Pipeline) Reset() {
	for i := range p.slots {
		p.slots[i].Clear()
	}
	p.pc = 0
	p.history.reset()
	p.stats = Statistics{}
	p.halted = false
	p.err = nil
	if p.dcache != nil {
		p.dcache.Reset()
	}
}
