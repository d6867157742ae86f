package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/core"
	"github.com/sarchlab/pipesim/timing/pipeline"
	"github.com/sarchlab/pipesim/trace"
)

// Expectation is the final state a benchmark must reach.
type Expectation struct {
	// Cycles is the expected cycle count.
	Cycles uint64

	// Regs lists every register expected to be nonzero.
	Regs map[insts.Reg]int64

	// Memory lists every memory word expected to be written.
	Memory map[int64]int64
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark shows
	Description string

	// Setup prepares the initial register and memory state
	Setup func(regFile *emu.RegFile, memory *emu.Memory)

	// Program is the instruction sequence to execute
	Program []*insts.Instruction

	// Expect is checked after the run when non-nil
	Expect *Expectation
}

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark shows
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Match is true when the pipeline's final state equals the functional
	// emulator's and every expectation holds.
	Match bool `json:"match"`

	// Mismatches describes each difference found.
	Mismatches []string `json:"mismatches,omitempty"`

	// Error is the run error, if any.
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache attaches the data-cache statistics model.
	EnableDCache bool

	// DCache is the data-cache geometry used when EnableDCache is set.
	DCache cache.Config

	// MaxCycles guards against runaway runs. 0 disables the guard.
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives per-run records (default: discarded)
	Logger *slog.Logger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDCache: true,
		DCache:       cache.DefaultConfig(),
		MaxCycles:    100000,
		Output:       os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.Run(bench))
	}

	return results
}

// Run executes a single benchmark on the akita-driven core and on the
// functional emulator, then compares the two.
func (h *Harness) Run(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	// Timing run
	regFile := emu.NewRegFile()
	memory := emu.NewMemory()
	if bench.Setup != nil {
		bench.Setup(regFile, memory)
	}

	opts := []pipeline.PipelineOption{
		pipeline.WithMaxCycles(h.config.MaxCycles),
		pipeline.WithLogger(h.config.Logger),
	}
	if h.config.EnableDCache {
		opts = append(opts, pipeline.WithDCache(h.config.DCache))
	}

	c := core.NewBuilder().
		WithPipelineOptions(opts...).
		Build("Core", regFile, memory, bench.Program)

	start := time.Now()
	err := c.Run()
	result.WallTime = time.Since(start)

	stats := c.Pipeline.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()

	if dc, ok := c.Pipeline.DCacheStats(); ok {
		result.DCacheHits = dc.Hits
		result.DCacheMisses = dc.Misses
	}

	if err != nil {
		result.Error = err.Error()
		h.config.Logger.Warn("benchmark failed",
			slog.String("name", bench.Name), slog.Any("err", err))
		return result
	}

	// Functional reference run
	refRegs := emu.NewRegFile()
	refMem := emu.NewMemory()
	if bench.Setup != nil {
		bench.Setup(refRegs, refMem)
	}
	ref := emu.NewEmulator(emu.WithRegFile(refRegs), emu.WithMemory(refMem))
	ref.LoadProgram(bench.Program)
	if err := ref.Run(); err != nil {
		result.Error = fmt.Sprintf("emulator: %v", err)
		return result
	}

	result.Mismatches = append(result.Mismatches,
		compareState("emulator", regFile, memory, refRegs, refMem)...)
	if ref.InstructionCount() != stats.Instructions {
		result.Mismatches = append(result.Mismatches, fmt.Sprintf(
			"instructions: pipeline %d, emulator %d",
			stats.Instructions, ref.InstructionCount()))
	}

	if bench.Expect != nil {
		result.Mismatches = append(result.Mismatches,
			checkExpectation(bench.Expect, stats.Cycles, regFile, memory)...)
	}

	result.Match = len(result.Mismatches) == 0

	h.config.Logger.Info("benchmark done",
		slog.String("name", bench.Name),
		slog.Uint64("cycles", result.SimulatedCycles),
		slog.Bool("match", result.Match))

	return result
}

func compareState(
	against string,
	regFile *emu.RegFile, memory *emu.Memory,
	refRegs *emu.RegFile, refMem *emu.Memory,
) []string {
	var diffs []string

	for i := 0; i < insts.NumRegs; i++ {
		r := insts.Reg(i)
		if got, want := regFile.ReadReg(r), refRegs.ReadReg(r); got != want {
			diffs = append(diffs, fmt.Sprintf("%v: pipeline %d, %s %d", r, got, against, want))
		}
	}

	for _, addr := range unionAddresses(memory.Snapshot(), refMem.Snapshot()) {
		got, _ := memory.Peek(addr)
		want, _ := refMem.Peek(addr)
		if got != want {
			diffs = append(diffs, fmt.Sprintf("mem[%d]: pipeline %d, %s %d", addr, got, against, want))
		}
	}

	return diffs
}

func checkExpectation(
	expect *Expectation,
	cycles uint64,
	regFile *emu.RegFile,
	memory *emu.Memory,
) []string {
	var diffs []string

	if cycles != expect.Cycles {
		diffs = append(diffs, fmt.Sprintf("cycles: got %d, want %d", cycles, expect.Cycles))
	}

	for i := 0; i < insts.NumRegs; i++ {
		r := insts.Reg(i)
		if got, want := regFile.ReadReg(r), expect.Regs[r]; got != want {
			diffs = append(diffs, fmt.Sprintf("%v: got %d, want %d", r, got, want))
		}
	}

	snapshot := memory.Snapshot()
	for _, addr := range unionAddresses(snapshot, expect.Memory) {
		got, gotOK := snapshot[addr]
		want, wantOK := expect.Memory[addr]
		if got != want || gotOK != wantOK {
			diffs = append(diffs, fmt.Sprintf("mem[%d]: got %d, want %d", addr, got, want))
		}
	}

	return diffs
}

func unionAddresses(a, b map[int64]int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	addrs := make([]int64, 0, len(a)+len(b))
	for _, m := range []map[int64]int64{a, b} {
		for addr := range m {
			if !seen[addr] {
				seen[addr] = true
				addrs = append(addrs, addr)
			}
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// ResultsTable builds a summary table of results.
func ResultsTable(results []BenchmarkResult) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{
		"Benchmark", "Cycles", "Instructions", "CPI", "D$ Hits", "D$ Misses", "Match",
	})

	for _, r := range results {
		match := "yes"
		if !r.Match {
			match = "no"
		}
		tw.AppendRow(table.Row{
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			fmt.Sprintf("%.3f", r.CPI),
			r.DCacheHits,
			r.DCacheMisses,
			match,
		})
	}

	return tw
}

// PrintResults outputs benchmark results as a table, followed by the
// mismatches of any failing benchmark.
func (h *Harness) PrintResults(results []BenchmarkResult, format trace.Format) error {
	if err := trace.Render(h.config.Output, ResultsTable(results), format); err != nil {
		return err
	}

	for _, r := range results {
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "%s: error: %s\n", r.Name, r.Error)
		}
		for _, m := range r.Mismatches {
			_, _ = fmt.Fprintf(h.config.Output, "%s: %s\n", r.Name, m)
		}
	}

	return nil
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// DCacheEnabled records whether the D-cache model was attached
	DCacheEnabled bool `json:"dcache_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Matched is the number of benchmarks whose state matched
	Matched int `json:"matched"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize computes aggregate statistics over results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}

	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
		if r.Match {
			summary.Matched++
		}
	}

	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			DCacheEnabled: h.config.EnableDCache,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
