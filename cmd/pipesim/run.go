package main

import (
	"context"
	"fmt"
	"io"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/sarchlab/pipesim/benchmarks"
	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/timing/pipeline"
	"github.com/sarchlab/pipesim/trace"
)

type runFlags struct {
	format    string
	dcache    bool
	allRegs   bool
	maxCycles uint64
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "",
		"table format: text, markdown, csv or html (overrides config)")
	cmd.Flags().BoolVar(&f.dcache, "dcache", false,
		"attach the data-cache statistics model (overrides config)")
	cmd.Flags().BoolVar(&f.allRegs, "all-regs", false,
		"list all registers, not only nonzero ones")
	cmd.Flags().Uint64Var(&f.maxCycles, "max-cycles", 0,
		"abort after this many cycles, 0 for no limit (overrides config)")
}

// apply copies explicitly set flags over the loaded configuration.
func (f *runFlags) apply(cmd *cobra.Command, opts *options) {
	if cmd.Flags().Changed("format") {
		opts.config.TraceFormat = f.format
	}
	if cmd.Flags().Changed("dcache") {
		opts.config.DCache.Enabled = f.dcache
	}
	if cmd.Flags().Changed("max-cycles") {
		opts.config.MaxCycles = f.maxCycles
	}
}

func newRunCmd(opts *options) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program file and print its pipeline trace",
		Long: `Run loads an assembly (.s, .asm, ...) or YAML (.yaml, .yml) program,
simulates it to completion and prints the pipeline table followed by the
final registers and memory.
`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, opts)
			if err := opts.config.Validate(); err != nil {
				return err
			}

			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			return simulate(cmd.Context(), cmd.OutOrStdout(), opts, flags,
				benchmarks.FromProgram(prog))
		},
	}

	flags.register(cmd)

	return cmd
}

// simulate runs bench on a fresh register file and memory and writes the
// report to out. The report is written even when the run fails so that the
// cycles before the failure remain visible.
func simulate(
	ctx context.Context,
	out io.Writer,
	opts *options,
	flags *runFlags,
	bench benchmarks.Benchmark,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := trace.ParseFormat(opts.config.TraceFormat)
	if err != nil {
		return err
	}

	regFile := emu.NewRegFile()
	memory := emu.NewMemory()
	if bench.Setup != nil {
		bench.Setup(regFile, memory)
	}

	if opts.verbose {
		printer := pp.New()
		printer.SetOutput(opts.errOut)
		printer.SetColoringEnabled(false)
		_, _ = printer.Println(bench.Name, bench.Program)
	}

	pipeOpts := append(opts.config.PipelineOptions(), pipeline.WithLogger(opts.logger))
	pipe := pipeline.NewPipeline(regFile, memory, bench.Program, pipeOpts...)
	pipe.AcceptHook(&retireLogger{logger: opts.logger})

	runErr := pipe.Run(ctx)

	var regOpts []trace.RegisterOption
	if flags.allRegs {
		regOpts = append(regOpts, trace.AllRegisters())
	}

	sections := []struct {
		title string
		write func() error
	}{
		{"Pipeline", func() error {
			return trace.Render(out, trace.PipelineTable(pipe.History()), format)
		}},
		{"Registers", func() error {
			return trace.Render(out, trace.RegisterTable(regFile, regOpts...), format)
		}},
		{"Memory", func() error {
			return trace.Render(out, trace.MemoryTable(memory), format)
		}},
	}

	for _, s := range sections {
		if format == trace.FormatText || format == trace.FormatMarkdown {
			fmt.Fprintf(out, "%s\n", s.title)
		}
		if err := s.write(); err != nil {
			return err
		}
	}

	if format == trace.FormatText || format == trace.FormatMarkdown {
		printStats(out, pipe)
	}

	return runErr
}

func printStats(out io.Writer, pipe *pipeline.Pipeline) {
	stats := pipe.Stats()

	fmt.Fprintf(out, "Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(out, "Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(out, "CPI: %.2f\n", stats.CPI())

	if dc, ok := pipe.DCacheStats(); ok {
		fmt.Fprintf(out, "D-Cache: %d hits, %d misses (%.1f%% hit rate)\n",
			dc.Hits, dc.Misses, 100*dc.HitRate())
	}
}
