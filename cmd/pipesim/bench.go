package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pipesim/benchmarks"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/trace"
)

func newBenchCmd(opts *options) *cobra.Command {
	var (
		flags      runFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "bench [program...]",
		Short: "Check the pipeline against the functional emulator",
		Long: `Bench runs the built-in program catalog, plus any program files given
as arguments, on the akita-driven pipeline core and on the functional
emulator, and reports cycles, CPI and whether the final states match.
It fails if any program does not match.
`,

		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, opts)
			if err := opts.config.Validate(); err != nil {
				return err
			}

			format, err := trace.ParseFormat(opts.config.TraceFormat)
			if err != nil {
				return err
			}

			config := benchmarks.DefaultConfig()
			config.EnableDCache = opts.config.DCache.Enabled
			config.DCache = opts.config.DCache.Config
			config.MaxCycles = opts.config.MaxCycles
			config.Output = cmd.OutOrStdout()
			config.Logger = opts.logger

			harness := benchmarks.NewHarness(config)
			harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())

			for _, path := range args {
				prog, err := loader.Load(path)
				if err != nil {
					return err
				}
				harness.AddBenchmark(benchmarks.FromProgram(prog))
			}

			results := harness.RunAll()

			if jsonOutput {
				err = harness.PrintJSON(results)
			} else {
				err = harness.PrintResults(results, format)
			}
			if err != nil {
				return err
			}

			summary := benchmarks.Summarize(results)
			if summary.Matched != summary.TotalBenchmarks {
				return fmt.Errorf("%d of %d benchmarks did not match",
					summary.TotalBenchmarks-summary.Matched, summary.TotalBenchmarks)
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print a JSON report")

	return cmd
}
