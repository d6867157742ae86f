package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/pipesim/benchmarks"
)

func newExampleCmd(opts *options) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Run the built-in reference program",
		Long: `Example runs the reference program

	LW  $r1, 0($r0)
	LW  $r2, 4($r0)
	ADD $r3, $r1, $r2
	SW  $r3, 8($r0)

with memory[0] = 5 and memory[4] = 7. It takes 7 cycles and leaves 12 in
$r3 and memory[8].
`,
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, opts)
			if err := opts.config.Validate(); err != nil {
				return err
			}

			return simulate(cmd.Context(), cmd.OutOrStdout(), opts, flags,
				benchmarks.ReferenceExample())
		},
	}

	flags.register(cmd)

	return cmd
}
