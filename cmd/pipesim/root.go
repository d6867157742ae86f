package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pipesim/config"
)

// options is the state shared by all subcommands.
type options struct {
	configPath string
	verbose    bool
	logLevel   string
	cpuProfile string
	memProfile string

	config *config.Config
	logger *slog.Logger
	errOut io.Writer

	stopProfiling func()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "pipesim",
		Short: "A five-stage instruction pipeline simulator",
		Long: `Pipesim simulates an in-order IF/ID/EX/MEM/WB pipeline running
ADD, SUB, LW and SW, and prints which instruction occupies each stage
in every clock cycle.
`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.stopProfiling != nil {
				opts.stopProfiling()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a JSON configuration file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every cycle and retirement")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
	flags.StringVar(&opts.memProfile, "memprofile", "", "write a heap profile to this file")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newExampleCmd(opts),
		newBenchCmd(opts),
	)

	return rootCmd
}

func (o *options) setup(cmd *cobra.Command) error {
	o.config = config.DefaultConfig()
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		o.config = loaded
	}

	if o.logLevel != "" {
		o.config.LogLevel = o.logLevel
	}
	if o.verbose {
		o.config.LogLevel = "debug"
	}

	if err := o.config.Validate(); err != nil {
		return err
	}

	level, err := config.ParseLogLevel(o.config.LogLevel)
	if err != nil {
		return err
	}

	if o.cpuProfile != "" || o.memProfile != "" {
		stop, err := startProfiling(o.cpuProfile, o.memProfile)
		if err != nil {
			return err
		}
		o.stopProfiling = stop
	}

	o.errOut = cmd.ErrOrStderr()
	o.logger = slog.New(slog.NewTextHandler(o.errOut, &slog.HandlerOptions{
		Level: level,
	}))

	return nil
}
