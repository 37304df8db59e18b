// Package main provides the CLI entry point for incyte, a stress testing
// tool that compares a candidate program against a reference program on
// generated input.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/weiihann/incyte/config"
	"github.com/weiihann/incyte/report"
	"github.com/weiihann/incyte/stress"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		report.Errorf(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var (
		opts       stress.Options
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "incyte",
		Short: "Stress test a program against a reference solution",
		Long: `Incyte generates test input, builds and runs your program and a
reference (good) program on it, and compares their outputs line by line.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			pipeline := stress.New(cfg, logger)
			if isatty.IsTerminal(os.Stderr.Fd()) {
				pipeline.Progress = os.Stderr
			}

			_, err = pipeline.Run(cmd.Context(), opts, cmd.OutOrStdout())

			return err
		},
	}

	persistent := root.PersistentFlags()
	persistent.StringVar(&configPath, "config", "",
		"Path to the command configuration file (default: ./incyte.yaml)")
	persistent.BoolVarP(&verbose, "verbose", "v", false,
		"Log resolved commands and other debug output")

	flags := root.Flags()
	flags.IntVarP(&opts.TestCases, "testcases", "t", 10,
		"Number of test cases")
	flags.StringVarP(&opts.File, "file", "f", "",
		"Path to the program to be tested")
	flags.StringVar(&opts.GoodFile, "good-file", "Good.cpp",
		"Path to the reference (good) program")
	flags.StringVar(&opts.InputFile, "input-file", "input.txt",
		"Input file for both programs")
	flags.StringVar(&opts.OutputFile, "output-file", "output.txt",
		"Output file written by your program")
	flags.StringVar(&opts.GoodOutputFile, "good_output-file", "output_good.txt",
		"Output file written by the reference program")
	flags.StringVar(&opts.CustomGenerator, "custom-generator", "",
		"Path to a Go plugin (.so) exporting "+
			"GenerateInput(testcases int, filename string) error")
	flags.Int64Var(&opts.Seed, "seed", 0,
		"Random seed for the built-in generator (0 = use current time)")
	flags.DurationVar(&opts.Timeout, "timeout", 0,
		"Per-program run timeout (0 = no limit)")
	flags.BoolVar(&opts.JSON, "json", false,
		"Output the report as JSON")

	if err := root.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("mark file flag required: %v", err))
	}

	root.AddCommand(newConfigCmd(&configPath))

	return root
}

func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective build and run command configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			return config.Dump(cmd.OutOrStdout(), cfg)
		},
	}
}
