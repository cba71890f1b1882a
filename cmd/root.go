package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/report"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "broombot",
		Short: "Sweep stale pull requests",
		Long: `A bot that keeps pull requests moving. It warns on pull requests whose
comment threads have gone quiet, abandons them after repeated warnings, and
turns keyword comments into work items.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format := log.Format(opts.LogFormat)
			if format != log.FormatText && format != log.FormatJSON {
				return fmt.Errorf("invalid log format: %s (must be text or json)", opts.LogFormat)
			}
			log.Initialize(opts.Verbosity, format, os.Stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPass(cmd, opts)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: global config merged with ./.broombot.yaml)")
	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", string(log.FormatText), "Log format (text, json)")

	// Add run flags to root command so `broombot` and `broombot run` work identically
	addRunFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdRun(opts))
	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdConfig(opts))
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit(opts))
	rootCmd.AddCommand(NewCmdHistory(opts))

	return rootCmd
}

func validateOutput(format string) error {
	switch report.Format(format) {
	case report.FormatTable, report.FormatJSON:
		return nil
	}
	return fmt.Errorf("invalid output format: %s (must be table or json)", format)
}
