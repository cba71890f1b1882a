package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spiffcs/broombot/internal/history"
	"github.com/spiffcs/broombot/internal/report"
)

// NewCmdHistory creates the history command.
func NewCmdHistory(opts *Options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show summaries of recent passes",
		Long:  `Show the summaries recorded by recent run and watch passes on this machine.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(opts.Output); err != nil {
				return err
			}
			path, err := history.DefaultPath()
			if err != nil {
				return err
			}
			store, err := history.NewStore(path)
			if err != nil {
				return err
			}
			records, err := store.Recent(limit)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), records, report.Format(opts.Output))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of passes to show (0 for all)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format (table, json)")

	return cmd
}

func writeHistory(w io.Writer, records []history.Record, format report.Format) error {
	if format == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No passes recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-17s  %-8s  %7s  %5s  %6s  %5s  %9s  %10s  %s\n",
		"Time (UTC)", "Run", "Scanned", "Stale", "Warned", "Reset", "Abandoned", "Work items", "Result")
	for _, r := range records {
		result := "ok"
		switch {
		case r.Error != "":
			result = "failed: " + r.Error
		case r.DryRun:
			result = "ok (dry run)"
		}
		runID := r.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		fmt.Fprintf(w, "%-17s  %-8s  %7d  %5d  %6d  %5d  %9d  %10d  %s\n",
			r.Timestamp.UTC().Format("2006-01-02 15:04"), runID,
			r.Scanned, r.Stale, r.Warned, r.Reset, r.Abandoned, r.WorkItems, result)
	}
	return nil
}
