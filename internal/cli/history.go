package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/workplan/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Workload string
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Workload string               `json:"workload"`
	Entries  []store.HistoryEntry `json:"entries"`
	Changes  int                  `json:"changes"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "List archived report fingerprints for a workload",
		Long: `List every archived report of a workload, oldest first, and flag the
runs whose report differs from the one archived before it.`,
		Example:       `  workplan history plans.db --workload physics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workload, "workload", "", "workload to list (required)")
	_ = cmd.MarkFlagRequired("workload")

	return cmd
}

func runHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Opening would create an empty archive.
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath), nil)
		return WrapExitError(ExitCommandError, "opening archive", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening archive", err)
	}
	defer st.Close()

	entries, err := st.History(cmd.Context(), opts.Workload)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading history", err)
	}

	result := HistoryResult{Workload: opts.Workload, Entries: entries}
	for _, e := range entries {
		if e.Changed {
			result.Changes++
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	if len(entries) == 0 {
		printWarning(formatter.Writer, fmt.Sprintf("no archived reports for %s", opts.Workload))
		return nil
	}
	printHeader(formatter.Writer, fmt.Sprintf("history of %s (%d runs, %d changes)", opts.Workload, len(entries), result.Changes))
	for _, e := range entries {
		marker := " "
		if e.Changed {
			marker = "*"
		}
		fmt.Fprintf(formatter.Writer, "  %s %4d  %s  %s\n", marker, e.Seq, shortHash(e.ReportHash), e.RunID)
	}
	return nil
}

// shortHash trims a fingerprint for display.
func shortHash(h string) string {
	const n = 12
	if len(h) <= n {
		return h
	}
	return h[:n]
}
