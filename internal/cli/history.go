package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wirecue/wirecue/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	Limit   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `History reads the generation journal and lists past runs, newest first,
with their declaration-set and plan fingerprints.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", ".wirecue.db", "generation journal database path")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 lists all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := formatterFor(cmd, opts.RootOptions)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	journal, err := store.Open(opts.Journal)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("opening journal: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: opening journal", ErrCodeJournal))
	}
	defer journal.Close()

	runs, err := journal.List(ctx, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("listing runs: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: listing runs", ErrCodeJournal))
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "no runs recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  %d record(s)\n",
			run.CreatedAt.Format("2006-01-02 15:04:05"), run.ManifestDir, run.Records)
		fmt.Fprintf(formatter.Writer, "  declarations %s\n", run.Declarations)
		fmt.Fprintf(formatter.Writer, "  plan         %s\n", run.Plan)
	}
	return nil
}
