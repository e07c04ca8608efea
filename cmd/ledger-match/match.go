package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/expenseflow/ledger-match/internal/cli"
	"github.com/expenseflow/ledger-match/internal/config"
	"github.com/expenseflow/ledger-match/internal/engine"
)

func init() {
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Match open documents against transactions in a period",
		Long: `Run a matching pass over all documents without an accepted or rejected
match, against the transactions of the given statement period. Re-running
the same period with the same data produces the same assignments.`,
		RunE: runMatch,
	}

	addPeriodFlags(matchCmd)
	matchCmd.Flags().Bool("progress", true, "Show a progress bar")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	period, err := periodFromFlags(cmd)
	if err != nil {
		return err
	}

	matchCfg, err := config.LoadMatchConfig()
	if err != nil {
		return fmt.Errorf("invalid matching configuration: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var opts []engine.Option
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		opts = append(opts, engine.WithProgressBar())
	}

	eng, err := engine.New(store, matchCfg, opts...)
	if err != nil {
		return err
	}

	stats, err := eng.MatchPeriod(ctx, period)
	if err != nil {
		return fmt.Errorf("matching run failed: %w", err)
	}

	fmt.Println(cli.RenderBox("Matching results", fmt.Sprintf(
		"Documents:         %d\nAuto-accepted:     %d\nQueued for review: %d\nUnmatched:         %d\nDuration:          %s",
		stats.TotalDocuments, stats.AutoAccepted, stats.QueuedForReview, stats.Unmatched,
		stats.Duration.Round(time.Millisecond))))

	return nil
}
