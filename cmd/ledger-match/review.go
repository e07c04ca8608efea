package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expenseflow/ledger-match/internal/cli"
)

func init() {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Review queued matches interactively",
		Long: `Walk through the review queue item by item: accept or reject proposed
matches, assign transactions manually for unmatched documents, or skip.
Decisions apply immediately; quitting keeps everything decided so far.`,
		RunE: runReview,
	}

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	prompter := cli.NewPrompter(store, os.Stdin, os.Stdout)
	_, err = prompter.Run(ctx)
	return err
}
