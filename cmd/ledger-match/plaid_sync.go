package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/expenseflow/ledger-match/internal/cli"
	"github.com/expenseflow/ledger-match/internal/plaid"
)

func init() {
	plaidSyncCmd := &cobra.Command{
		Use:   "plaid-sync",
		Short: "Pull bank transactions through the Plaid API",
		Long: `Fetch transactions for the given period from Plaid and store them
locally. Re-running a period is safe; transactions already imported are
skipped by hash.`,
		RunE: runPlaidSync,
	}

	addPeriodFlags(plaidSyncCmd)
	rootCmd.AddCommand(plaidSyncCmd)
}

func runPlaidSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	period, err := periodFromFlags(cmd)
	if err != nil {
		return err
	}

	client, err := plaid.NewClient(plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	})
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
	}

	transactions, err := client.FetchTransactions(ctx, period.Start, period.End)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if len(transactions) == 0 {
		fmt.Println(cli.FormatWarning("No transactions returned for the period"))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Synced %d transactions", len(transactions))))
	return nil
}
