package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expenseflow/ledger-match/internal/cli"
)

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Bring the local database schema up to the current version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.FormatSuccess("Database schema is up to date"))
			return nil
		},
	}

	rootCmd.AddCommand(migrateCmd)
}
