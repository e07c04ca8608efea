package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/expenseflow/ledger-match/internal/config"
	"github.com/expenseflow/ledger-match/internal/service"
	"github.com/expenseflow/ledger-match/internal/storage"
)

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/ledger-match/ledger.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// periodFromFlags reads --start and --end into a statement period. An unset
// end defaults to today; an unset start defaults to 31 days before the end.
func periodFromFlags(cmd *cobra.Command) (service.Period, error) {
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")

	end := time.Now()
	if endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return service.Period{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -31)
	if startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return service.Period{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
		}
		start = parsed
	}

	if start.After(end) {
		return service.Period{}, fmt.Errorf("start date is after end date")
	}

	return service.Period{Start: start, End: end}, nil
}

func addPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "period start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "period end date (YYYY-MM-DD, default today)")
}
