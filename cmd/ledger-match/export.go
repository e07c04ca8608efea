package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/expenseflow/ledger-match/internal/cli"
	"github.com/expenseflow/ledger-match/internal/config"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/sheets"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export accepted matches to Google Sheets",
		Long: `Export all accepted matches whose document date falls in the given
period to a Google Sheets spreadsheet for the accounting handoff.`,
		RunE: runExport,
	}

	addPeriodFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	period, err := periodFromFlags(cmd)
	if err != nil {
		return err
	}

	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("sheets configuration: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	accepted, err := store.GetMatchResultsByStatus(ctx, model.MatchAccepted)
	if err != nil {
		return fmt.Errorf("failed to load accepted matches: %w", err)
	}

	summary := sheets.ExportSummary{
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
	}
	var rows []sheets.ExportRow

	for i := range accepted {
		result := accepted[i]

		doc, err := store.GetDocumentByID(ctx, result.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to load document %s: %w", result.DocumentID, err)
		}
		if doc.Date.Before(period.Start) || doc.Date.After(period.End) {
			continue
		}

		row := sheets.ExportRow{Document: *doc, Result: result}
		if result.TransactionID != "" {
			txn, err := store.GetTransactionByID(ctx, result.TransactionID)
			if err != nil {
				return fmt.Errorf("failed to load transaction %s: %w", result.TransactionID, err)
			}
			row.Transaction = txn
		}

		summary.TotalGross = summary.TotalGross.Add(doc.Total)
		if doc.VATAmount != nil {
			summary.TotalVAT = summary.TotalVAT.Add(*doc.VATAmount)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		fmt.Println(cli.FormatWarning("No accepted matches in the period, nothing to export"))
		return nil
	}

	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	if err := writer.Write(ctx, rows, &summary); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d matches", len(rows))))
	return nil
}
