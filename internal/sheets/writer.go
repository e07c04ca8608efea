package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
)

// ExportRow is one accepted match with its full context.
type ExportRow struct {
	Document    model.ExtractedDocument
	Transaction *model.Transaction
	Result      model.MatchResult
}

// ExportSummary describes the period being exported.
type ExportSummary struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalGross  decimal.Decimal
	TotalVAT    decimal.Decimal
}

// Writer exports accepted matches to a Google Sheets spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets exporter.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Write replaces the spreadsheet contents with the given export.
func (w *Writer) Write(ctx context.Context, rows []ExportRow, summary *ExportSummary) error {
	w.logger.Info("starting export",
		"rows", len(rows),
		"period", fmt.Sprintf("%s to %s", summary.PeriodStart.Format("2006-01-02"), summary.PeriodEnd.Format("2006-01-02")))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := w.prepareExportData(rows, summary)

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID)
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service using either a
// service account or OAuth2 refresh token.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Matches",
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareExportData lays out the summary block and the match table.
func (w *Writer) prepareExportData(rows []ExportRow, summary *ExportSummary) [][]any {
	values := make([][]any, 0, len(rows)+8)

	values = append(values,
		[]any{
			"Expense Export",
			fmt.Sprintf("%s - %s", summary.PeriodStart.Format("Jan 2, 2006"), summary.PeriodEnd.Format("Jan 2, 2006")),
		},
		[]any{},
		[]any{"Total Gross", summary.TotalGross.StringFixed(2)},
		[]any{"Total VAT", summary.TotalVAT.StringFixed(2)},
		[]any{"Matched Documents", len(rows)},
		[]any{},
		[]any{
			"Doc Date", "Merchant", "Invoice No", "Gross", "VAT", "Currency",
			"Txn Date", "Txn Description", "Account", "Tier", "Confidence",
		},
	)

	// Stable output ordering for diffs between exports
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Document.Date.Equal(rows[j].Document.Date) {
			return rows[i].Document.Date.Before(rows[j].Document.Date)
		}
		return rows[i].Document.ID < rows[j].Document.ID
	})

	for _, row := range rows {
		vat := ""
		if row.Document.VATAmount != nil {
			vat = row.Document.VATAmount.StringFixed(2)
		}

		txnDate, txnName, account := "", "", ""
		if row.Transaction != nil {
			txnDate = row.Transaction.Date.Format("2006-01-02")
			txnName = row.Transaction.Name
			account = row.Transaction.AccountID
		}

		values = append(values, []any{
			row.Document.Date.Format("2006-01-02"),
			row.Document.MerchantName,
			row.Document.InvoiceNumber,
			row.Document.Total.StringFixed(2),
			vat,
			row.Document.Currency,
			txnDate,
			txnName,
			account,
			string(row.Result.Tier),
			fmt.Sprintf("%.2f", row.Result.Confidence),
		})
	}

	return values
}

// writeData writes all rows starting at A1.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	valueRange := &sheets.ValueRange{Values: values}

	_, err := w.service.Spreadsheets.Values.
		Update(spreadsheetID, "A1", valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

// applyFormatting bolds the title and the table header.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string) error {
	boldRow := func(rowIndex int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					StartRowIndex: rowIndex,
					EndRowIndex:   rowIndex + 1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		}
	}

	// Row 0 is the title, row 7 is the table header
	batch := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{boldRow(0), boldRow(7)},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batch).Context(ctx).Do()
	return err
}
