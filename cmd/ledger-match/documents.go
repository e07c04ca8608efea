package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/expenseflow/ledger-match/internal/cli"
	"github.com/expenseflow/ledger-match/internal/extract"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/service"
)

func init() {
	documentsCmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage extracted expense documents",
	}

	extractCmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract documents from receipt/invoice files using AI",
		Long: `Run AI extraction over receipt or invoice files (PDF, PNG, JPG, WEBP)
and store the extracted documents for matching.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDocumentsExtract,
	}

	importCmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import pre-extracted documents from JSON files",
		Long: `Import documents already extracted elsewhere. Each file must contain one
JSON object in the extraction contract format; field values are normalized
on import.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDocumentsImport,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		RunE:  runDocumentsList,
	}
	listCmd.Flags().Int("limit", 50, "Maximum documents to show")
	listCmd.Flags().Int("offset", 0, "Offset into the result set")
	listCmd.Flags().String("type", "", "Filter by document type (receipt, invoice, bank_statement)")

	documentsCmd.AddCommand(extractCmd, importCmd, listCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := extract.NewClient(ctx, viper.GetString("extract.model"))
	if err != nil {
		return fmt.Errorf("failed to create extraction client: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var saved, failed int
	for _, path := range args {
		data, err := os.ReadFile(path) // #nosec G304
		if err != nil {
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", path, err)))
			failed++
			continue
		}

		doc, err := client.Extract(ctx, filepath.Base(path), data)
		if err != nil {
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", path, err)))
			failed++
			continue
		}

		if err := store.SaveDocument(ctx, doc); err != nil {
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", path, err)))
			failed++
			continue
		}

		fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s: %s %s %s",
			filepath.Base(path), doc.MerchantName, doc.Total.StringFixed(2), doc.Currency)))
		saved++
	}

	if failed > 0 {
		return fmt.Errorf("extracted %d document(s), %d failed", saved, failed)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Extracted %d document(s)", saved)))
	return nil
}

func runDocumentsImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var saved int
	for _, path := range args {
		data, err := os.ReadFile(path) // #nosec G304
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		doc, err := extract.ParseDocument(data, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if err := store.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
		saved++
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d document(s)", saved)))
	return nil
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	typeStr, _ := cmd.Flags().GetString("type")

	filter := service.DocumentFilter{Limit: limit, Offset: offset}
	if typeStr != "" {
		docType := model.DocumentType(typeStr)
		filter.Type = &docType
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	docs, err := store.ListDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println(cli.FormatWarning("No documents found"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tDATE\tMERCHANT\tTOTAL\tCURRENCY")
	for i := range docs {
		doc := &docs[i]
		date := ""
		if !doc.Date.IsZero() {
			date = doc.Date.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			doc.ID, doc.Type, date, doc.MerchantName, doc.Total.StringFixed(2), doc.Currency)
	}
	return w.Flush()
}
