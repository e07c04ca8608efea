package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/service"
)

// SaveDocument inserts or replaces an extracted document.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *model.ExtractedDocument) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	lineItems, err := json.Marshal(doc.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}
	confidence, err := json.Marshal(doc.Confidence)
	if err != nil {
		return fmt.Errorf("failed to marshal confidence: %w", err)
	}

	var vat any
	if doc.VATAmount != nil {
		vat = doc.VATAmount.String()
	}

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, type, total, currency, doc_date, merchant_name,
			vat_amount, tax_id, invoice_number, source_file,
			line_items, confidence, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			total = excluded.total,
			currency = excluded.currency,
			doc_date = excluded.doc_date,
			merchant_name = excluded.merchant_name,
			vat_amount = excluded.vat_amount,
			tax_id = excluded.tax_id,
			invoice_number = excluded.invoice_number,
			source_file = excluded.source_file,
			line_items = excluded.line_items,
			confidence = excluded.confidence
	`,
		doc.ID,
		string(doc.Type),
		doc.Total.String(),
		doc.Currency,
		doc.Date,
		doc.MerchantName,
		vat,
		doc.TaxID,
		doc.InvoiceNumber,
		doc.SourceFile,
		string(lineItems),
		string(confidence),
		doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetDocumentByID retrieves a single document.
func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, id string) (*model.ExtractedDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, documentSelect+" WHERE id = ?", id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetDocumentsToMatch returns documents in the period that still need a
// match: never resolved, unmatched, or waiting in the review queue. Documents
// with an accepted or rejected result keep their outcome.
func (s *SQLiteStorage) GetDocumentsToMatch(ctx context.Context, period service.Period) ([]model.ExtractedDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, documentSelect+`
		WHERE doc_date >= ? AND doc_date <= ?
		AND id NOT IN (
			SELECT document_id FROM match_results WHERE status IN ('ACCEPTED', 'REJECTED')
		)
		ORDER BY doc_date, id
	`, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectDocuments(rows)
}

// ListDocuments returns documents matching the filter.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, filter service.DocumentFilter) ([]model.ExtractedDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := documentSelect + " WHERE 1=1"
	var args []any
	if filter.Type != nil {
		query += " AND type = ?"
		args = append(args, string(*filter.Type))
	}
	if filter.StartDate != nil {
		query += " AND doc_date >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += " AND doc_date <= ?"
		args = append(args, *filter.EndDate)
	}
	query += " ORDER BY doc_date DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectDocuments(rows)
}

// AppendCorrection records a human correction to an extracted field. The log
// is append-only; prior entries are never modified.
func (s *SQLiteStorage) AppendCorrection(ctx context.Context, correction *model.Correction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCorrection(correction); err != nil {
		return err
	}

	if correction.CorrectedAt.IsZero() {
		correction.CorrectedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO document_corrections (
			document_id, field, old_value, new_value, corrected_by, corrected_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		correction.DocumentID,
		correction.Field,
		correction.OldValue,
		correction.NewValue,
		correction.CorrectedBy,
		correction.CorrectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append correction: %w", err)
	}
	correction.ID, _ = result.LastInsertId()
	return nil
}

// GetCorrections returns the full correction log for a document, oldest first.
func (s *SQLiteStorage) GetCorrections(ctx context.Context, documentID string) ([]model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(documentID, "documentID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, field, old_value, new_value, corrected_by, corrected_at
		FROM document_corrections
		WHERE document_id = ?
		ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var corrections []model.Correction
	for rows.Next() {
		var c model.Correction
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Field, &c.OldValue, &c.NewValue, &c.CorrectedBy, &c.CorrectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

const documentSelect = `
	SELECT id, type, total, currency, doc_date, merchant_name,
		vat_amount, tax_id, invoice_number, source_file,
		line_items, confidence, uploaded_at
	FROM documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.ExtractedDocument, error) {
	var doc model.ExtractedDocument
	var docType, total string
	var vat sql.NullString
	var lineItems, confidence sql.NullString
	var docDate sql.NullTime

	err := row.Scan(
		&doc.ID, &docType, &total, &doc.Currency, &docDate, &doc.MerchantName,
		&vat, &doc.TaxID, &doc.InvoiceNumber, &doc.SourceFile,
		&lineItems, &confidence, &doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Type = model.DocumentType(docType)
	if docDate.Valid {
		doc.Date = docDate.Time
	}

	doc.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("corrupt total %q: %w", total, err)
	}
	if vat.Valid && vat.String != "" {
		parsed, err := decimal.NewFromString(vat.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt vat amount %q: %w", vat.String, err)
		}
		doc.VATAmount = &parsed
	}
	if lineItems.Valid && lineItems.String != "" && lineItems.String != "null" {
		if err := json.Unmarshal([]byte(lineItems.String), &doc.LineItems); err != nil {
			return nil, fmt.Errorf("corrupt line items: %w", err)
		}
	}
	if confidence.Valid && confidence.String != "" && confidence.String != "null" {
		if err := json.Unmarshal([]byte(confidence.String), &doc.Confidence); err != nil {
			return nil, fmt.Errorf("corrupt confidence map: %w", err)
		}
	}

	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]model.ExtractedDocument, error) {
	var docs []model.ExtractedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}
