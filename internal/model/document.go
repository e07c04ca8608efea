// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies the kind of source document a file was extracted from.
type DocumentType string

// Document type constants.
const (
	DocumentReceipt       DocumentType = "receipt"
	DocumentInvoice       DocumentType = "invoice"
	DocumentBankStatement DocumentType = "bank_statement"
)

// LineItem is a single purchased position on a receipt or invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// FieldConfidence maps an extracted field name to the extractor's confidence in it.
type FieldConfidence map[string]float64

// ExtractedDocument is the result of OCR/AI extraction over an uploaded document.
// The raw merchant string is preserved for display; matching always runs on the
// normalized form.
type ExtractedDocument struct {
	Date          time.Time
	UploadedAt    time.Time
	Confidence    FieldConfidence
	ID            string
	Type          DocumentType
	Currency      string
	MerchantName  string // As extracted, for display
	VATAmount     *decimal.Decimal
	TaxID         string
	InvoiceNumber string
	SourceFile    string
	LineItems     []LineItem
	Total         decimal.Decimal
}

// FieldConfidenceFor returns the extraction confidence for a field, or 0 if unknown.
func (d *ExtractedDocument) FieldConfidenceFor(field string) float64 {
	if d.Confidence == nil {
		return 0
	}
	return d.Confidence[field]
}

// Correction records a human-in-the-loop fix to an extracted field. Corrections
// are append-only; the extracted value is never silently overwritten.
type Correction struct {
	CorrectedAt time.Time
	DocumentID  string
	Field       string
	OldValue    string
	NewValue    string
	CorrectedBy string
	ID          int64
}
