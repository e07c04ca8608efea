package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/normalize"
)

// payload mirrors the JSON contract of the extraction prompt. Amounts and
// dates arrive as the raw printed strings; normalization happens in
// toDocument so a malformed field surfaces as a NormalizationError on the
// specific field rather than a generic parse failure.
type payload struct {
	DocumentType  string             `json:"document_type"`
	TotalAmount   string             `json:"total_amount"`
	Currency      string             `json:"currency"`
	Date          string             `json:"date"`
	MerchantName  string             `json:"merchant_name"`
	VATAmount     *string            `json:"vat_amount"`
	TaxID         *string            `json:"tax_id"`
	InvoiceNumber *string            `json:"invoice_number"`
	LineItems     []payloadLineItem  `json:"line_items"`
	Confidence    map[string]float64 `json:"confidence"`
}

type payloadLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// parseModelResponse decodes the model output, tolerating the code fences
// some models emit despite instructions.
func parseModelResponse(raw string) (*payload, error) {
	clean := stripCodeFences(raw)

	var p payload
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return &p, nil
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ParseDocument parses a pre-extracted JSON document in the same contract
// the vision model produces. Used for importing extraction results that were
// produced elsewhere.
func ParseDocument(data []byte, sourceFile string) (*model.ExtractedDocument, error) {
	p, err := parseModelResponse(string(data))
	if err != nil {
		return nil, err
	}
	return p.toDocument(sourceFile)
}

// toDocument normalizes the raw payload into a domain document.
func (p *payload) toDocument(sourceFile string) (*model.ExtractedDocument, error) {
	docType := model.DocumentType(strings.ToLower(strings.TrimSpace(p.DocumentType)))
	switch docType {
	case model.DocumentReceipt, model.DocumentInvoice, model.DocumentBankStatement:
	default:
		return nil, &common.NormalizationError{Field: "document_type", Value: p.DocumentType}
	}

	total, err := normalize.ParseAmount(p.TotalAmount)
	if err != nil {
		return nil, err
	}

	var date time.Time
	if strings.TrimSpace(p.Date) != "" {
		date, err = normalize.ParseDate(p.Date)
		if err != nil {
			return nil, err
		}
	}

	doc := &model.ExtractedDocument{
		ID:           uuid.NewString(),
		Type:         docType,
		Total:        total,
		Currency:     strings.ToUpper(strings.TrimSpace(p.Currency)),
		Date:         date,
		MerchantName: strings.TrimSpace(p.MerchantName),
		SourceFile:   sourceFile,
		Confidence:   p.Confidence,
		UploadedAt:   time.Now().UTC(),
	}

	if p.VATAmount != nil && strings.TrimSpace(*p.VATAmount) != "" {
		vat, err := normalize.ParseAmount(*p.VATAmount)
		if err != nil {
			return nil, &common.NormalizationError{Field: "vat_amount", Value: *p.VATAmount, Err: err}
		}
		doc.VATAmount = &vat
	}
	if p.TaxID != nil {
		doc.TaxID = strings.TrimSpace(*p.TaxID)
	}
	if p.InvoiceNumber != nil {
		doc.InvoiceNumber = strings.TrimSpace(*p.InvoiceNumber)
	}
	for _, item := range p.LineItems {
		doc.LineItems = append(doc.LineItems, model.LineItem{
			Description: item.Description,
			Quantity:    decimal.NewFromFloat(item.Quantity),
			UnitPrice:   decimal.NewFromFloat(item.UnitPrice),
		})
	}

	return doc, nil
}
