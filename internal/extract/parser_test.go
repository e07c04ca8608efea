package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
)

const sampleExtraction = `{
	"document_type": "invoice",
	"total_amount": "1 234,56 zł",
	"currency": "pln",
	"date": "15.03.2026",
	"merchant_name": "  Żabka Polska Sp. z o.o.  ",
	"vat_amount": "230,85",
	"tax_id": "PL5260250995",
	"invoice_number": "FV/2026/03/0042",
	"line_items": [
		{"description": "Woda 1.5L", "quantity": 2, "unit_price": 3.49}
	],
	"confidence": {"total_amount": 0.98, "merchant_name": 0.91}
}`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleExtraction), "scan-042.pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, model.DocumentInvoice, doc.Type)
	assert.Equal(t, "1234.56", doc.Total.String())
	assert.Equal(t, "PLN", doc.Currency)
	assert.Equal(t, "2026-03-15", doc.Date.Format("2006-01-02"))
	assert.Equal(t, "Żabka Polska Sp. z o.o.", doc.MerchantName)
	require.NotNil(t, doc.VATAmount)
	assert.Equal(t, "230.85", doc.VATAmount.String())
	assert.Equal(t, "PL5260250995", doc.TaxID)
	assert.Equal(t, "FV/2026/03/0042", doc.InvoiceNumber)
	require.Len(t, doc.LineItems, 1)
	assert.Equal(t, "scan-042.pdf", doc.SourceFile)
	assert.InDelta(t, 0.98, doc.Confidence["total_amount"], 1e-9)
}

func TestParseDocumentCodeFences(t *testing.T) {
	fenced := "```json\n" + sampleExtraction + "\n```"

	doc, err := ParseDocument([]byte(fenced), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentInvoice, doc.Type)
}

func TestParseDocumentInvalidJSON(t *testing.T) {
	_, err := ParseDocument([]byte("the receipt shows 150 zloty"), "scan.pdf")
	require.Error(t, err)
}

func TestParseDocumentUnknownType(t *testing.T) {
	_, err := ParseDocument([]byte(`{
		"document_type": "selfie",
		"total_amount": "10.00",
		"currency": "PLN",
		"date": "2026-03-15",
		"merchant_name": "X"
	}`), "scan.pdf")

	var normErr *common.NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "document_type", normErr.Field)
}

func TestParseDocumentBadAmount(t *testing.T) {
	_, err := ParseDocument([]byte(`{
		"document_type": "receipt",
		"total_amount": "illegible",
		"currency": "PLN",
		"date": "2026-03-15",
		"merchant_name": "X"
	}`), "scan.pdf")

	var normErr *common.NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "amount", normErr.Field)
}

func TestParseDocumentBadVAT(t *testing.T) {
	_, err := ParseDocument([]byte(`{
		"document_type": "receipt",
		"total_amount": "10.00",
		"currency": "PLN",
		"date": "2026-03-15",
		"merchant_name": "X",
		"vat_amount": "n/a"
	}`), "scan.pdf")

	var normErr *common.NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "vat_amount", normErr.Field)
}

func TestParseDocumentMissingDateAllowed(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"document_type": "receipt",
		"total_amount": "10.00",
		"currency": "PLN",
		"date": "",
		"merchant_name": "X"
	}`), "scan.pdf")

	// A missing date is an extraction gap, not a parse failure; matching
	// routes the document to review later.
	require.NoError(t, err)
	assert.True(t, doc.Date.IsZero())
}
