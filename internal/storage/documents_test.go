package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/service"
)

func TestSaveAndGetDocument(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	vat := decimal.RequireFromString("28.05")
	doc := testDoc("doc-1", date, "150.00", "Żabka Polska Sp. z o.o.")
	doc.Type = model.DocumentInvoice
	doc.VATAmount = &vat
	doc.TaxID = "PL5260250995"
	doc.InvoiceNumber = "FV/2026/03/0042"
	doc.LineItems = []model.LineItem{
		{Description: "Woda 1.5L", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("3.49")},
	}
	doc.Confidence = model.FieldConfidence{"total_amount": 0.98, "merchant_name": 0.91}

	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocumentByID(ctx, "doc-1")
	require.NoError(t, err)

	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, model.DocumentInvoice, got.Type)
	assert.True(t, doc.Total.Equal(got.Total), "total %s != %s", doc.Total, got.Total)
	assert.Equal(t, "PLN", got.Currency)
	assert.Equal(t, date.Format("2006-01-02"), got.Date.Format("2006-01-02"))
	require.NotNil(t, got.VATAmount)
	assert.True(t, vat.Equal(*got.VATAmount))
	assert.Equal(t, doc.InvoiceNumber, got.InvoiceNumber)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "Woda 1.5L", got.LineItems[0].Description)
	assert.InDelta(t, 0.98, got.Confidence["total_amount"], 1e-9)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetDocumentByID(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveDocumentUpsert(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	doc := testDoc("doc-1", date, "150.00", "Żabka")
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Total = decimal.RequireFromString("155.00")
	doc.MerchantName = "Żabka Polska"
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocumentByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "155", got.Total.String())
	assert.Equal(t, "Żabka Polska", got.MerchantName)
}

func TestSaveDocumentValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	err := store.SaveDocument(ctx, nil)
	require.Error(t, err)

	err = store.SaveDocument(ctx, &model.ExtractedDocument{Type: model.DocumentReceipt})
	require.ErrorIs(t, err, ErrInvalidDocument)

	err = store.SaveDocument(ctx, &model.ExtractedDocument{ID: "doc-1", Type: "selfie"})
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestGetDocumentsToMatch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	period := service.Period{Start: date.AddDate(0, 0, -10), End: date.AddDate(0, 0, 10)}

	txn := testTxn("txn-1", date, "-150.00", "ZABKA")
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	for _, id := range []string{"doc-open", "doc-accepted", "doc-rejected", "doc-pending", "doc-outside"} {
		d := testDoc(id, date, "150.00", "Żabka")
		if id == "doc-outside" {
			d.Date = date.AddDate(0, 2, 0)
		}
		require.NoError(t, store.SaveDocument(ctx, d))
	}

	require.NoError(t, store.CommitMatchResults(ctx, []model.MatchResult{
		testResult("res-1", "doc-accepted", "txn-1", model.MatchAccepted),
	}))
	require.NoError(t, store.CommitMatchResults(ctx, []model.MatchResult{
		testResult("res-2", "doc-rejected", "txn-1", model.MatchRejected),
	}))
	require.NoError(t, store.CommitMatchResults(ctx, []model.MatchResult{
		testResult("res-3", "doc-pending", "", model.MatchUnmatched),
	}))

	docs, err := store.GetDocumentsToMatch(ctx, period)
	require.NoError(t, err)

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	// Accepted and rejected documents keep their outcome; unmatched and
	// never-matched documents are retried. Out-of-period stays out.
	assert.ElementsMatch(t, []string{"doc-open", "doc-pending"}, ids)
}

func TestListDocumentsFilter(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	receipt := testDoc("doc-r", date, "10.00", "A")
	invoice := testDoc("doc-i", date.AddDate(0, 0, 1), "20.00", "B")
	invoice.Type = model.DocumentInvoice
	require.NoError(t, store.SaveDocument(ctx, receipt))
	require.NoError(t, store.SaveDocument(ctx, invoice))

	invoiceType := model.DocumentInvoice
	docs, err := store.ListDocuments(ctx, service.DocumentFilter{Type: &invoiceType})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-i", docs[0].ID)

	docs, err = store.ListDocuments(ctx, service.DocumentFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	// Newest first
	assert.Equal(t, "doc-i", docs[0].ID)

	docs, err = store.ListDocuments(ctx, service.DocumentFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-r", docs[0].ID)
}

func TestCorrectionsAppendOnly(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, testDoc("doc-1", date, "150.00", "Zabka")))

	first := &model.Correction{
		DocumentID: "doc-1", Field: "merchant_name",
		OldValue: "Zabka", NewValue: "Żabka Polska", CorrectedBy: "reviewer",
	}
	second := &model.Correction{
		DocumentID: "doc-1", Field: "total_amount",
		OldValue: "150.00", NewValue: "155.00", CorrectedBy: "reviewer",
	}
	require.NoError(t, store.AppendCorrection(ctx, first))
	require.NoError(t, store.AppendCorrection(ctx, second))
	assert.Positive(t, first.ID)

	corrections, err := store.GetCorrections(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, corrections, 2)
	// Oldest first, nothing overwritten.
	assert.Equal(t, "merchant_name", corrections[0].Field)
	assert.Equal(t, "total_amount", corrections[1].Field)
}
