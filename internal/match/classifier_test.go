package match

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/ledger-match/internal/model"
)

func testDocument(total string, date time.Time, merchant string) *model.ExtractedDocument {
	return &model.ExtractedDocument{
		ID:           "doc-1",
		Type:         model.DocumentReceipt,
		Total:        decimal.RequireFromString(total),
		Currency:     "PLN",
		Date:         date,
		MerchantName: merchant,
	}
}

func testTransaction(amount string, date time.Time, name string) *model.Transaction {
	return &model.Transaction{
		ID:       "txn-1",
		Amount:   decimal.RequireFromString(amount),
		Currency: "PLN",
		Date:     date,
		Name:     name,
	}
}

func TestClassifyExactTier(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	doc := testDocument("150.00", date, "Żabka Polska Sp. z o.o.")
	txn := testTransaction("-150.00", date.AddDate(0, 0, 1), "ŻABKA POLSKA SP. Z O.O.")

	cand := classifier.Classify(doc, txn)

	assert.Equal(t, model.TierExact, cand.Tier)
	assert.Equal(t, 1.0, cand.AmountScore)
	assert.Equal(t, 1.0, cand.MerchantScore)
	assert.Greater(t, cand.Confidence, 0.8)
}

func TestClassifyFuzzyTier(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	// Amount off by a card fee, date off by two days: fuzzy territory.
	doc := testDocument("150.00", date, "Żabka Polska")
	txn := testTransaction("-151.00", date.AddDate(0, 0, 2), "ZABKA POLSKA")

	cand := classifier.Classify(doc, txn)

	assert.Equal(t, model.TierFuzzy, cand.Tier)
	assert.Greater(t, cand.AmountScore, 0.0)
	assert.Less(t, cand.AmountScore, 1.0)
}

func TestClassifyMerchantOnlyTier(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	// Same merchant, but wrong amount and a date far outside tolerance.
	doc := testDocument("150.00", date, "Żabka Polska")
	txn := testTransaction("-80.00", date.AddDate(0, 0, 10), "Żabka Polska")

	cand := classifier.Classify(doc, txn)

	assert.Equal(t, model.TierMerchantOnly, cand.Tier)
	assert.Equal(t, 0.0, cand.AmountScore)
	assert.Equal(t, 0.0, cand.DateScore)
	assert.Equal(t, 1.0, cand.MerchantScore)
}

func TestClassifyNoMatch(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	doc := testDocument("150.00", date, "Żabka Polska")
	txn := testTransaction("-80.00", date.AddDate(0, 0, 10), "Orlen Stacja 44")

	cand := classifier.Classify(doc, txn)

	assert.Equal(t, model.TierNone, cand.Tier)
}

func TestClassifyCurrencyMismatch(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	// Identical in every way except currency: never scored.
	doc := testDocument("150.00", date, "Żabka Polska")
	doc.Currency = "EUR"
	txn := testTransaction("-150.00", date, "Żabka Polska")

	cand := classifier.Classify(doc, txn)

	assert.Equal(t, model.TierNone, cand.Tier)
	assert.Equal(t, 0.0, cand.Confidence)
	assert.Equal(t, 0.0, cand.AmountScore)
}

func TestClassifyEmptyCurrencyIsCompatible(t *testing.T) {
	classifier := NewClassifier(DefaultConfig())
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	doc := testDocument("150.00", date, "Żabka Polska")
	txn := testTransaction("-150.00", date, "Żabka Polska")
	txn.Currency = ""

	cand := classifier.Classify(doc, txn)

	assert.Equal(t, model.TierExact, cand.Tier)
}

func TestClassifyConfidenceWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{Amount: 0.5, Date: 0.3, Merchant: 0.2}
	classifier := NewClassifier(cfg)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	doc := testDocument("150.00", date, "Żabka Polska")
	txn := testTransaction("-150.00", date, "Żabka Polska")

	cand := classifier.Classify(doc, txn)

	require.Equal(t, 1.0, cand.AmountScore)
	require.Equal(t, 1.0, cand.DateScore)
	require.Equal(t, 1.0, cand.MerchantScore)
	assert.InDelta(t, 1.0, cand.Confidence, 1e-9)
}
