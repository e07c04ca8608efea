package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/ledger-match/internal/match"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/service"
	"github.com/expenseflow/ledger-match/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	engine, err := New(store, match.DefaultConfig())
	require.NoError(t, err)
	return engine, store
}

func saveDoc(t *testing.T, store *storage.SQLiteStorage, id, total, currency, merchant string, date time.Time) {
	t.Helper()
	require.NoError(t, store.SaveDocument(context.Background(), &model.ExtractedDocument{
		ID:           id,
		Type:         model.DocumentReceipt,
		Total:        decimal.RequireFromString(total),
		Currency:     currency,
		Date:         date,
		MerchantName: merchant,
		SourceFile:   id + ".pdf",
	}))
}

func saveTxn(t *testing.T, store *storage.SQLiteStorage, id, amount, name string, date time.Time) {
	t.Helper()
	txn := model.Transaction{
		ID:        id,
		Date:      date,
		Name:      name,
		Amount:    decimal.RequireFromString(amount),
		Currency:  "PLN",
		AccountID: "acc-1",
	}
	txn.Hash = txn.GenerateHash()
	require.NoError(t, store.SaveTransactions(context.Background(), []model.Transaction{txn}))
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, match.DefaultConfig())
	require.Error(t, err)

	store := &storage.SQLiteStorage{}
	bad := match.DefaultConfig()
	bad.ReviewThreshold = 2.0
	_, err = New(store, bad)
	require.Error(t, err)
}

func TestMatchPeriodEmpty(t *testing.T) {
	engine, _ := newTestEngine(t)

	period := service.Period{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	stats, err := engine.MatchPeriod(context.Background(), period)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
}

func TestMatchPeriodEndToEnd(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	mar := func(day int) time.Time { return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC) }
	period := service.Period{Start: mar(1), End: mar(31)}

	// Clean exact match: same amount, same day, same merchant.
	saveDoc(t, store, "doc-exact", "150.00", "PLN", "Biedronka 123", mar(15))
	saveTxn(t, store, "txn-exact", "-150.00", "BIEDRONKA 123", mar(15))

	// Amount off by a rounding fee, date off by three days: matches, but the
	// combined confidence is too low to auto-accept.
	saveDoc(t, store, "doc-review", "200.00", "PLN", "Orlen Stacja", mar(10))
	saveTxn(t, store, "txn-orlen", "-202.00", "ORLEN STACJA", mar(13))

	// Nothing in the statement resembles this one.
	saveDoc(t, store, "doc-unmatched", "75.00", "PLN", "Empik", mar(20))

	// No EUR transactions exist in the batch.
	saveDoc(t, store, "doc-currency", "99.00", "EUR", "Lufthansa", mar(12))

	// Merchant extraction came back empty.
	saveDoc(t, store, "doc-badfields", "10.00", "PLN", "", mar(18))

	stats, err := engine.MatchPeriod(ctx, period)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalDocuments)
	assert.Equal(t, 1, stats.AutoAccepted)
	assert.Equal(t, 1, stats.QueuedForReview)
	assert.Equal(t, 3, stats.Unmatched)

	exact, err := store.GetMatchResultForDocument(ctx, "doc-exact")
	require.NoError(t, err)
	assert.Equal(t, model.MatchAccepted, exact.Status)
	assert.Equal(t, "txn-exact", exact.TransactionID)
	assert.Equal(t, model.TierExact, exact.Tier)

	review, err := store.GetMatchResultForDocument(ctx, "doc-review")
	require.NoError(t, err)
	assert.Equal(t, model.MatchPendingReview, review.Status)
	assert.Equal(t, "txn-orlen", review.TransactionID)
	assert.Equal(t, model.ReasonLowConfidence, review.Reason)

	unmatched, err := store.GetMatchResultForDocument(ctx, "doc-unmatched")
	require.NoError(t, err)
	assert.Equal(t, model.MatchUnmatched, unmatched.Status)
	assert.Equal(t, model.ReasonNoCandidate, unmatched.Reason)

	currency, err := store.GetMatchResultForDocument(ctx, "doc-currency")
	require.NoError(t, err)
	assert.Equal(t, model.MatchUnmatched, currency.Status)
	assert.Equal(t, model.ReasonCurrencyMismatch, currency.Reason)
	assert.Empty(t, currency.TransactionID)

	badfields, err := store.GetMatchResultForDocument(ctx, "doc-badfields")
	require.NoError(t, err)
	assert.Equal(t, model.MatchUnmatched, badfields.Status)
	assert.Equal(t, model.ReasonNormalizationFail, badfields.Reason)
}

func TestMatchPeriodRerunIsStable(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	mar := func(day int) time.Time { return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC) }
	period := service.Period{Start: mar(1), End: mar(31)}

	saveDoc(t, store, "doc-exact", "150.00", "PLN", "Biedronka 123", mar(15))
	saveTxn(t, store, "txn-exact", "-150.00", "BIEDRONKA 123", mar(15))
	saveDoc(t, store, "doc-review", "200.00", "PLN", "Orlen Stacja", mar(10))
	saveTxn(t, store, "txn-orlen", "-202.00", "ORLEN STACJA", mar(13))

	_, err := engine.MatchPeriod(ctx, period)
	require.NoError(t, err)

	// A second pass re-examines only open documents. The accepted match is
	// final; the pending one is re-resolved to the same pairing.
	stats, err := engine.MatchPeriod(ctx, period)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 0, stats.AutoAccepted)
	assert.Equal(t, 1, stats.QueuedForReview)

	exact, err := store.GetMatchResultForDocument(ctx, "doc-exact")
	require.NoError(t, err)
	assert.Equal(t, model.MatchAccepted, exact.Status)

	review, err := store.GetMatchResultForDocument(ctx, "doc-review")
	require.NoError(t, err)
	assert.Equal(t, model.MatchPendingReview, review.Status)
	assert.Equal(t, "txn-orlen", review.TransactionID)
}

func TestMatchPeriodDuplicateReceiptAfterAccept(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	mar := func(day int) time.Time { return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC) }
	period := service.Period{Start: mar(1), End: mar(31)}

	saveDoc(t, store, "doc-a", "150.00", "PLN", "Biedronka 123", mar(15))
	saveTxn(t, store, "txn-x", "-150.00", "BIEDRONKA 123", mar(15))

	stats, err := engine.MatchPeriod(ctx, period)
	require.NoError(t, err)
	require.Equal(t, 1, stats.AutoAccepted)

	// A scanned duplicate of the same receipt arrives, plus an unrelated
	// document with its own transaction. The duplicate must not tear down
	// doc-a's accepted match, and doc-c must still get its result.
	saveDoc(t, store, "doc-dup", "150.00", "PLN", "Biedronka 123", mar(15))
	saveDoc(t, store, "doc-c", "42.00", "PLN", "Empik", mar(20))
	saveTxn(t, store, "txn-c", "-42.00", "EMPIK", mar(20))

	stats, err = engine.MatchPeriod(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 1, stats.AutoAccepted)
	assert.Equal(t, 1, stats.Unmatched)

	a, err := store.GetMatchResultForDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, model.MatchAccepted, a.Status)
	assert.Equal(t, "txn-x", a.TransactionID)

	c, err := store.GetMatchResultForDocument(ctx, "doc-c")
	require.NoError(t, err)
	assert.Equal(t, model.MatchAccepted, c.Status)
	assert.Equal(t, "txn-c", c.TransactionID)

	// The already-claimed transaction is off the table for the duplicate.
	dup, err := store.GetMatchResultForDocument(ctx, "doc-dup")
	require.NoError(t, err)
	assert.Equal(t, model.MatchUnmatched, dup.Status)
	assert.Equal(t, model.ReasonNoCandidate, dup.Reason)
}

func TestMatchPeriodWidensTransactionWindow(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// Receipt dated on the last day of the period; the card settled two days
	// into the next month. The transaction window is widened by the fuzzy
	// date tolerance so the pairing is still found.
	docDate := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	saveDoc(t, store, "doc-1", "88.00", "PLN", "Rossmann", docDate)
	saveTxn(t, store, "txn-1", "-88.00", "ROSSMANN", docDate.AddDate(0, 0, 2))

	period := service.Period{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   docDate,
	}
	stats, err := engine.MatchPeriod(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)

	result, err := store.GetMatchResultForDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "txn-1", result.TransactionID)
}
