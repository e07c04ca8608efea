package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/storage"
)

func newReviewFixture(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"doc-1", "doc-2"} {
		require.NoError(t, store.SaveDocument(ctx, &model.ExtractedDocument{
			ID:           id,
			Type:         model.DocumentReceipt,
			Total:        decimal.RequireFromString("150.00"),
			Currency:     "PLN",
			Date:         date,
			MerchantName: "Żabka",
		}))
	}
	for _, id := range []string{"txn-1", "txn-2"} {
		txn := model.Transaction{
			ID: id, Date: date, Name: "ZABKA " + id,
			Amount: decimal.RequireFromString("-150.00"), Currency: "PLN", AccountID: "acc-1",
		}
		txn.Hash = txn.GenerateHash()
		require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))
	}

	require.NoError(t, store.CommitMatchResults(ctx, []model.MatchResult{
		{
			ID: "res-1", DocumentID: "doc-1", TransactionID: "txn-1",
			Tier: model.TierFuzzy, Status: model.MatchPendingReview,
			Reason: model.ReasonLowConfidence, Confidence: 0.7,
			ResolvedAt: date,
		},
		{
			ID: "res-2", DocumentID: "doc-2",
			Tier: model.TierNone, Status: model.MatchUnmatched,
			Reason: model.ReasonNoCandidate,
			ResolvedAt: date.Add(time.Hour),
		},
	}))

	return store
}

func runSession(t *testing.T, store *storage.SQLiteStorage, input string) (ReviewStats, string) {
	t.Helper()
	var out bytes.Buffer
	prompter := NewPrompter(store, strings.NewReader(input), &out)

	stats, err := prompter.Run(context.Background())
	require.NoError(t, err)
	return stats, out.String()
}

func TestRunEmptyQueue(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	stats, output := runSession(t, store, "")
	assert.Zero(t, stats)
	assert.Contains(t, output, "Review queue is empty")
}

func TestRunAcceptAndReassign(t *testing.T) {
	store := newReviewFixture(t)

	// Accept the pending item, then reassign the unmatched one to txn-2.
	stats, output := runSession(t, store, "a\nt\ntxn-2\n")

	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Reassigned)
	assert.Contains(t, output, "Session complete")

	ctx := context.Background()
	accepted, err := store.GetMatchResultForDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.MatchAccepted, accepted.Status)

	reassigned, err := store.GetMatchResultForDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "txn-2", reassigned.TransactionID)
	assert.Equal(t, model.MatchAccepted, reassigned.Status)
}

func TestRunReject(t *testing.T) {
	store := newReviewFixture(t)

	stats, _ := runSession(t, store, "r\ns\n")
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Skipped)

	rejected, err := store.GetMatchResultForDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.MatchRejected, rejected.Status)
}

func TestRunQuitKeepsRemainingPending(t *testing.T) {
	store := newReviewFixture(t)

	stats, _ := runSession(t, store, "q\n")
	assert.Zero(t, stats.Accepted)

	pending, err := store.GetMatchResultForDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.MatchPendingReview, pending.Status)
}

func TestRunInvalidChoiceReprompts(t *testing.T) {
	store := newReviewFixture(t)

	stats, output := runSession(t, store, "x\na\nq\n")
	assert.Equal(t, 1, stats.Accepted)
	assert.Contains(t, output, "Invalid choice")
}

func TestRunReassignFailureSkips(t *testing.T) {
	store := newReviewFixture(t)

	// Reassigning the first item to a nonexistent transaction fails softly
	// and the session moves on.
	stats, output := runSession(t, store, "t\ntxn-nope\nq\n")
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Reassigned)
	assert.Contains(t, output, "Reassignment failed")

	pending, err := store.GetMatchResultForDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.MatchPendingReview, pending.Status)
}

func TestRunUnmatchedItemHasNoAcceptOption(t *testing.T) {
	store := newReviewFixture(t)

	// Item ordering follows resolved_at: doc-1 first, doc-2 second. The
	// second has no proposed transaction, so "a" is rejected as a choice.
	_, output := runSession(t, store, "s\na\nq\n")
	assert.Contains(t, output, "No transaction matched")
	assert.Contains(t, output, "Invalid choice")
}
