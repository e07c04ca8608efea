// Package engine orchestrates matching runs: loading documents and
// transactions for a statement period, scoring and resolving candidates, and
// committing the outcome atomically.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/expenseflow/ledger-match/internal/match"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/normalize"
	"github.com/expenseflow/ledger-match/internal/service"
)

// Engine runs document-to-transaction matching batches.
type Engine struct {
	storage    service.Storage
	classifier *match.Classifier
	resolver   *match.Resolver
	cfg        match.Config
	progress   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgressBar enables a terminal progress bar during batch runs.
func WithProgressBar() Option {
	return func(e *Engine) { e.progress = true }
}

// New creates a matching engine with the given storage and configuration.
func New(storage service.Storage, cfg match.Config, opts ...Option) (*Engine, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching config: %w", err)
	}

	e := &Engine{
		storage:    storage,
		classifier: match.NewClassifier(cfg),
		resolver:   match.NewResolver(cfg),
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MatchPeriod matches all open documents in the period against the
// transactions posted in the same period (widened by the fuzzy date
// tolerance). The computation is pure until the final commit, which writes
// the whole batch in one database transaction or not at all.
func (e *Engine) MatchPeriod(ctx context.Context, period service.Period) (service.MatchStats, error) {
	started := time.Now()
	stats := service.MatchStats{}

	slog.Info("Starting matching run",
		"period_start", period.Start.Format("2006-01-02"),
		"period_end", period.End.Format("2006-01-02"))

	documents, err := e.storage.GetDocumentsToMatch(ctx, period)
	if err != nil {
		return stats, fmt.Errorf("failed to load documents: %w", err)
	}
	if len(documents) == 0 {
		slog.Info("No documents to match")
		return stats, nil
	}

	txnPeriod := service.Period{
		Start: period.Start.AddDate(0, 0, -e.cfg.FuzzyDateToleranceDays),
		End:   period.End.AddDate(0, 0, e.cfg.FuzzyDateToleranceDays),
	}
	transactions, err := e.storage.GetTransactionsByPeriod(ctx, txnPeriod)
	if err != nil {
		return stats, fmt.Errorf("failed to load transactions: %w", err)
	}

	claimed, err := e.claimedTransactions(ctx, documents)
	if err != nil {
		return stats, fmt.Errorf("failed to load claimed transactions: %w", err)
	}
	available := transactions[:0]
	for _, txn := range transactions {
		if !claimed[txn.ID] {
			available = append(available, txn)
		}
	}
	transactions = available

	slog.Info("Loaded matching inputs",
		"documents", len(documents),
		"transactions", len(transactions),
		"claimed", len(claimed))

	txnsByID := make(map[string]model.Transaction, len(transactions))
	currencies := make(map[string]bool)
	for _, txn := range transactions {
		txnsByID[txn.ID] = txn
		currencies[strings.ToUpper(strings.TrimSpace(txn.Currency))] = true
	}

	var bar *progressbar.ProgressBar
	if e.progress {
		bar = progressbar.Default(int64(len(documents)), "matching documents")
	}

	var docIDs []string
	var candidates []model.MatchCandidate
	overrides := make(map[string]model.ReasonCode)

	for i := range documents {
		doc := &documents[i]
		if bar != nil {
			_ = bar.Add(1)
		}

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if reason := precheck(doc, currencies); reason != "" {
			overrides[doc.ID] = reason
			docIDs = append(docIDs, doc.ID)
			continue
		}

		docIDs = append(docIDs, doc.ID)
		for j := range transactions {
			candidates = append(candidates, e.classifier.Classify(doc, &transactions[j]))
		}
	}

	results := e.resolver.Resolve(docIDs, candidates, txnsByID)

	now := time.Now().UTC()
	for i := range results {
		results[i].ID = uuid.NewString()
		results[i].ResolvedAt = now
		if reason, ok := overrides[results[i].DocumentID]; ok {
			results[i].Status = model.MatchUnmatched
			results[i].TransactionID = ""
			results[i].Tier = model.TierNone
			results[i].Confidence = 0
			results[i].Reason = reason
		}

		switch results[i].Status {
		case model.MatchAccepted:
			stats.AutoAccepted++
		case model.MatchPendingReview:
			stats.QueuedForReview++
		default:
			stats.Unmatched++
		}
	}
	stats.TotalDocuments = len(results)

	if len(results) > 0 {
		if err := e.storage.CommitMatchResults(ctx, results); err != nil {
			return stats, fmt.Errorf("failed to commit batch: %w", err)
		}
	}

	stats.Duration = time.Since(started)
	slog.Info("Matching run complete",
		"documents", stats.TotalDocuments,
		"auto_accepted", stats.AutoAccepted,
		"queued_for_review", stats.QueuedForReview,
		"unmatched", stats.Unmatched,
		"duration", stats.Duration)

	return stats, nil
}

// claimedTransactions lists transactions held by active results of documents
// outside this batch. Those matches stand, so their transactions are not
// offered as candidates again; a duplicate receipt for an already-matched
// charge ends up unmatched instead of colliding at commit. Transactions held
// by documents inside the batch stay available, since re-resolving replaces
// their results.
func (e *Engine) claimedTransactions(ctx context.Context, batch []model.ExtractedDocument) (map[string]bool, error) {
	inBatch := make(map[string]bool, len(batch))
	for i := range batch {
		inBatch[batch[i].ID] = true
	}

	claimed := make(map[string]bool)
	for _, status := range []model.MatchStatus{model.MatchAccepted, model.MatchPendingReview} {
		results, err := e.storage.GetMatchResultsByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		for _, result := range results {
			if result.TransactionID != "" && !inBatch[result.DocumentID] {
				claimed[result.TransactionID] = true
			}
		}
	}
	return claimed, nil
}

// precheck flags documents that cannot enter the scoring pool: required
// fields that failed extraction, or a currency no transaction in the batch
// shares. Failure here excludes the document from the pass and routes it to
// review; fields are never silently defaulted.
func precheck(doc *model.ExtractedDocument, txnCurrencies map[string]bool) model.ReasonCode {
	if doc.Date.IsZero() || normalize.Merchant(doc.MerchantName) == "" {
		return model.ReasonNormalizationFail
	}

	currency := strings.ToUpper(strings.TrimSpace(doc.Currency))
	if currency == "" {
		return ""
	}
	if txnCurrencies[currency] || txnCurrencies[""] {
		return ""
	}
	// Cross-currency comparison is out of scope; flag rather than guess a
	// conversion rate.
	return model.ReasonCurrencyMismatch
}
