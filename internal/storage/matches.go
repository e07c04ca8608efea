package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
)

// CommitMatchResults persists a resolved batch atomically. Any previous
// non-final result for a document in the batch is replaced. Two results
// claiming the same transaction, whether inside the batch or against an
// existing active match, abort the whole commit; partial batches are never
// written.
func (s *SQLiteStorage) CommitMatchResults(ctx context.Context, results []model.MatchResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMatchResults(results); err != nil {
		return err
	}

	if err := checkBatchExclusivity(results); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	clear, err := tx.PrepareContext(ctx, `DELETE FROM match_results WHERE document_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare clear statement: %w", err)
	}
	defer func() { _ = clear.Close() }()

	for _, result := range results {
		if _, err := clear.ExecContext(ctx, result.DocumentID); err != nil {
			return fmt.Errorf("failed to clear previous result for %s: %w", result.DocumentID, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO match_results (
			id, document_id, transaction_id, tier, status, reason, confidence, resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer func() { _ = insert.Close() }()

	for _, result := range results {
		if result.ResolvedAt.IsZero() {
			result.ResolvedAt = time.Now().UTC()
		}
		_, err := insert.ExecContext(ctx,
			result.ID,
			result.DocumentID,
			result.TransactionID,
			string(result.Tier),
			string(result.Status),
			string(result.Reason),
			result.Confidence,
			result.ResolvedAt,
		)
		if err != nil {
			if isTransactionClaimConflict(err) {
				return claimConflict(ctx, tx, result.TransactionID, result.DocumentID)
			}
			return fmt.Errorf("failed to insert result for %s: %w", result.DocumentID, err)
		}
	}

	return tx.Commit()
}

// checkBatchExclusivity catches two accepted or pending results claiming the
// same transaction before anything touches the database.
func checkBatchExclusivity(results []model.MatchResult) error {
	claims := make(map[string][]string)
	for _, result := range results {
		if result.TransactionID == "" || result.Status == model.MatchRejected || result.Status == model.MatchUnmatched {
			continue
		}
		claims[result.TransactionID] = append(claims[result.TransactionID], result.DocumentID)
	}
	for txnID, docIDs := range claims {
		if len(docIDs) > 1 {
			return &common.ExclusivityConflictError{TransactionID: txnID, DocumentIDs: docIDs}
		}
	}
	return nil
}

func isTransactionClaimConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "match_results.transaction_id")
}

// claimConflict builds the exclusivity error for a unique-index violation,
// naming the existing active claimant alongside the incoming document.
func claimConflict(ctx context.Context, tx *sql.Tx, transactionID, documentID string) error {
	var docIDs []string
	if documentID != "" {
		docIDs = append(docIDs, documentID)
	}

	var holder string
	err := tx.QueryRowContext(ctx, `
		SELECT document_id FROM match_results
		WHERE transaction_id = ? AND status IN ('ACCEPTED', 'PENDING_REVIEW')
	`, transactionID).Scan(&holder)
	if err == nil && holder != "" && holder != documentID {
		docIDs = append(docIDs, holder)
	}

	return &common.ExclusivityConflictError{TransactionID: transactionID, DocumentIDs: docIDs}
}

// GetMatchResultByID retrieves a single match result.
func (s *SQLiteStorage) GetMatchResultByID(ctx context.Context, id string) (*model.MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, matchResultSelect+" WHERE id = ?", id)
	result, err := scanMatchResult(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("match result %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	return result, nil
}

// GetMatchResultForDocument retrieves the active result for a document.
func (s *SQLiteStorage) GetMatchResultForDocument(ctx context.Context, documentID string) (*model.MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(documentID, "documentID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, matchResultSelect+" WHERE document_id = ?", documentID)
	result, err := scanMatchResult(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("match result for document %s: %w", documentID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	return result, nil
}

// GetMatchResultsByStatus lists results in a given review state.
func (s *SQLiteStorage) GetMatchResultsByStatus(ctx context.Context, status model.MatchStatus) ([]model.MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, matchResultSelect+" WHERE status = ? ORDER BY resolved_at, document_id", string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.MatchResult
	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match result: %w", err)
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

// AcceptMatch confirms a pending match.
func (s *SQLiteStorage) AcceptMatch(ctx context.Context, resultID string) error {
	return s.setMatchStatus(ctx, resultID, model.MatchAccepted)
}

// RejectMatch dismisses a pending match; the document goes back to unmatched.
func (s *SQLiteStorage) RejectMatch(ctx context.Context, resultID string) error {
	return s.setMatchStatus(ctx, resultID, model.MatchRejected)
}

func (s *SQLiteStorage) setMatchStatus(ctx context.Context, resultID string, status model.MatchStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(resultID, "resultID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE match_results SET status = ? WHERE id = ?
	`, string(status), resultID)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("match result %s: %w", resultID, common.ErrNotFound)
	}
	return nil
}

// ReassignMatch points a result at a different transaction, chosen by a
// reviewer. The exclusivity invariant is re-checked: reassigning to a
// transaction already claimed by another active match fails.
func (s *SQLiteStorage) ReassignMatch(ctx context.Context, resultID, transactionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(resultID, "resultID"); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE id = ?)`, transactionID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check transaction: %w", err)
	}
	if !exists {
		return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE match_results
		SET transaction_id = ?, status = ?, reason = ''
		WHERE id = ?
	`, transactionID, string(model.MatchAccepted), resultID)
	if err != nil {
		if isTransactionClaimConflict(err) {
			var docID string
			_ = tx.QueryRowContext(ctx,
				`SELECT document_id FROM match_results WHERE id = ?`, resultID,
			).Scan(&docID)
			return claimConflict(ctx, tx, transactionID, docID)
		}
		return fmt.Errorf("failed to reassign match: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("match result %s: %w", resultID, common.ErrNotFound)
	}

	return tx.Commit()
}

// GetReviewQueue lists pending-review and unmatched results with their
// documents and, where present, the proposed transaction attached.
func (s *SQLiteStorage) GetReviewQueue(ctx context.Context) ([]model.ReviewItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.document_id, r.transaction_id, r.tier, r.status,
			r.reason, r.confidence, r.resolved_at
		FROM match_results r
		WHERE r.status IN ('PENDING_REVIEW', 'UNMATCHED')
		ORDER BY r.resolved_at, r.document_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query review queue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.MatchResult
	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review item: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items := make([]model.ReviewItem, 0, len(results))
	for i, result := range results {
		doc, err := s.GetDocumentByID(ctx, result.DocumentID)
		if err != nil {
			return nil, err
		}
		item := model.ReviewItem{
			ID:       int64(i + 1),
			QueuedAt: result.ResolvedAt,
			Result:   result,
			Document: *doc,
		}
		if result.TransactionID != "" {
			txn, err := s.GetTransactionByID(ctx, result.TransactionID)
			if err != nil {
				return nil, err
			}
			item.Transaction = txn
		}
		items = append(items, item)
	}
	return items, nil
}

const matchResultSelect = `
	SELECT id, document_id, transaction_id, tier, status, reason, confidence, resolved_at
	FROM match_results`

func scanMatchResult(row rowScanner) (*model.MatchResult, error) {
	var result model.MatchResult
	var tier, status, reason string

	err := row.Scan(
		&result.ID, &result.DocumentID, &result.TransactionID,
		&tier, &status, &reason, &result.Confidence, &result.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	result.Tier = model.MatchTier(tier)
	result.Status = model.MatchStatus(status)
	result.Reason = model.ReasonCode(reason)
	return &result, nil
}
