package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/expenseflow/ledger-match/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidMatchResult = errors.New("invalid match result")
	ErrInvalidCorrection  = errors.New("invalid correction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateDocument(doc *model.ExtractedDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document", ErrNilParameter)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidDocument)
	}
	switch doc.Type {
	case model.DocumentReceipt, model.DocumentInvoice, model.DocumentBankStatement:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDocument, doc.Type)
	}
	return nil
}

func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTransaction)
	}
	return nil
}

func validateMatchResults(results []model.MatchResult) error {
	if results == nil {
		return fmt.Errorf("%w: results", ErrNilParameter)
	}
	if len(results) == 0 {
		return fmt.Errorf("%w: results", ErrEmptySlice)
	}
	for i, result := range results {
		if err := validateMatchResult(&result); err != nil {
			return fmt.Errorf("result at index %d: %w", i, err)
		}
	}
	return nil
}

func validateMatchResult(result *model.MatchResult) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if result.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidMatchResult)
	}
	if result.DocumentID == "" {
		return fmt.Errorf("%w: missing document ID", ErrInvalidMatchResult)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f out of range", ErrInvalidMatchResult, result.Confidence)
	}
	switch result.Status {
	case model.MatchAccepted, model.MatchPendingReview, model.MatchRejected, model.MatchUnmatched:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidMatchResult, result.Status)
	}
	if result.Status != model.MatchUnmatched && result.TransactionID == "" {
		return fmt.Errorf("%w: matched result missing transaction ID", ErrInvalidMatchResult)
	}
	return nil
}

func validateCorrection(correction *model.Correction) error {
	if correction == nil {
		return fmt.Errorf("%w: correction", ErrNilParameter)
	}
	if correction.DocumentID == "" {
		return fmt.Errorf("%w: missing document ID", ErrInvalidCorrection)
	}
	if correction.Field == "" {
		return fmt.Errorf("%w: missing field", ErrInvalidCorrection)
	}
	return nil
}
