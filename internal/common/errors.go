// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Matching errors.
	ErrNoDocuments    = errors.New("no documents to match")
	ErrNoTransactions = errors.New("no transactions in period")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// NormalizationError indicates a required field could not be parsed. The
// affected document is excluded from the matching pass and flagged for manual
// review; values are never silently defaulted.
type NormalizationError struct {
	Err   error
	Field string
	Value string
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot normalize %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("cannot normalize %s %q", e.Field, e.Value)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// AmbiguousDateError indicates the source text contained multiple equally
// plausible dates and no disambiguation hint. Resolving that ambiguity belongs
// to the extraction stage, so the normalizer refuses to guess.
type AmbiguousDateError struct {
	Value      string
	Candidates []string
}

func (e *AmbiguousDateError) Error() string {
	return fmt.Sprintf("ambiguous date %q: %d plausible candidates", e.Value, len(e.Candidates))
}

// ExclusivityConflictError is an internal invariant violation: two accepted
// matches claiming the same transaction inside one batch commit. It is fatal
// to the commit, which must roll back entirely.
type ExclusivityConflictError struct {
	TransactionID string
	DocumentIDs   []string
}

func (e *ExclusivityConflictError) Error() string {
	return fmt.Sprintf("transaction %s claimed by %d documents", e.TransactionID, len(e.DocumentIDs))
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
