// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/expenseflow/ledger-match/internal/model"
)

// DocumentFilter defines filtering options for document queries.
type DocumentFilter struct {
	Type      *model.DocumentType
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Period is a statement period used to bound a matching batch.
type Period struct {
	Start time.Time
	End   time.Time
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Document operations
	SaveDocument(ctx context.Context, doc *model.ExtractedDocument) error
	GetDocumentByID(ctx context.Context, id string) (*model.ExtractedDocument, error)
	GetDocumentsToMatch(ctx context.Context, period Period) ([]model.ExtractedDocument, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.ExtractedDocument, error)
	AppendCorrection(ctx context.Context, correction *model.Correction) error
	GetCorrections(ctx context.Context, documentID string) ([]model.Correction, error)

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsByPeriod(ctx context.Context, period Period) ([]model.Transaction, error)

	// Match result operations
	CommitMatchResults(ctx context.Context, results []model.MatchResult) error
	GetMatchResultByID(ctx context.Context, id string) (*model.MatchResult, error)
	GetMatchResultForDocument(ctx context.Context, documentID string) (*model.MatchResult, error)
	GetMatchResultsByStatus(ctx context.Context, status model.MatchStatus) ([]model.MatchResult, error)
	AcceptMatch(ctx context.Context, resultID string) error
	RejectMatch(ctx context.Context, resultID string) error
	ReassignMatch(ctx context.Context, resultID, transactionID string) error

	// Review queue
	GetReviewQueue(ctx context.Context) ([]model.ReviewItem, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
}

// TransactionFetcher pulls bank transactions from an external aggregator.
type TransactionFetcher interface {
	FetchTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
}

// DocumentExtractor turns an uploaded file into an ExtractedDocument.
type DocumentExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*model.ExtractedDocument, error)
}

// MatchStats shows the results of a matching run.
type MatchStats struct {
	TotalDocuments  int
	AutoAccepted    int
	QueuedForReview int
	Unmatched       int
	Duration        time.Duration
}
