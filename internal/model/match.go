package model

import "time"

// MatchTier is the priority-ordered category assigned to a candidate pairing.
type MatchTier string

// Match tier constants, in decreasing strictness.
const (
	TierExact        MatchTier = "exact"
	TierFuzzy        MatchTier = "fuzzy"
	TierMerchantOnly MatchTier = "merchant_only"
	TierNone         MatchTier = "none"
)

// Rank returns the priority of a tier; lower ranks win during resolution.
func (t MatchTier) Rank() int {
	switch t {
	case TierExact:
		return 0
	case TierFuzzy:
		return 1
	case TierMerchantOnly:
		return 2
	default:
		return 3
	}
}

// ReasonCode explains why a document was left unmatched or queued for review.
type ReasonCode string

// Reason code constants.
const (
	ReasonNoCandidate       ReasonCode = "no_candidate"
	ReasonLowConfidence     ReasonCode = "low_confidence"
	ReasonAmbiguousTie      ReasonCode = "ambiguous_tie"
	ReasonMerchantOnly      ReasonCode = "merchant_only"
	ReasonCurrencyMismatch  ReasonCode = "currency_mismatch"
	ReasonNormalizationFail ReasonCode = "normalization_failed"
	ReasonTransactionTaken  ReasonCode = "transaction_claimed"
)

// MatchStatus tracks the review lifecycle of a match result.
type MatchStatus string

// Match status constants.
const (
	MatchPendingReview MatchStatus = "PENDING_REVIEW"
	MatchAccepted      MatchStatus = "ACCEPTED"
	MatchRejected      MatchStatus = "REJECTED"
	MatchUnmatched     MatchStatus = "UNMATCHED"
)

// MatchCandidate is an ephemeral scored pairing of one document and one
// transaction. Candidates are recomputed on demand and only persisted once
// promoted to a MatchResult.
type MatchCandidate struct {
	DocumentID    string
	TransactionID string
	Tier          MatchTier
	AmountScore   float64
	DateScore     float64
	MerchantScore float64
	Confidence    float64
}

// MatchResult is the accepted outcome for a document: either a reference to
// exactly one transaction with a tier and confidence, or an unmatched sentinel
// with a reason code.
type MatchResult struct {
	ResolvedAt    time.Time
	ID            string
	DocumentID    string
	TransactionID string // Empty when unmatched
	Tier          MatchTier
	Status        MatchStatus
	Reason        ReasonCode
	Confidence    float64
}

// Matched reports whether the result references a transaction.
func (r *MatchResult) Matched() bool {
	return r.TransactionID != ""
}

// ReviewItem is a queued unit of human review work with full context attached.
type ReviewItem struct {
	QueuedAt time.Time
	Result   MatchResult
	Document ExtractedDocument
	// Transaction is nil for unmatched documents.
	Transaction *Transaction
	ID          int64
}
