package match

import (
	"sort"

	"github.com/expenseflow/ledger-match/internal/model"
)

// Resolver turns a pool of classified candidates into final per-document
// outcomes while holding the exclusivity invariant: a transaction may be
// claimed by at most one document, and a document matches at most one
// transaction.
type Resolver struct {
	cfg Config
}

// NewResolver creates a resolver for the given configuration.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve assigns transactions to documents greedily by descending confidence.
// Ties are broken by earliest transaction date, then transaction ID, so
// re-resolving the same pool always yields identical results. Documents whose
// best outcome is uncertain (below the review threshold, tied within epsilon,
// or merchant-only) are routed to review instead of auto-accepted.
func (r *Resolver) Resolve(documentIDs []string, candidates []model.MatchCandidate, txns map[string]model.Transaction) []model.MatchResult {
	viable := r.viableByDocument(candidates)

	ordered := make([]model.MatchCandidate, 0, len(candidates))
	for _, docCands := range viable {
		ordered = append(ordered, docCands...)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Tier.Rank() != b.Tier.Rank() {
			return a.Tier.Rank() < b.Tier.Rank()
		}
		ta, tb := txns[a.TransactionID], txns[b.TransactionID]
		if !ta.Date.Equal(tb.Date) {
			return ta.Date.Before(tb.Date)
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		return a.DocumentID < b.DocumentID
	})

	chosen := make(map[string]model.MatchCandidate, len(documentIDs))
	claimed := make(map[string]string, len(documentIDs)) // transaction ID -> document ID
	for _, cand := range ordered {
		if _, done := chosen[cand.DocumentID]; done {
			continue
		}
		if _, taken := claimed[cand.TransactionID]; taken {
			continue
		}
		chosen[cand.DocumentID] = cand
		claimed[cand.TransactionID] = cand.DocumentID
	}

	results := make([]model.MatchResult, 0, len(documentIDs))
	for _, docID := range documentIDs {
		cand, matched := chosen[docID]
		if !matched {
			results = append(results, r.unmatchedResult(docID, viable[docID]))
			continue
		}
		results = append(results, r.matchedResult(cand, viable[docID]))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DocumentID < results[j].DocumentID
	})
	return results
}

// viableByDocument filters no-match candidates and enforces the tier rule
// that merchant-only pairings only count when the document has no exact or
// fuzzy candidate at all.
func (r *Resolver) viableByDocument(candidates []model.MatchCandidate) map[string][]model.MatchCandidate {
	byDoc := make(map[string][]model.MatchCandidate)
	hasStrong := make(map[string]bool)
	for _, cand := range candidates {
		if cand.Tier == model.TierNone {
			continue
		}
		if cand.Tier == model.TierExact || cand.Tier == model.TierFuzzy {
			hasStrong[cand.DocumentID] = true
		}
		byDoc[cand.DocumentID] = append(byDoc[cand.DocumentID], cand)
	}

	for docID, docCands := range byDoc {
		if !hasStrong[docID] {
			continue
		}
		kept := docCands[:0]
		for _, cand := range docCands {
			if cand.Tier != model.TierMerchantOnly {
				kept = append(kept, cand)
			}
		}
		byDoc[docID] = kept
	}
	return byDoc
}

func (r *Resolver) matchedResult(cand model.MatchCandidate, docPool []model.MatchCandidate) model.MatchResult {
	result := model.MatchResult{
		DocumentID:    cand.DocumentID,
		TransactionID: cand.TransactionID,
		Tier:          cand.Tier,
		Confidence:    cand.Confidence,
		Status:        MatchStatusFor(cand, docPool, r.cfg),
	}

	switch {
	case result.Status == model.MatchAccepted:
	case cand.Tier == model.TierMerchantOnly:
		result.Reason = model.ReasonMerchantOnly
	case r.tied(cand, docPool):
		result.Reason = model.ReasonAmbiguousTie
	default:
		result.Reason = model.ReasonLowConfidence
	}
	return result
}

func (r *Resolver) unmatchedResult(docID string, docPool []model.MatchCandidate) model.MatchResult {
	result := model.MatchResult{
		DocumentID: docID,
		Status:     model.MatchUnmatched,
		Tier:       model.TierNone,
		Reason:     model.ReasonNoCandidate,
	}
	if len(docPool) > 0 {
		// Candidates existed but every target was claimed by a higher-
		// confidence match elsewhere in the batch.
		result.Reason = model.ReasonTransactionTaken
	}
	return result
}

// MatchStatusFor decides whether a chosen candidate auto-accepts or requires
// review under the given configuration.
func MatchStatusFor(cand model.MatchCandidate, docPool []model.MatchCandidate, cfg Config) model.MatchStatus {
	r := Resolver{cfg: cfg}
	if cand.Tier == model.TierMerchantOnly ||
		cand.Confidence < cfg.ReviewThreshold ||
		r.tied(cand, docPool) {
		return model.MatchPendingReview
	}
	return model.MatchAccepted
}

// tied reports whether another transaction in the document's pool sits within
// epsilon of the chosen candidate's confidence.
func (r *Resolver) tied(cand model.MatchCandidate, docPool []model.MatchCandidate) bool {
	for _, other := range docPool {
		if other.TransactionID == cand.TransactionID {
			continue
		}
		if other.Confidence >= cand.Confidence-r.cfg.TieEpsilon {
			return true
		}
	}
	return false
}
