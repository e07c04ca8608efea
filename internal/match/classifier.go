package match

import (
	"strings"

	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/normalize"
)

// Classifier assigns a match tier and confidence to document/transaction
// pairs under a fixed configuration.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier for the given configuration.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify scores one document against one transaction and assigns the first
// satisfied tier in priority order. Merchant-only candidates are provisional:
// the resolver demotes them when the document also has an exact or fuzzy
// candidate. Cross-currency pairs are never scored; conversion support does
// not exist, so they classify as no-match.
func (c *Classifier) Classify(doc *model.ExtractedDocument, txn *model.Transaction) model.MatchCandidate {
	candidate := model.MatchCandidate{
		DocumentID:    doc.ID,
		TransactionID: txn.ID,
		Tier:          model.TierNone,
	}

	if !sameCurrency(doc.Currency, txn.Currency) {
		return candidate
	}

	docMerchant := normalize.Merchant(doc.MerchantName)
	txnMerchant := normalize.Merchant(txn.Name)

	candidate.AmountScore = AmountScore(doc.Total, txn.Amount, c.cfg.AmountTolerancePercent)
	candidate.DateScore = DateScore(doc.Date, txn.Date, c.cfg.FuzzyDateToleranceDays)
	candidate.MerchantScore = MerchantScore(docMerchant, txnMerchant)
	candidate.Confidence = c.confidence(candidate)

	dayDist := normalize.DayDistance(doc.Date, txn.Date)
	amountExact := doc.Total.Abs().Equal(txn.Amount.Abs())

	switch {
	case amountExact &&
		dayDist <= c.cfg.ExactDateToleranceDays &&
		candidate.MerchantScore >= c.cfg.ExactMerchantThreshold:
		candidate.Tier = model.TierExact

	case candidate.AmountScore > 0 &&
		dayDist <= c.cfg.FuzzyDateToleranceDays &&
		candidate.MerchantScore >= c.cfg.FuzzyMerchantThreshold:
		candidate.Tier = model.TierFuzzy

	case candidate.MerchantScore >= c.cfg.MerchantOnlyThreshold:
		candidate.Tier = model.TierMerchantOnly

	default:
		candidate.Tier = model.TierNone
	}

	return candidate
}

// confidence is the weighted combination of the scorer outputs, clipped to [0,1].
func (c *Classifier) confidence(cand model.MatchCandidate) float64 {
	w := c.cfg.Weights
	score := w.Amount*cand.AmountScore + w.Date*cand.DateScore + w.Merchant*cand.MerchantScore
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func sameCurrency(a, b string) bool {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" {
		// Statements that omit the currency are assumed to share the
		// document's; explicit disagreement is what rules a pair out.
		return true
	}
	return a == b
}
