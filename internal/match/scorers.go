package match

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/expenseflow/ledger-match/internal/normalize"
)

// AmountScore compares two amounts on absolute value. Equal amounts score 1.0
// in every mode. Under a positive tolerance the score decays linearly to 0 as
// the relative difference |a-b|/max(|a|,|b|) approaches tolerancePercent.
func AmountScore(a, b decimal.Decimal, tolerancePercent float64) float64 {
	a = a.Abs()
	b = b.Abs()
	if a.Equal(b) {
		return 1.0
	}
	if tolerancePercent <= 0 {
		return 0
	}

	larger := decimal.Max(a, b)
	if larger.IsZero() {
		return 1.0
	}
	relDiff, _ := a.Sub(b).Abs().Div(larger).Float64()

	tolerance := tolerancePercent / 100.0
	if relDiff >= tolerance {
		return 0
	}
	return 1.0 - relDiff/tolerance
}

// DateScore compares two calendar dates. Identical dates score 1.0; the score
// decays linearly with day distance and reaches 0 beyond toleranceDays.
func DateScore(d1, d2 time.Time, toleranceDays int) float64 {
	dist := normalize.DayDistance(d1, d2)
	if dist == 0 {
		return 1.0
	}
	if toleranceDays <= 0 || dist > toleranceDays {
		return 0
	}
	return 1.0 - float64(dist)/float64(toleranceDays+1)
}

// MerchantScore computes a normalized string-similarity ratio between two
// already-normalized merchant names. The score is symmetric and bounded to
// [0,1], with 1.0 for an exact normalized match. Token-set overlap and an
// edit-distance ratio are both computed and the stronger signal wins, so
// "sklep abc warszawa" still scores high against "sklep abc".
func MerchantScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	token := tokenSetScore(a, b)
	edit := editRatio(a, b)
	if token > edit {
		return token
	}
	return edit
}

// tokenSetScore is the Jaccard overlap of the two token sets, with a floor of
// containment ratio so a name that is a strict subset of the other is not
// penalized for the extra tokens.
func tokenSetScore(a, b string) float64 {
	ta := normalize.MerchantTokens(a)
	tb := normalize.MerchantTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(ta))
	for _, tok := range ta {
		seen[tok] = true
	}
	shared := 0
	union := len(seen)
	counted := make(map[string]bool, len(tb))
	for _, tok := range tb {
		if counted[tok] {
			continue
		}
		counted[tok] = true
		if seen[tok] {
			shared++
		} else {
			union++
		}
	}

	jaccard := float64(shared) / float64(union)

	smaller := len(seen)
	if len(counted) < smaller {
		smaller = len(counted)
	}
	containment := float64(shared) / float64(smaller)

	// Containment alone would let a single shared token dominate; damp it so
	// subset matches score high but not perfect.
	score := jaccard
	if c := containment * 0.95; c > score {
		score = c
	}
	return score
}

// editRatio is 1 - levenshtein(a,b)/max(len(a),len(b)).
func editRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longer)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
