// Package normalize canonicalizes amount, date, and merchant-name
// representations so that extracted documents and bank transactions can be
// compared on equal footing.
package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/expenseflow/ledger-match/internal/common"
)

// currencyMarkers are stripped from raw amount strings before parsing.
var currencyMarkers = []string{
	"$", "€", "£", "zł", "zl", "kr",
	"PLN", "EUR", "USD", "GBP", "CHF", "SEK", "NOK", "DKK", "CZK",
}

// ParseAmount parses a raw amount string using locale-aware separator rules.
// Both "1,234.56" and "1.234,56" styles are accepted; thousands separators are
// stripped. A single separator followed by exactly three digits is treated as a
// thousands separator, since receipts carry at most two decimal places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero, &common.NormalizationError{Field: "amount", Value: raw, Err: fmt.Errorf("empty value")}
	}

	for _, marker := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
		cleaned = strings.ReplaceAll(cleaned, strings.ToLower(marker), "")
	}

	// Spaces (including NBSP) only ever group thousands.
	cleaned = strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, cleaned)

	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	} else if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.TrimPrefix(cleaned, "+")

	normalized, err := normalizeSeparators(cleaned)
	if err != nil {
		return decimal.Zero, &common.NormalizationError{Field: "amount", Value: raw, Err: err}
	}

	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, &common.NormalizationError{Field: "amount", Value: raw, Err: err}
	}

	if negative {
		value = value.Neg()
	}
	return value, nil
}

// normalizeSeparators rewrites an amount to dot-decimal form.
func normalizeSeparators(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty value")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the later one is the decimal separator.
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		s = rewriteSingleSeparator(s, ",")
	case lastDot >= 0:
		s = rewriteSingleSeparator(s, ".")
	}

	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return "", fmt.Errorf("unexpected character %q", r)
		}
	}
	return s, nil
}

func rewriteSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		// Repeated separator can only group thousands.
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.LastIndex(s, sep)
	if len(s)-idx-1 == 3 && idx > 0 {
		// "1,234" / "1.234" group thousands; fractional parts are 1-2 digits.
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
