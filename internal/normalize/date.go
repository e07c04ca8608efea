package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/expenseflow/ledger-match/internal/common"
)

// DefaultDateLayouts is the configured set of accepted date formats, tried in
// order. Day-first layouts come before month-first since the source documents
// are predominantly European.
var DefaultDateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"2.1.2006",
	"2006.01.02",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var datePattern = regexp.MustCompile(
	`\d{4}[-./]\d{1,2}[-./]\d{1,2}|\d{1,2}[-./]\d{1,2}[-./]\d{2,4}|` +
		`\d{1,2} [A-Za-z]{3,9} \d{4}|[A-Za-z]{3,9} \d{1,2}, \d{4}`)

// ParseDate parses a raw date string against the default layout set. If the
// input text contains multiple distinct plausible dates, the normalizer does
// not resolve the ambiguity: that belongs to the extraction stage, and an
// AmbiguousDateError is returned instead.
func ParseDate(raw string) (time.Time, error) {
	return ParseDateWithLayouts(raw, DefaultDateLayouts)
}

// ParseDateWithLayouts parses a raw date string against a caller-supplied
// layout set.
func ParseDateWithLayouts(raw string, layouts []string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, &common.NormalizationError{Field: "date", Value: raw, Err: fmt.Errorf("empty value")}
	}

	candidates := datePattern.FindAllString(trimmed, -1)
	if len(candidates) == 0 {
		candidates = []string{trimmed}
	}

	parsed := make(map[string]time.Time)
	var order []string
	for _, candidate := range candidates {
		d, ok := parseOne(candidate, layouts)
		if !ok {
			continue
		}
		key := d.Format("2006-01-02")
		if _, seen := parsed[key]; !seen {
			parsed[key] = d
			order = append(order, key)
		}
	}

	switch len(order) {
	case 0:
		return time.Time{}, &common.NormalizationError{Field: "date", Value: raw, Err: fmt.Errorf("no recognized date format")}
	case 1:
		return parsed[order[0]], nil
	default:
		return time.Time{}, &common.AmbiguousDateError{Value: raw, Candidates: order}
	}
}

func parseOne(candidate string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if d, err := time.Parse(layout, candidate); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// DayDistance returns the absolute calendar-day distance between two dates.
func DayDistance(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
