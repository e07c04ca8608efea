package normalize

import "strings"

// legalSuffixes are corporate-form markers stripped from merchant names before
// comparison. Matched against the lowercased tail of the name, longest first.
var legalSuffixes = []string{
	"gmbh & co. kg",
	"sp. z o.o.",
	"sp. z o.o",
	"sp z o.o.",
	"sp z o o",
	"sp. j.",
	"s.r.l.",
	"s.r.o.",
	"limited",
	"s.a.",
	"s.c.",
	"b.v.",
	"n.v.",
	"gmbh",
	"a.g.",
	"ltd.",
	"ltd",
	"llc",
	"llp",
	"inc.",
	"inc",
	"corp.",
	"corp",
	"co.",
	"plc",
	"sarl",
	"oy",
	"ab",
	"ag",
	"sa",
	"ug",
}

// Merchant normalizes a raw merchant name for comparison: casing and
// whitespace are canonicalized and legal-entity suffixes stripped. The
// original string is preserved on the model for display.
func Merchant(raw string) string {
	name := collapseWhitespace(strings.ToLower(strings.TrimSpace(raw)))

	// Strip suffixes repeatedly: chained forms like "ABC Sp. z o.o. Sp.K." exist.
	// The tail has its punctuation trimmed, so each suffix is also tried in its
	// dot-trimmed form ("s.a." matches the tail "s.a").
	for {
		trimmed := strings.Trim(name, " ,.-")
		stripped := false
		for _, suffix := range legalSuffixes {
			rest, ok := cutSuffixToken(trimmed, suffix)
			if !ok {
				rest, ok = cutSuffixToken(trimmed, strings.TrimRight(suffix, "."))
			}
			if ok {
				name = rest
				stripped = true
				break
			}
		}
		if !stripped {
			return trimmed
		}
	}
}

// cutSuffixToken removes suffix from the end of name when it starts on a
// token boundary, so "visa" is never truncated to "vi" by the "sa" form.
func cutSuffixToken(name, suffix string) (string, bool) {
	if len(name) <= len(suffix) || !strings.HasSuffix(name, suffix) {
		return name, false
	}
	rest := name[:len(name)-len(suffix)]
	switch rest[len(rest)-1] {
	case ' ', ',', '.', '-':
		return strings.Trim(rest, " ,.-"), true
	}
	return name, false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MerchantTokens splits a normalized merchant name into comparison tokens.
func MerchantTokens(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		switch r {
		case ' ', '.', ',', '-', '_', '/', '\'', '"', '*', '#':
			return true
		}
		return false
	})
}
