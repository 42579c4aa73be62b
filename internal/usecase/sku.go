package usecase

import (
	"regexp"
	"strings"
)

var (
	// styleIDPatterns match manufacturer style codes as they appear inside
	// queries: letter-prefixed codes like "DD1391 300" / "DD1391-300" and
	// the older six-digit pairs like "555088 101"
	styleIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d{3,4}[-_ ]\d{3}\b`),
		regexp.MustCompile(`\b\d{6}[-_ ]\d{3}\b`),
	}

	skuSeparatorRegex = regexp.MustCompile(`[_\s]+`)
)

// NormalizeSKU canonicalizes a manufacturer style code: uppercase, with
// space/underscore separators collapsed to a dash ("DD1391 300" becomes
// "DD1391-300")
func NormalizeSKU(raw string) string {
	sku := strings.ToUpper(strings.TrimSpace(raw))
	if sku == "" {
		return ""
	}
	return skuSeparatorRegex.ReplaceAllString(sku, "-")
}

// ExtractStyleID returns the first plausible style code found in a query,
// normalized, or empty when the query carries none
func ExtractStyleID(query string) string {
	for _, pattern := range styleIDPatterns {
		if m := pattern.FindString(query); m != "" {
			return NormalizeSKU(m)
		}
	}
	return ""
}

// SKUsEquivalent reports whether two style codes refer to the same product
// once separators are ignored. Used for the matcher's style-id bonus and
// the cross-source verification.
func SKUsEquivalent(a, b string) bool {
	ca := compactSKU(a)
	return ca != "" && ca == compactSKU(b)
}

func compactSKU(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '/':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}
