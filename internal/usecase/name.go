package usecase

import (
	"regexp"
	"strings"
)

// conditionAnnotations is the fixed set of condition/packaging markers that
// get stripped from a shoe name when they make up a whole bracketed group.
// Anything else in brackets (years, colorways, edition markers) stays.
var conditionAnnotations = map[string]bool{
	"ds":            true,
	"vnds":          true,
	"nds":           true,
	"bnib":          true,
	"nib":           true,
	"nwt":           true,
	"new with tags": true,
	"no box":        true,
	"og all":        true,
	"brand new":     true,
	"new":           true,
	"used":          true,
	"worn":          true,
}

var (
	// bracketGroupRegex matches one parenthesized or square-bracketed group
	bracketGroupRegex   = regexp.MustCompile(`\(([^)]*)\)|\[([^\]]*)\]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// CleanShoeName strips condition/packaging annotations from a raw shoe
// name, producing the marketplace search query. Idempotent: cleaning an
// already-clean name changes nothing.
func CleanShoeName(raw string) string {
	cleaned := bracketGroupRegex.ReplaceAllStringFunc(raw, func(group string) string {
		inner := strings.TrimSpace(group[1 : len(group)-1])
		if isConditionAnnotation(inner) {
			return " "
		}
		return group
	})

	cleaned = multipleSpacesRegex.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// isConditionAnnotation reports whether every comma/slash-separated part of
// a bracketed group's content is a known condition marker ("DS, no box")
func isConditionAnnotation(inner string) bool {
	if inner == "" {
		return false
	}

	parts := strings.FieldsFunc(inner, func(r rune) bool {
		return r == ',' || r == '/'
	})
	if len(parts) == 0 {
		return false
	}

	for _, part := range parts {
		normalized := strings.Join(strings.Fields(strings.ToLower(part)), " ")
		if !conditionAnnotations[normalized] {
			return false
		}
	}
	return true
}
