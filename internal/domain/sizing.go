package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SizeCategory identifies the sizing scale a shoe size belongs to
type SizeCategory string

const (
	CategoryMen   SizeCategory = "men"
	CategoryWomen SizeCategory = "women"
	CategoryYouth SizeCategory = "youth"
	CategoryChild SizeCategory = "child"
)

// AllCategories lists the four size categories in default fallback priority
var AllCategories = []SizeCategory{CategoryMen, CategoryWomen, CategoryYouth, CategoryChild}

// ValidCategory reports whether c is one of the four known size categories
func ValidCategory(c SizeCategory) bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryYouth, CategoryChild:
		return true
	}
	return false
}

// NormalizedSize is the canonical (numeric value, category) pair derived from a raw size token
type NormalizedSize struct {
	Value    float64      `json:"value"`
	Category SizeCategory `json:"category"`
}

// quantityRegex splits a trailing x<N> quantity marker off a size token ("11.5x2")
var quantityRegex = regexp.MustCompile(`(?i)^(.+?)x(\d+)$`)

// NormalizeSizeToken parses one raw size token into canonical sizes.
// A token may carry a single-letter category marker as prefix or suffix
// (Y=youth, W=women, C=child, M=men; absent means men) and an x<N>
// quantity suffix that expands into N repeated entries.
func NormalizeSizeToken(raw string) ([]NormalizedSize, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrSizeParse)
	}

	quantity := 1
	if m := quantityRegex.FindStringSubmatch(token); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil && n >= 1 {
			quantity = n
			token = strings.TrimSpace(m[1])
		}
	}

	category, numeric := splitCategoryMarker(token)

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrSizeParse, raw)
	}

	sizes := make([]NormalizedSize, quantity)
	for i := range sizes {
		sizes[i] = NormalizedSize{Value: value, Category: category}
	}
	return sizes, nil
}

// ExpandSizeList parses a comma-separated size field ("8,8.5x2,9.5") into
// canonical sizes. Unparseable tokens are collected as errors without
// aborting the rest of the field.
func ExpandSizeList(field string) ([]NormalizedSize, []error) {
	var sizes []NormalizedSize
	var errs []error

	for _, tok := range strings.Split(field, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parsed, err := NormalizeSizeToken(tok)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sizes = append(sizes, parsed...)
	}
	return sizes, errs
}

// splitCategoryMarker strips a leading or trailing category letter from a
// size token. The marker and the numeric value are independent: "W8.5"
// and "8.5W" both yield (women, "8.5"). Tokens without a marker default
// to the men's scale.
func splitCategoryMarker(token string) (SizeCategory, string) {
	if len(token) > 1 {
		if cat, ok := markerCategory(token[0]); ok && isNumericToken(token[1:]) {
			return cat, token[1:]
		}
		last := token[len(token)-1]
		if cat, ok := markerCategory(last); ok && isNumericToken(token[:len(token)-1]) {
			return cat, token[:len(token)-1]
		}
	}
	return CategoryMen, token
}

func markerCategory(b byte) (SizeCategory, bool) {
	switch b {
	case 'y', 'Y':
		return CategoryYouth, true
	case 'w', 'W':
		return CategoryWomen, true
	case 'c', 'C':
		return CategoryChild, true
	case 'm', 'M':
		return CategoryMen, true
	}
	return "", false
}

func isNumericToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '9') && s[i] != '.' {
			return false
		}
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// FormatSizeValue renders a size value without trailing zeros ("10.5", "9")
func FormatSizeValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
