package usecase

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/kickcheck/reconciler/internal/domain"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Scoring bonuses, applied on top of the token-overlap base score (0-1)
const (
	brandMatchBonus = 0.15 // brand keyword present on both sides
	styleIDBonus    = 0.10 // query carries a style code that matches the candidate's
)

// brandKeywords are the sneaker brand tokens that earn the brand bonus when
// they appear in both the query and the candidate
var brandKeywords = []string{
	"nike", "jordan", "adidas", "yeezy", "asics", "puma",
	"reebok", "vans", "converse", "salomon", "balance", "balenciaga",
}

// stopWords are dropped during tokenization. The list stays small on
// purpose: colorway and edition words all carry signal for sneakers.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinConfidence       float64
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
	EnableDebugLogging  bool
}

// MatchingService scores marketplace search candidates against a cleaned
// shoe name and selects the best match
type MatchingService struct {
	minConfidence float64
	enableFuzzy   bool
	fuzzyDistance int
	debug         bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.MinConfidence
	if threshold <= 0 {
		threshold = 0.60 // a match needs at least 60% token overlap on its own
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 2
	}

	return &MatchingService{
		minConfidence: threshold,
		enableFuzzy:   config.EnableFuzzyMatching,
		fuzzyDistance: fuzzyDist,
		debug:         config.EnableDebugLogging,
	}
}

// FindBestMatch scores every candidate and returns the best one. Matched is
// set only when the best score clears the confidence threshold; a
// below-threshold best is still returned for logging, with Matched false.
// Ties are broken toward the title whose length is closest to the query,
// which penalizes overly generic catalog entries.
func (s *MatchingService) FindBestMatch(
	ctx context.Context,
	query string,
	candidates []domain.CandidateProduct,
) (domain.MatchResult, error) {
	if query == "" || len(candidates) == 0 {
		return domain.MatchResult{}, nil
	}

	if s.debug {
		log.Printf("[MATCH] Scoring %d candidates for: %q", len(candidates), query)
	}

	var best domain.MatchResult
	highestScore := -1.0
	bestLenDiff := 0

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return domain.MatchResult{}, ctx.Err()
		default:
		}

		score, matchedTokens := s.calculateMatchScore(query, candidate)

		if s.debug {
			log.Printf("[MATCH] %s: %q | Score: %.2f | Matched: %v",
				candidate.Source, candidate.Title, score, matchedTokens)
		}

		lenDiff := absInt(len(candidate.Title) - len(query))
		if score > highestScore || (score == highestScore && lenDiff < bestLenDiff) {
			highestScore = score
			bestLenDiff = lenDiff
			best = domain.MatchResult{Product: candidate, Confidence: score}
		}
	}

	best.Matched = best.Confidence >= s.minConfidence

	if s.debug {
		log.Printf("[MATCH] Best match: %q (confidence: %.2f, matched: %v)",
			best.Product.Title, best.Confidence, best.Matched)
	}

	return best, nil
}

// calculateMatchScore computes similarity between the query and a candidate.
// Uses a weighted combination of:
//   - query token coverage: what share of the query tokens appear in the title (primary signal)
//   - candidate token coverage: what share of the title tokens appear in the query
//   - Jaccard overlap across both token sets
//   - brand keyword bonus and style-id match bonus
//
// Returns the score (0-1) and the list of matched tokens.
func (s *MatchingService) calculateMatchScore(query string, candidate domain.CandidateProduct) (float64, []string) {
	queryTokens := tokenize(query)
	titleTokens := tokenize(candidate.Title)

	if len(queryTokens) == 0 || len(titleTokens) == 0 {
		return 0, nil
	}

	queryMatched, matchedTokens := s.matchTokens(queryTokens, titleTokens)
	queryCoverage := float64(queryMatched) / float64(len(queryTokens))

	titleMatched, _ := s.matchTokens(titleTokens, queryTokens)
	titleCoverage := float64(titleMatched) / float64(len(titleTokens))

	union := findUnion(queryTokens, titleTokens)
	jaccard := float64(queryMatched) / float64(union)

	score := queryCoverage*0.60 + titleCoverage*0.20 + jaccard*0.20

	if hasBrandMatch(queryTokens, candidate) {
		score += brandMatchBonus
	}

	if styleID := ExtractStyleID(query); styleID != "" && candidate.StyleID != "" {
		if SKUsEquivalent(styleID, candidate.StyleID) {
			score += styleIDBonus
		}
	}

	if score > 1 {
		score = 1
	}

	return score, matchedTokens
}

// hasBrandMatch reports whether a known brand keyword appears in the query
// and on the candidate (brand field or title)
func hasBrandMatch(queryTokens []string, candidate domain.CandidateProduct) bool {
	brandLower := strings.ToLower(candidate.Brand)
	titleLower := strings.ToLower(candidate.Title)

	for _, brand := range brandKeywords {
		if !containsToken(queryTokens, brand) {
			continue
		}
		if strings.Contains(brandLower, brand) || strings.Contains(titleLower, brand) {
			return true
		}
	}
	return false
}

func containsToken(tokens []string, word string) bool {
	for _, t := range tokens {
		if t == word {
			return true
		}
	}
	return false
}

// tokenize splits a string into normalized lowercase tokens. Punctuation
// and stop words are dropped. Numeric tokens are kept: model numbers are
// what tell a Jordan 1 from a Jordan 4.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")
	words := strings.Fields(cleaned)

	var tokens []string
	for _, word := range words {
		if len(word) <= 1 && !isNumeric(word) {
			continue
		}
		if stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// matchTokens counts how many distinct tokens of tokens1 appear in tokens2,
// falling back to fuzzy comparison when enabled
func (s *MatchingService) matchTokens(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens2 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens1 {
		if seen[t] {
			continue
		}
		seen[t] = true

		if set[t] {
			matched = append(matched, t)
			continue
		}
		if s.enableFuzzy && fuzzyMatchAny(t, tokens2, s.fuzzyDistance) {
			matched = append(matched, t)
		}
	}

	return len(matched), matched
}

func fuzzyMatchAny(token string, candidates []string, threshold int) bool {
	for _, c := range candidates {
		if fuzzyTokenMatch(token, c, threshold) {
			return true
		}
	}
	return false
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens >= 4 chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	// Quick length check - if lengths differ by more than threshold, can't match
	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshtein.ComputeDistance(token1, token2) <= threshold
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
