package usecase

import (
	"context"
	"testing"

	"github.com/kickcheck/reconciler/internal/domain"
)

func TestNewMatchingService(t *testing.T) {
	t.Run("creates service with provided threshold", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{MinConfidence: 0.75})
		if svc.minConfidence != 0.75 {
			t.Errorf("minConfidence = %v, want 0.75", svc.minConfidence)
		}
	})

	t.Run("uses default threshold when zero", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{})
		if svc.minConfidence != 0.60 {
			t.Errorf("minConfidence = %v, want 0.60 (default)", svc.minConfidence)
		}
	})

	t.Run("uses default fuzzy distance when zero", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{EnableFuzzyMatching: true})
		if svc.fuzzyDistance != 2 {
			t.Errorf("fuzzyDistance = %v, want 2 (default)", svc.fuzzyDistance)
		}
	})
}

func TestFindBestMatch(t *testing.T) {
	svc := NewMatchingService(MatchConfig{MinConfidence: 0.60})
	ctx := context.Background()

	t.Run("empty candidates is not an error", func(t *testing.T) {
		result, err := svc.FindBestMatch(ctx, "nike dunk low panda", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Matched {
			t.Error("Matched = true, want false for empty candidates")
		}
	})

	t.Run("empty query is not an error", func(t *testing.T) {
		candidates := []domain.CandidateProduct{{ID: "p1", Title: "Nike Dunk Low Panda"}}
		result, err := svc.FindBestMatch(ctx, "", candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Matched {
			t.Error("Matched = true, want false for empty query")
		}
	})

	t.Run("picks the right product among decoys", func(t *testing.T) {
		candidates := []domain.CandidateProduct{
			{ID: "p1", Title: "Jordan 1 Mid Chicago", Brand: "Jordan"},
			{ID: "p2", Title: "Nike Dunk Low Retro White Black Panda", Brand: "Nike"},
			{ID: "p3", Title: "Nike Air Force 1 Low White", Brand: "Nike"},
		}

		result, err := svc.FindBestMatch(ctx, "Nike Dunk Low Panda", candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Product.ID != "p2" {
			t.Errorf("Product.ID = %q, want p2", result.Product.ID)
		}
		if !result.Matched {
			t.Errorf("Matched = false, want true (confidence %.2f)", result.Confidence)
		}
		if result.Confidence < 0.80 {
			t.Errorf("Confidence = %.2f, want >= 0.80 for a near-exact title", result.Confidence)
		}
	})

	t.Run("below threshold returns best with Matched false", func(t *testing.T) {
		candidates := []domain.CandidateProduct{
			{ID: "p1", Title: "Jordan 1 Low SE", Brand: "Jordan"},
		}

		result, err := svc.FindBestMatch(ctx, "Jordan 4 Bred", candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Matched {
			t.Errorf("Matched = true, want false (confidence %.2f)", result.Confidence)
		}
		if result.Confidence <= 0 {
			t.Errorf("Confidence = %.2f, want > 0 so the near miss can be logged", result.Confidence)
		}
		if result.Product.ID != "p1" {
			t.Errorf("Product.ID = %q, want the best candidate even when unmatched", result.Product.ID)
		}
	})

	t.Run("tie breaks toward title length closest to query", func(t *testing.T) {
		// Both candidates hit the score cap; the longer title must lose.
		candidates := []domain.CandidateProduct{
			{ID: "long", Title: "Yeezy Boost 350 V2", Brand: "Yeezy"},
			{ID: "exact", Title: "Yeezy Boost 350", Brand: "Yeezy"},
		}

		result, err := svc.FindBestMatch(ctx, "Yeezy Boost 350", candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Product.ID != "exact" {
			t.Errorf("Product.ID = %q, want exact", result.Product.ID)
		}
	})

	t.Run("cancelled context aborts scoring", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		candidates := []domain.CandidateProduct{{ID: "p1", Title: "Nike Dunk Low Panda"}}
		_, err := svc.FindBestMatch(cancelled, "nike dunk", candidates)
		if err == nil {
			t.Fatal("expected context error, got nil")
		}
	})
}

func TestCalculateMatchScore(t *testing.T) {
	svc := NewMatchingService(MatchConfig{MinConfidence: 0.60})

	t.Run("brand match adds the brand bonus", func(t *testing.T) {
		branded := domain.CandidateProduct{Title: "Dunk Low Panda", Brand: "Nike"}
		unbranded := domain.CandidateProduct{Title: "Dunk Low Panda"}

		withBrand, _ := svc.calculateMatchScore("nike dunk low panda", branded)
		withoutBrand, _ := svc.calculateMatchScore("nike dunk low panda", unbranded)

		diff := withBrand - withoutBrand
		if diff < brandMatchBonus-0.001 || diff > brandMatchBonus+0.001 {
			t.Errorf("brand bonus = %v, want %v", diff, brandMatchBonus)
		}
	})

	t.Run("style code match adds the style bonus", func(t *testing.T) {
		withSKU := domain.CandidateProduct{Title: "Gorge Green Dunk", StyleID: "DD1391-100"}
		withoutSKU := domain.CandidateProduct{Title: "Gorge Green Dunk"}

		scoreWith, _ := svc.calculateMatchScore("gorge green dunk DD1391-100", withSKU)
		scoreWithout, _ := svc.calculateMatchScore("gorge green dunk DD1391-100", withoutSKU)

		diff := scoreWith - scoreWithout
		if diff < styleIDBonus-0.001 || diff > styleIDBonus+0.001 {
			t.Errorf("style bonus = %v, want %v", diff, styleIDBonus)
		}
	})

	t.Run("score is capped at 1", func(t *testing.T) {
		candidate := domain.CandidateProduct{Title: "Yeezy Boost 350", Brand: "Adidas Yeezy"}
		score, _ := svc.calculateMatchScore("yeezy boost 350", candidate)
		if score > 1 {
			t.Errorf("score = %v, want <= 1", score)
		}
		if score != 1 {
			t.Errorf("score = %v, want exactly 1 for identical tokens plus brand bonus", score)
		}
	})

	t.Run("no token overlap scores zero", func(t *testing.T) {
		candidate := domain.CandidateProduct{Title: "Converse Chuck Taylor"}
		score, _ := svc.calculateMatchScore("yeezy slide onyx", candidate)
		if score != 0 {
			t.Errorf("score = %v, want 0", score)
		}
	})
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "keeps numeric model tokens",
			input: "Jordan 4 Bred",
			want:  []string{"jordan", "4", "bred"},
		},
		{
			name:  "strips punctuation",
			input: "Nike Dunk Low 'Panda' (2021)",
			want:  []string{"nike", "dunk", "low", "panda", "2021"},
		},
		{
			name:  "drops stop words",
			input: "Tale of the Air Max",
			want:  []string{"tale", "air", "max"},
		},
		{
			name:  "drops single letters but keeps single digits",
			input: "Jordan X 4",
			want:  []string{"jordan", "4"},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFuzzyTokenMatch(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		threshold int
		want      bool
	}{
		{"identical", "panda", "panda", 2, true},
		{"one edit", "panda", "pandas", 2, true},
		{"two edits", "jordan", "jordna", 2, true},
		{"too many edits", "yeezy", "dunk", 2, false},
		{"short tokens never fuzzy match", "low", "lou", 2, false},
		{"length difference beyond threshold", "dunk", "dunkers", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fuzzyTokenMatch(tt.a, tt.b, tt.threshold); got != tt.want {
				t.Errorf("fuzzyTokenMatch(%q, %q, %d) = %v, want %v", tt.a, tt.b, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestFuzzyMatchingImprovesMisspelledQueries(t *testing.T) {
	candidates := []domain.CandidateProduct{
		{ID: "p1", Title: "Nike Dunk Low Panda", Brand: "Nike"},
	}
	ctx := context.Background()

	strict := NewMatchingService(MatchConfig{MinConfidence: 0.60})
	fuzzy := NewMatchingService(MatchConfig{MinConfidence: 0.60, EnableFuzzyMatching: true})

	strictResult, err := strict.FindBestMatch(ctx, "nike dunk low pnada", candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fuzzyResult, err := fuzzy.FindBestMatch(ctx, "nike dunk low pnada", candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fuzzyResult.Confidence <= strictResult.Confidence {
		t.Errorf("fuzzy confidence %.2f not above strict %.2f", fuzzyResult.Confidence, strictResult.Confidence)
	}
	if !fuzzyResult.Matched {
		t.Errorf("fuzzy Matched = false, want true (confidence %.2f)", fuzzyResult.Confidence)
	}
}
