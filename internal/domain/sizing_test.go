package domain

import (
	"errors"
	"testing"
)

func TestNormalizeSizeToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  []NormalizedSize
	}{
		{
			name:  "plain size defaults to men",
			token: "10.5",
			want:  []NormalizedSize{{Value: 10.5, Category: CategoryMen}},
		},
		{
			name:  "whole size",
			token: "9",
			want:  []NormalizedSize{{Value: 9, Category: CategoryMen}},
		},
		{
			name:  "women suffix",
			token: "6w",
			want:  []NormalizedSize{{Value: 6, Category: CategoryWomen}},
		},
		{
			name:  "women suffix uppercase",
			token: "6W",
			want:  []NormalizedSize{{Value: 6, Category: CategoryWomen}},
		},
		{
			name:  "women prefix",
			token: "W6",
			want:  []NormalizedSize{{Value: 6, Category: CategoryWomen}},
		},
		{
			name:  "youth suffix",
			token: "7y",
			want:  []NormalizedSize{{Value: 7, Category: CategoryYouth}},
		},
		{
			name:  "youth prefix uppercase",
			token: "Y7",
			want:  []NormalizedSize{{Value: 7, Category: CategoryYouth}},
		},
		{
			name:  "child suffix",
			token: "5c",
			want:  []NormalizedSize{{Value: 5, Category: CategoryChild}},
		},
		{
			name:  "child prefix",
			token: "C5",
			want:  []NormalizedSize{{Value: 5, Category: CategoryChild}},
		},
		{
			name:  "explicit men marker",
			token: "M11",
			want:  []NormalizedSize{{Value: 11, Category: CategoryMen}},
		},
		{
			name:  "quantity expands into one entry per unit",
			token: "11.5x2",
			want: []NormalizedSize{
				{Value: 11.5, Category: CategoryMen},
				{Value: 11.5, Category: CategoryMen},
			},
		},
		{
			name:  "quantity with category marker",
			token: "8Wx3",
			want: []NormalizedSize{
				{Value: 8, Category: CategoryWomen},
				{Value: 8, Category: CategoryWomen},
				{Value: 8, Category: CategoryWomen},
			},
		},
		{
			name:  "uppercase quantity marker",
			token: "10X2",
			want: []NormalizedSize{
				{Value: 10, Category: CategoryMen},
				{Value: 10, Category: CategoryMen},
			},
		},
		{
			name:  "surrounding whitespace",
			token: "  9.5  ",
			want:  []NormalizedSize{{Value: 9.5, Category: CategoryMen}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSizeToken(tt.token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeSizeTokenErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"letters", "abc"},
		{"zero", "0"},
		{"negative", "-9"},
		{"marker without value", "W"},
		{"double marker", "WY8"},
		{"quantity without size", "x3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeSizeToken(tt.token)
			if !errors.Is(err, ErrSizeParse) {
				t.Errorf("error = %v, want ErrSizeParse", err)
			}
		})
	}
}

func TestExpandSizeList(t *testing.T) {
	t.Run("comma separated list", func(t *testing.T) {
		sizes, errs := ExpandSizeList("9, 10.5, 11")
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(sizes) != 3 {
			t.Fatalf("len = %d, want 3", len(sizes))
		}
		wantValues := []float64{9, 10.5, 11}
		for i, want := range wantValues {
			if sizes[i].Value != want {
				t.Errorf("sizes[%d].Value = %v, want %v", i, sizes[i].Value, want)
			}
		}
	})

	t.Run("list with quantities and markers", func(t *testing.T) {
		sizes, errs := ExpandSizeList("11.5x2, 12, 7y")
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(sizes) != 4 {
			t.Fatalf("len = %d, want 4", len(sizes))
		}
		if sizes[0].Value != 11.5 || sizes[1].Value != 11.5 {
			t.Errorf("quantity expansion = %v, %v, want two 11.5 entries", sizes[0], sizes[1])
		}
		if sizes[3].Category != CategoryYouth {
			t.Errorf("sizes[3].Category = %v, want youth", sizes[3].Category)
		}
	})

	t.Run("bad token is collected, good tokens survive", func(t *testing.T) {
		sizes, errs := ExpandSizeList("10, garbage, 11")
		if len(sizes) != 2 {
			t.Fatalf("len = %d, want 2", len(sizes))
		}
		if len(errs) != 1 {
			t.Fatalf("errs = %v, want exactly one", errs)
		}
		if !errors.Is(errs[0], ErrSizeParse) {
			t.Errorf("errs[0] = %v, want ErrSizeParse", errs[0])
		}
	})

	t.Run("empty field", func(t *testing.T) {
		sizes, errs := ExpandSizeList("")
		if len(sizes) != 0 || len(errs) != 0 {
			t.Errorf("got %v, %v, want empty results", sizes, errs)
		}
	})
}

func TestFormatSizeValue(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{10.5, "10.5"},
		{9, "9"},
		{11.0, "11"},
		{6.5, "6.5"},
	}

	for _, tt := range tests {
		if got := FormatSizeValue(tt.value); got != tt.want {
			t.Errorf("FormatSizeValue(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range AllCategories {
		if !ValidCategory(c) {
			t.Errorf("ValidCategory(%v) = false, want true", c)
		}
	}
	if ValidCategory("toddler") {
		t.Error("ValidCategory(toddler) = true, want false")
	}
}
