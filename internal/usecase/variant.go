package usecase

import (
	"github.com/kickcheck/reconciler/internal/domain"
)

// ResolveVariant finds the size variant for a normalized size. An exact
// (value, category) match wins; otherwise the fallback order is walked,
// skipping the stated category, and the first exact numeric match is
// returned with Exact=false and CategoryUsed recording the substitution.
func ResolveVariant(
	variants []domain.SizeVariant,
	size domain.NormalizedSize,
	fallbackOrder []domain.SizeCategory,
) (domain.VariantMatch, error) {
	if len(fallbackOrder) == 0 {
		fallbackOrder = domain.AllCategories
	}

	if v, ok := findVariant(variants, size.Value, size.Category); ok {
		return domain.VariantMatch{Variant: v, Exact: true, CategoryUsed: size.Category}, nil
	}

	for _, category := range fallbackOrder {
		if category == size.Category {
			continue
		}
		if v, ok := findVariant(variants, size.Value, category); ok {
			return domain.VariantMatch{Variant: v, Exact: false, CategoryUsed: category}, nil
		}
	}

	return domain.VariantMatch{}, domain.ErrVariantNotFound
}

func findVariant(variants []domain.SizeVariant, value float64, category domain.SizeCategory) (domain.SizeVariant, bool) {
	for _, v := range variants {
		if v.Category == category && sizeValuesEqual(v.Value, value) {
			return v, true
		}
	}
	return domain.SizeVariant{}, false
}

// sizeValuesEqual compares size values with a tolerance well under a half
// size, the smallest real increment
func sizeValuesEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 0.25
}
