package stockx

import (
	"encoding/json"
	"strings"

	"github.com/kickcheck/reconciler/internal/domain"
)

// searchResponse is the wire shape of the catalog search endpoint
type searchResponse struct {
	Products []searchProduct `json:"products"`
	Count    int             `json:"count"`
}

type searchProduct struct {
	ProductID   string `json:"productId"`
	URLKey      string `json:"urlKey"`
	Title       string `json:"title"`
	Brand       string `json:"brand"`
	StyleID     string `json:"styleId"`
	ProductType string `json:"productType"`
}

// variantRecord is one entry of the product variants endpoint. The US size
// normally lives in variantValue; some products only carry it in the size
// chart's default conversion.
type variantRecord struct {
	VariantID    string    `json:"variantId"`
	VariantValue string    `json:"variantValue"`
	SizeChart    sizeChart `json:"sizeChart"`
}

type sizeChart struct {
	DefaultConversion    sizeConversion   `json:"defaultConversion"`
	AvailableConversions []sizeConversion `json:"availableConversions"`
}

type sizeConversion struct {
	Size string `json:"size"`
	Type string `json:"type"` // "us m", "us w", "us y"
}

// marketDataResponse is the wire shape of the variant market-data endpoint.
// Amounts arrive as JSON strings or numbers depending on endpoint version,
// so they are decoded as json.Number.
type marketDataResponse struct {
	ProductID        string      `json:"productId"`
	VariantID        string      `json:"variantId"`
	CurrencyCode     string      `json:"currencyCode"`
	HighestBidAmount json.Number `json:"highestBidAmount"`
	LowestAskAmount  json.Number `json:"lowestAskAmount"`
}

// mapSearchProducts converts search hits to domain candidates
func mapSearchProducts(products []searchProduct) []domain.CandidateProduct {
	candidates := make([]domain.CandidateProduct, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, domain.CandidateProduct{
			ID:      p.ProductID,
			Title:   p.Title,
			Brand:   p.Brand,
			StyleID: p.StyleID,
			URL:     ProductURL(p.URLKey),
			Source:  domain.SourceStockX,
		})
	}
	return candidates
}

// mapVariants converts variant records to the uniform SizeVariant shape,
// skipping records whose size cannot be parsed
func mapVariants(records []variantRecord) []domain.SizeVariant {
	variants := make([]domain.SizeVariant, 0, len(records))
	for _, r := range records {
		value := r.VariantValue
		if value == "" {
			value = r.SizeChart.DefaultConversion.Size
		}
		if value == "" {
			continue
		}

		sizes, err := domain.NormalizeSizeToken(value)
		if err != nil || len(sizes) == 0 {
			continue
		}

		size := sizes[0]
		if r.VariantValue == "" {
			// Size came from the conversion table; its type annotation
			// ("us w") is more reliable than a bare number's default.
			if cat, ok := conversionCategory(r.SizeChart.DefaultConversion.Type); ok {
				size.Category = cat
			}
		}

		variants = append(variants, domain.SizeVariant{
			ID:       r.VariantID,
			Value:    size.Value,
			Category: size.Category,
		})
	}
	return variants
}

// conversionCategory maps a size chart conversion type to a size category
func conversionCategory(convType string) (domain.SizeCategory, bool) {
	t := strings.ToLower(strings.TrimSpace(convType))
	switch {
	case strings.HasSuffix(t, " m") || t == "us":
		return domain.CategoryMen, true
	case strings.HasSuffix(t, " w"):
		return domain.CategoryWomen, true
	case strings.HasSuffix(t, " y"):
		return domain.CategoryYouth, true
	case strings.HasSuffix(t, " c"):
		return domain.CategoryChild, true
	}
	return "", false
}

// mapMarketData converts the market-data wire response to a snapshot.
// Zero amounts mean "no current offer" and map to nil.
func mapMarketData(m marketDataResponse) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		Bid: parseAmount(m.HighestBidAmount),
		Ask: parseAmount(m.LowestAskAmount),
	}
}

func parseAmount(n json.Number) *float64 {
	if n.String() == "" {
		return nil
	}
	v, err := n.Float64()
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
