package alias

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/kickcheck/reconciler/internal/domain"
)

// searchResponse is the wire shape of the catalog search endpoint
type searchResponse struct {
	Hits []catalogHit `json:"hits"`
}

type catalogHit struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Sku       string `json:"sku"`
	BrandName string `json:"brand_name"`
	Slug      string `json:"slug"`
}

// sizesResponse is the wire shape of the product sizes endpoint
type sizesResponse struct {
	Sizes []sizeEntry `json:"sizes"`
}

type sizeEntry struct {
	Presentation string      `json:"presentation"`
	Value        json.Number `json:"value"`
	Gender       string      `json:"gender"`
}

// availabilityResponse is the wire shape of one listing channel's
// availability. Prices arrive in cents.
type availabilityResponse struct {
	LowestListingPriceCents json.Number `json:"lowest_listing_price_cents"`
	LastSold                *saleRecord `json:"last_sold_listing"`
}

type saleRecord struct {
	PriceCents  json.Number `json:"price_cents"`
	PurchasedAt string      `json:"purchased_at"`
}

type recentSalesResponse struct {
	Sales []saleRecord `json:"sales"`
}

// mapCatalogHits converts catalog hits to domain candidates. Alias reports
// the style code in its sku field.
func mapCatalogHits(hits []catalogHit) []domain.CandidateProduct {
	candidates := make([]domain.CandidateProduct, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, domain.CandidateProduct{
			ID:      h.ID,
			Title:   h.Name,
			Brand:   h.BrandName,
			StyleID: h.Sku,
			URL:     productURL(h.Slug),
			Source:  domain.SourceAlias,
		})
	}
	return candidates
}

// mapSizes converts size entries to the uniform SizeVariant shape. The
// presentation string is the variant ID because market lookups are keyed
// by it. The entry's gender wins over any suffix on the presentation.
func mapSizes(entries []sizeEntry) []domain.SizeVariant {
	variants := make([]domain.SizeVariant, 0, len(entries))
	for _, e := range entries {
		presentation := e.Presentation
		if presentation == "" {
			presentation = e.Value.String()
		}
		if presentation == "" {
			continue
		}

		sizes, err := domain.NormalizeSizeToken(presentation)
		if err != nil || len(sizes) == 0 {
			continue
		}

		size := sizes[0]
		if cat, ok := genderCategory(e.Gender); ok {
			size.Category = cat
		}

		variants = append(variants, domain.SizeVariant{
			ID:       presentation,
			Value:    size.Value,
			Category: size.Category,
		})
	}
	return variants
}

func genderCategory(gender string) (domain.SizeCategory, bool) {
	switch gender {
	case "men", "male":
		return domain.CategoryMen, true
	case "women", "female":
		return domain.CategoryWomen, true
	case "youth", "gs":
		return domain.CategoryYouth, true
	case "child", "ps", "infant", "td":
		return domain.CategoryChild, true
	}
	return "", false
}

// buildSnapshot assembles a market snapshot from the two listing channels
// and the recent sales history. Sales are ordered most recent first and
// capped at five.
func buildSnapshot(consigned, withYou availabilityResponse, sales recentSalesResponse, now time.Time) *domain.MarketSnapshot {
	snapshot := &domain.MarketSnapshot{
		LowestConsigned: centsToDollars(consigned.LowestListingPriceCents),
		LowestWithYou:   centsToDollars(withYou.LowestListingPriceCents),
	}

	if consigned.LastSold != nil {
		snapshot.LastConsignedPrice = centsToDollars(consigned.LastSold.PriceCents)
		snapshot.LastConsignedDaysAgo = daysSince(consigned.LastSold.PurchasedAt, now)
	}
	if withYou.LastSold != nil {
		snapshot.LastWithYouPrice = centsToDollars(withYou.LastSold.PriceCents)
		snapshot.LastWithYouDaysAgo = daysSince(withYou.LastSold.PurchasedAt, now)
	}

	snapshot.Last5Sales = mapRecentSales(sales.Sales, now)
	return snapshot
}

// mapRecentSales converts sale records to domain sales, most recent first,
// keeping at most five
func mapRecentSales(records []saleRecord, now time.Time) []domain.Sale {
	type datedSale struct {
		sale domain.Sale
		at   time.Time
	}

	dated := make([]datedSale, 0, len(records))
	for _, r := range records {
		price := centsToDollars(r.PriceCents)
		at, err := time.Parse(time.RFC3339, r.PurchasedAt)
		if price == nil || err != nil {
			continue
		}
		dated = append(dated, datedSale{
			sale: domain.Sale{Price: *price, DaysAgo: wholeDays(at, now)},
			at:   at,
		})
	}

	sort.Slice(dated, func(i, j int) bool {
		return dated[i].at.After(dated[j].at)
	})

	if len(dated) > 5 {
		dated = dated[:5]
	}

	sales := make([]domain.Sale, len(dated))
	for i, d := range dated {
		sales[i] = d.sale
	}
	return sales
}

func centsToDollars(n json.Number) *float64 {
	if n.String() == "" {
		return nil
	}
	cents, err := n.Float64()
	if err != nil || cents <= 0 {
		return nil
	}
	dollars := cents / 100
	return &dollars
}

// daysSince parses an RFC3339 timestamp and returns whole days between it
// and now, or nil when the timestamp is absent or malformed
func daysSince(timestamp string, now time.Time) *int {
	if timestamp == "" {
		return nil
	}
	at, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil
	}
	days := wholeDays(at, now)
	return &days
}

func wholeDays(at, now time.Time) int {
	days := int(now.Sub(at).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound)
}
