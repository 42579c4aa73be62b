package domain

// Source identifies which marketplace a record came from
type Source string

const (
	SourceStockX Source = "stockx"
	SourceAlias  Source = "alias"
)

// CandidateProduct is one search hit from a marketplace catalog, kept only
// until match selection
type CandidateProduct struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Brand   string `json:"brand,omitempty"`
	StyleID string `json:"styleId,omitempty"`
	URL     string `json:"url,omitempty"`
	Source  Source `json:"source"`
}

// MatchResult is the outcome of scoring search candidates against a query
type MatchResult struct {
	Product    CandidateProduct `json:"product"`
	Confidence float64          `json:"confidence"` // 0-1
	Matched    bool             `json:"matched"`
}

// SizeVariant is one size row of a product's variant list, in the uniform
// shape both marketplace mappers produce
type SizeVariant struct {
	ID       string       `json:"id"`
	Value    float64      `json:"value"`
	Category SizeCategory `json:"category"`
}

// VariantMatch records how a size was resolved against a product's variants.
// Exact is false when the match came from a fallback category rather than
// the category stated on the inventory item.
type VariantMatch struct {
	Variant      SizeVariant  `json:"variant"`
	Exact        bool         `json:"exact"`
	CategoryUsed SizeCategory `json:"categoryUsed"`
}
