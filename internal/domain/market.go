package domain

// Sale is one completed sale; MarketSnapshot.Last5Sales holds these most
// recent first
type Sale struct {
	Price   float64 `json:"price"`
	DaysAgo int     `json:"daysAgo"`
}

// MarketSnapshot is the market data fetched for one resolved size variant.
// Pointer fields are nil when the source did not report a value; days-ago
// values stay numeric here and are rendered as relative-day strings only
// at output assembly.
type MarketSnapshot struct {
	Bid                  *float64 `json:"bid,omitempty"`
	Ask                  *float64 `json:"ask,omitempty"`
	Last5Sales           []Sale   `json:"last5Sales,omitempty"`
	LowestConsigned      *float64 `json:"lowestConsigned,omitempty"`
	LastConsignedPrice   *float64 `json:"lastConsignedPrice,omitempty"`
	LastConsignedDaysAgo *int     `json:"lastConsignedDaysAgo,omitempty"`
	LowestWithYou        *float64 `json:"lowestWithYou,omitempty"`
	LastWithYouPrice     *float64 `json:"lastWithYouPrice,omitempty"`
	LastWithYouDaysAgo   *int     `json:"lastWithYouDaysAgo,omitempty"`
}

// OutputRecord is the final enriched row for one inventory item. Pointer
// fields render as empty cells when nil; the report writer owns the column
// order. SKUMismatch flags disagreement between the two sources' style IDs
// and surfaces in logs, not as a column.
type OutputRecord struct {
	OriginalShoeName   string   `json:"originalShoeName"`
	OriginalSize       string   `json:"originalSize"`
	OriginalPrice      *float64 `json:"originalPrice,omitempty"`
	Condition          string   `json:"condition,omitempty"`
	StockXBid          *float64 `json:"stockxBid,omitempty"`
	StockXAsk          *float64 `json:"stockxAsk,omitempty"`
	BidProfit          *float64 `json:"bidProfit,omitempty"`
	AskProfit          *float64 `json:"askProfit,omitempty"`
	Last5AvgPrice      *float64 `json:"last5AvgPrice,omitempty"`
	Last5AvgDays       *float64 `json:"last5AvgDays,omitempty"`
	Last5PriceRange    string   `json:"last5PriceRange,omitempty"`
	Last5TimeRange     string   `json:"last5TimeRange,omitempty"`
	LowestConsigned    *float64 `json:"lowestConsigned,omitempty"`
	LastConsignedPrice *float64 `json:"lastConsignedPrice,omitempty"`
	LastConsignedDate  string   `json:"lastConsignedDate,omitempty"`
	LowestWithYou      *float64 `json:"lowestWithYou,omitempty"`
	LastWithYouPrice   *float64 `json:"lastWithYouPrice,omitempty"`
	LastWithYouDate    string   `json:"lastWithYouDate,omitempty"`
	StockXSKU          string   `json:"stockxSku,omitempty"`
	StockXURL          string   `json:"stockxUrl,omitempty"`
	StockXSize         string   `json:"stockxSize,omitempty"`
	StockXShoeName     string   `json:"stockxShoeName,omitempty"`
	SKUMismatch        bool     `json:"skuMismatch,omitempty"`
}
