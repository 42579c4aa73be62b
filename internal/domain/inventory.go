package domain

// InventoryItem is one physical unit of seller inventory produced by the
// parser. A size token carrying a quantity ("11.5x2") expands into that
// many items, so Quantity is always 1 out of the parser; the field exists
// for callers that aggregate records later.
type InventoryItem struct {
	RawName   string         `json:"rawName"`
	RawSize   string         `json:"rawSize"`
	Size      NormalizedSize `json:"size"`
	Quantity  int            `json:"quantity"`
	Price     *float64       `json:"price,omitempty"`
	Condition string         `json:"condition,omitempty"`
}
