package cart

import "odil-be/internal/variant"

// Line is one committed cart entry. Name, SKU and Price are snapshots taken
// when the line was added.
type Line struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	SKU       string            `json:"sku"`
	Price     float64           `json:"price"`
	Selection variant.Selection `json:"selection"`
	Key       variant.Key       `json:"key"`
	Quantity  int               `json:"quantity"`
}

func (l Line) Total() float64 {
	return l.Price * float64(l.Quantity)
}

// Snapshot is a read-only view of a ledger.
type Snapshot struct {
	Lines         []Line  `json:"lines"`
	Notes         string  `json:"notes"`
	Subtotal      float64 `json:"subtotal"`
	TotalQuantity int     `json:"total_quantity"`
}

// Trim reports a request reduced to the stock that was left.
type Trim struct {
	Key       variant.Key `json:"key"`
	Requested int         `json:"requested"`
	Allowed   int         `json:"allowed"`
}

// AddResult describes a multi-combination add.
type AddResult struct {
	// Lines holds the indexes of the lines that received units.
	Lines   []int  `json:"lines"`
	Units   int    `json:"units"`
	Trimmed []Trim `json:"trimmed,omitempty"`
}
