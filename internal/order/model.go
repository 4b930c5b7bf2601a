package order

import (
	"math"
	"time"

	"odil-be/internal/cart"
	"odil-be/internal/variant"
)

type OrderStatus string

const (
	StatusSent   OrderStatus = "SENT"
	StatusFailed OrderStatus = "FAILED"
)

// Record is the stored copy of a submitted order. Amounts are in pence.
type Record struct {
	ID            string      `db:"id" json:"id"`
	Reference     string      `db:"reference" json:"reference"`
	SessionID     string      `db:"session_id" json:"session_id"`
	Status        OrderStatus `db:"status" json:"status"`
	SubtotalCents int64       `db:"subtotal_cents" json:"subtotal_cents"`
	TotalQuantity int         `db:"total_quantity" json:"total_quantity"`
	Notes         string      `db:"notes" json:"notes"`
	Message       string      `db:"message" json:"message"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`

	Items []Item `db:"-" json:"items"`
}

type Item struct {
	ID         string      `db:"id" json:"id"`
	OrderID    string      `db:"order_id" json:"-"`
	Position   int         `db:"position" json:"-"`
	ProductID  string      `db:"product_id" json:"product_id"`
	Name       string      `db:"name" json:"name"`
	SKU        string      `db:"sku" json:"sku"`
	VariantKey variant.Key `db:"variant_key" json:"variant_key"`
	Quantity   int         `db:"quantity" json:"quantity"`
	PriceCents int64       `db:"price_cents" json:"price_cents"`
	TotalCents int64       `db:"total_cents" json:"total_cents"`
}

// Receipt is what a successful submission returns to the caller.
type Receipt struct {
	Reference string    `json:"reference"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Recorded  bool      `json:"recorded"`
	Subtotal  float64   `json:"subtotal"`
	Items     int       `json:"items"`
	SentAt    time.Time `json:"sent_at"`
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// itemsOf converts the lines that carry a quantity.
func itemsOf(lines []cart.Line) []Item {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		price := toCents(l.Price)
		items = append(items, Item{
			ProductID:  l.ProductID,
			Name:       l.Name,
			SKU:        l.SKU,
			VariantKey: l.Key,
			Quantity:   l.Quantity,
			PriceCents: price,
			TotalCents: price * int64(l.Quantity),
		})
	}
	return items
}
