package catalogue

import (
	"strings"

	"odil-be/internal/product"
)

// Query narrows the visible catalogue. Empty or "All" fields match everything.
type Query struct {
	Family   string `form:"family"`
	Category string `form:"category"`
	Search   string `form:"q"`
}

// Filter keeps the products matching every criterion, preserving order. Search
// is a case-insensitive substring match on name, SKU and description.
func Filter(products []product.Product, q Query) []product.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if q.Family != "" && q.Family != AllLabel && product.FamilyOf(p) != q.Family {
			continue
		}
		if q.Category != "" && q.Category != AllLabel && p.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Lookup indexes products by id.
func Lookup(products []product.Product) map[string]product.Product {
	out := make(map[string]product.Product, len(products))
	for _, p := range products {
		if p.ID != "" {
			out[p.ID] = p
		}
	}
	return out
}
