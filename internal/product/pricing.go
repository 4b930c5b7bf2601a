package product

import (
	"odil-be/internal/stock"
	"odil-be/internal/variant"
)

// Range is the span of unit prices a product can be bought at.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Single reports whether every combination costs the same.
func (r Range) Single() bool {
	return r.Min == r.Max
}

func basePrice(p Product) float64 {
	if p.Price < 0 {
		return 0
	}
	return p.Price
}

// UnitPrice returns the override for key if one exists, else the base price.
func UnitPrice(p Product, key variant.Key) float64 {
	if v, ok := p.PriceOverrides[variant.NormalizeKey(key)]; ok && v >= 0 {
		return v
	}
	return basePrice(p)
}

// PriceRange spans the base price and every override.
func PriceRange(p Product) Range {
	base := basePrice(p)
	r := Range{Min: base, Max: base}
	for _, v := range p.PriceOverrides {
		if v < 0 {
			continue
		}
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	return r
}

// StockCeiling returns the inventory entry for key, or Unlimited when none is set.
func StockCeiling(p Product, key variant.Key) stock.Limit {
	key = variant.NormalizeKey(key)
	if n, ok := p.Inventory[key]; ok {
		return stock.Finite(n)
	}
	return stock.Unlimited
}
