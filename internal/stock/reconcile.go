// Package stock reconciles per-combination stock ceilings against quantities
// already committed elsewhere.
//
// The checks here are advisory snapshots, not reservations. Two sessions that
// both observe two units remaining can each commit one and oversell; only the
// server-side store can prevent that.
package stock

import (
	"encoding/json"

	"odil-be/internal/variant"
)

// Limit is a stock ceiling or remaining quantity. The zero value is Unlimited,
// which is distinct from Finite(0).
type Limit struct {
	value  int
	finite bool
}

// Unlimited means no ceiling is configured.
var Unlimited = Limit{}

// Finite returns a bounded limit. Negative values clamp to zero.
func Finite(n int) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{value: n, finite: true}
}

// Value returns the bound and whether the limit is finite.
func (l Limit) Value() (int, bool) {
	return l.value, l.finite
}

func (l Limit) IsUnlimited() bool {
	return !l.finite
}

// MarshalJSON encodes Unlimited as null.
func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.finite {
		return []byte("null"), nil
	}
	return json.Marshal(l.value)
}

// Remaining is the ceiling minus what is committed elsewhere, never below zero.
func Remaining(ceiling Limit, committedElsewhere int) Limit {
	if !ceiling.finite {
		return Unlimited
	}
	return Finite(ceiling.value - committedElsewhere)
}

// ClampRequest caps requested at remaining and reports whether it had to.
func ClampRequest(requested int, remaining Limit) (int, bool) {
	if requested < 0 {
		requested = 0
	}
	if !remaining.finite {
		return requested, false
	}
	if requested > remaining.value {
		return remaining.value, true
	}
	return requested, false
}

// Holding is a quantity of one product combination already held by a cart line or order.
type Holding struct {
	ProductID string
	Key       variant.Key
	Quantity  int
}

// CommittedElsewhere sums the holdings for productID/key, skipping the holding
// at index exclude (pass -1 to skip nothing).
func CommittedElsewhere(holdings []Holding, productID string, key variant.Key, exclude int) int {
	key = variant.NormalizeKey(key)
	total := 0
	for i, h := range holdings {
		if i == exclude || h.ProductID != productID {
			continue
		}
		if variant.NormalizeKey(h.Key) != key {
			continue
		}
		if h.Quantity > 0 {
			total += h.Quantity
		}
	}
	return total
}
