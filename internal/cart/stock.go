package cart

import (
	"fmt"
	"iter"

	"odil-be/internal/product"
	"odil-be/internal/stock"
	"odil-be/internal/variant"
)

// Lookup resolves a product id against the visible catalogue.
type Lookup func(id string) (product.Product, bool)

// AddCombinations adds the requested quantity of each combination of p. Each
// request is clamped to the stock left after what the ledger already holds;
// the clamps are reported, not raised. combos defaults to every combination
// of p's option groups. Requests for keys outside combos are ignored.
func AddCombinations(l *Ledger, p product.Product, requests map[variant.Key]int, combos iter.Seq[variant.Combination]) AddResult {
	if combos == nil {
		combos = variant.Combinations(p.OptionGroups())
	}

	normalized := make(map[variant.Key]int, len(requests))
	for k, q := range requests {
		normalized[variant.NormalizeKey(k)] += q
	}

	res := AddResult{Lines: []int{}}
	for c := range combos {
		requested := normalized[c.Key]
		if requested <= 0 {
			continue
		}

		committed := stock.CommittedElsewhere(l.Holdings(), p.ID, c.Key, -1)
		remaining := stock.Remaining(product.StockCeiling(p, c.Key), committed)
		allowed, clamped := stock.ClampRequest(requested, remaining)
		if clamped {
			res.Trimmed = append(res.Trimmed, Trim{Key: c.Key, Requested: requested, Allowed: allowed})
		}
		if allowed == 0 {
			continue
		}

		i := l.Add(Line{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Price:     product.UnitPrice(p, c.Key),
			Selection: c.Selection,
			Key:       c.Key,
			Quantity:  allowed,
		})
		res.Lines = append(res.Lines, i)
		res.Units += allowed
	}
	return res
}

// UpdateWithinStock sets line i to quantity, clamped to zero and to the stock
// left after every other line. It returns the quantity applied and whether
// stock cut it.
func UpdateWithinStock(l *Ledger, i, quantity int, p product.Product) (int, bool, error) {
	line, ok := l.Line(i)
	if !ok {
		return 0, false, ErrLineNotFound
	}
	quantity = max(quantity, 0)

	committed := stock.CommittedElsewhere(l.Holdings(), line.ProductID, line.Key, i)
	remaining := stock.Remaining(product.StockCeiling(p, line.Key), committed)
	allowed, clamped := stock.ClampRequest(quantity, remaining)
	if err := l.UpdateQuantity(i, allowed); err != nil {
		return 0, false, err
	}
	return allowed, clamped, nil
}

// ValidateStock is the submit gate. Unlike the edit-time clamps it never
// adjusts anything: any line above the stock left blocks the order.
func ValidateStock(l *Ledger, lookup Lookup) error {
	holdings := l.Holdings()
	var shortfalls []Shortfall
	for i, line := range l.Lines() {
		if line.Quantity <= 0 {
			continue
		}
		p, ok := lookup(line.ProductID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, line.Name)
		}

		committed := stock.CommittedElsewhere(holdings, line.ProductID, line.Key, i)
		remaining := stock.Remaining(product.StockCeiling(p, line.Key), committed)
		left, finite := remaining.Value()
		if finite && line.Quantity > left {
			shortfalls = append(shortfalls, Shortfall{
				Index:     i,
				ProductID: line.ProductID,
				Name:      line.Name,
				Key:       line.Key,
				Requested: line.Quantity,
				Remaining: left,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &StockError{Lines: shortfalls}
	}
	return nil
}
