package cart

import (
	"slices"
	"strings"

	"odil-be/internal/stock"
	"odil-be/internal/variant"
)

// Ledger is an ordered list of cart lines plus free-text notes. It is not
// safe for concurrent use; Sessions serialises access.
type Ledger struct {
	lines []Line
	notes string
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add merges line into the ledger and returns its index. A line with the same
// product and key absorbs the quantity; otherwise line is appended.
func (l *Ledger) Add(line Line) int {
	line = normalizeLine(line)
	for i, existing := range l.lines {
		if existing.ProductID == line.ProductID && existing.Key == line.Key {
			l.lines[i].Quantity += line.Quantity
			return i
		}
	}
	l.lines = append(l.lines, line)
	return len(l.lines) - 1
}

func normalizeLine(line Line) Line {
	line.ProductID = strings.TrimSpace(line.ProductID)
	line.Selection = line.Selection.Normalize()
	switch {
	case len(line.Selection) > 0:
		line.Key = variant.KeyOf(line.Selection)
	case line.Key != "":
		line.Key = variant.NormalizeKey(line.Key)
	default:
		line.Key = variant.BaseKey
	}
	if line.Quantity < 0 {
		line.Quantity = 0
	}
	return line
}

// UpdateQuantity sets the quantity of line i. Negative values become zero; a
// zero line stays in the ledger until removed. Stock is not consulted.
func (l *Ledger) UpdateQuantity(i, quantity int) error {
	if i < 0 || i >= len(l.lines) {
		return ErrLineNotFound
	}
	l.lines[i].Quantity = max(quantity, 0)
	return nil
}

func (l *Ledger) Remove(i int) error {
	if i < 0 || i >= len(l.lines) {
		return ErrLineNotFound
	}
	l.lines = slices.Delete(l.lines, i, i+1)
	return nil
}

// Clear empties the ledger and its notes.
func (l *Ledger) Clear() {
	l.lines = nil
	l.notes = ""
}

func (l *Ledger) Line(i int) (Line, bool) {
	if i < 0 || i >= len(l.lines) {
		return Line{}, false
	}
	return cloneLine(l.lines[i]), true
}

// Lines returns a copy of every line, including zero-quantity ones.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	for i, line := range l.lines {
		out[i] = cloneLine(line)
	}
	return out
}

// Subtotal sums the snapshotted line prices.
func (l *Ledger) Subtotal() float64 {
	var sum float64
	for _, line := range l.lines {
		sum += line.Total()
	}
	return sum
}

func (l *Ledger) Notes() string { return l.notes }

func (l *Ledger) SetNotes(notes string) { l.notes = strings.TrimSpace(notes) }

// HasQuantity reports whether any line would end up in an order.
func (l *Ledger) HasQuantity() bool {
	return slices.ContainsFunc(l.lines, func(line Line) bool { return line.Quantity > 0 })
}

func (l *Ledger) TotalQuantity() int {
	n := 0
	for _, line := range l.lines {
		n += line.Quantity
	}
	return n
}

// Holdings lists the ledger quantities in line order for the reconciler.
func (l *Ledger) Holdings() []stock.Holding {
	out := make([]stock.Holding, len(l.lines))
	for i, line := range l.lines {
		out[i] = stock.Holding{ProductID: line.ProductID, Key: line.Key, Quantity: line.Quantity}
	}
	return out
}

func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		Lines:         l.Lines(),
		Notes:         l.notes,
		Subtotal:      l.Subtotal(),
		TotalQuantity: l.TotalQuantity(),
	}
}

func cloneLine(line Line) Line {
	if line.Selection != nil {
		sel := make(variant.Selection, len(line.Selection))
		for k, v := range line.Selection {
			sel[k] = v
		}
		line.Selection = sel
	}
	return line
}
