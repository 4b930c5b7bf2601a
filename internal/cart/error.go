package cart

import (
	"errors"
	"fmt"
	"strings"

	"odil-be/internal/variant"
)

var (
	// -- Validation & Input --
	ErrInvalidQuantity  = errors.New("invalid cart quantity")
	ErrMissingProduct   = errors.New("cart line has no product")
	ErrMissingSession   = errors.New("cart session id is required")
	ErrInvalidSelection = errors.New("selection does not match the product options")

	// -- Resource State --
	ErrLineNotFound       = errors.New("cart line not found")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is no longer in the catalogue")

	// -- Policy --
	ErrStockExceeded = errors.New("quantity exceeds available stock")
)

// Shortfall is one cart line asking for more than is left.
type Shortfall struct {
	Index     int         `json:"index"`
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	Key       variant.Key `json:"key"`
	Requested int         `json:"requested"`
	Remaining int         `json:"remaining"`
}

// StockError blocks a submission. It lists every offending line.
type StockError struct {
	Lines []Shortfall
}

func (e *StockError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, s := range e.Lines {
		parts[i] = fmt.Sprintf("%s wants %d, %d left", s.Name, s.Requested, s.Remaining)
	}
	return ErrStockExceeded.Error() + ": " + strings.Join(parts, "; ")
}

func (e *StockError) Unwrap() error { return ErrStockExceeded }
