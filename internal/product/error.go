package product

import "errors"

var (
	// -- Validation & Input --
	ErrMissingID    = errors.New("product id is required")
	ErrInvalidPrice = errors.New("product price must be a non-negative number")

	// -- Resource State --
	ErrProductNotFound = errors.New("product not found")

	// -- Database & Operation Failures --
	ErrFailedListProducts  = errors.New("failed to list products")
	ErrFailedUpsertProduct = errors.New("failed to upsert product")
	ErrFailedDeleteProduct = errors.New("failed to delete product")
	ErrFailedSubscribe     = errors.New("failed to subscribe to product changes")
)
