package catalogue

import "errors"

var (
	// -- Validation & Input --
	ErrSentinelRecord = errors.New("the configuration record cannot be edited as a product")

	// -- Resource State --
	ErrNotOwnerRecord = errors.New("only owner records can be deleted")

	// -- Remote Store --
	ErrCatalogueUnavailable = errors.New("owner records unavailable and no cached snapshot")
	ErrDeleteNotPersisted   = errors.New("product delete could not be persisted")
)
