package product

import "context"

// EventType classifies a change-feed notification.
type EventType string

const (
	EventInserted EventType = "INSERT"
	EventUpdated  EventType = "UPDATE"
	EventDeleted  EventType = "DELETE"
	// EventResync tells subscribers that events may have been missed and the
	// full record set should be reloaded.
	EventResync EventType = "RESYNC"
)

// Event is one change to the owner record store.
type Event struct {
	Type   EventType
	Record Product
	// ID is set for deletes, where only the identifier survives.
	ID string
}

// Subscription is a live change feed. Close stops delivery.
type Subscription interface {
	Close() error
}

// Repository is the remote store of owner records.
type Repository interface {
	// List returns every owner record, newest first.
	List(ctx context.Context) ([]Product, error)
	// Upsert inserts or replaces a record by id. A nil product with a nil error
	// means the write was accepted but the store did not echo the row back.
	Upsert(ctx context.Context, p Product) (*Product, error)
	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// Subscribe delivers change events to fn until ctx ends or the
	// subscription is closed. fn is called from a single goroutine.
	Subscribe(ctx context.Context, fn func(Event)) (Subscription, error)
}
