package product

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryRepository keeps owner records in process. It backs the server when no
// database is configured and stands in for Postgres in tests.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]Product
	subs    map[int]func(Event)
	nextSub int
	now     func() time.Time
}

func NewMemoryRepository(seed ...Product) *MemoryRepository {
	r := &MemoryRepository{
		records: make(map[string]Product),
		subs:    make(map[int]func(Event)),
		now:     time.Now,
	}
	for _, p := range seed {
		r.records[p.ID] = p.Clone()
	}
	return r
}

func (r *MemoryRepository) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Product, 0, len(r.records))
	for _, p := range r.records {
		out = append(out, p.Clone())
	}
	slices.SortStableFunc(out, func(a, b Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, p Product) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrMissingID
	}

	r.mu.Lock()
	now := r.now()
	existing, found := r.records[p.ID]
	stored := p.Clone()
	stored.Pending = false
	stored.PriceOverrides = SanitizePrices(stored.PriceOverrides)
	stored.Inventory = SanitizeInventory(stored.Inventory)
	if found {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.records[p.ID] = stored
	handlers := r.handlers()
	r.mu.Unlock()

	ev := Event{Type: EventInserted, Record: stored.Clone()}
	if found {
		ev.Type = EventUpdated
	}
	for _, fn := range handlers {
		fn(ev)
	}

	out := stored.Clone()
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	_, found := r.records[id]
	delete(r.records, id)
	handlers := r.handlers()
	r.mu.Unlock()

	if found {
		for _, fn := range handlers {
			fn(Event{Type: EventDeleted, ID: id})
		}
	}
	return found, nil
}

func (r *MemoryRepository) Subscribe(ctx context.Context, fn func(Event)) (Subscription, error) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	var serial sync.Mutex
	r.subs[id] = func(ev Event) {
		serial.Lock()
		defer serial.Unlock()
		fn(ev)
	}
	r.mu.Unlock()

	sub := &memorySubscription{done: make(chan struct{}), close: func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}}
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (r *MemoryRepository) handlers() []func(Event) {
	out := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		out = append(out, fn)
	}
	return out
}

type memorySubscription struct {
	once  sync.Once
	done  chan struct{}
	close func()
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.close()
		close(s.done)
	})
	return nil
}
