package catalogue

import (
	"slices"
	"sync"

	"odil-be/internal/product"
)

// State is the owner-record set, newest first.
type State struct {
	Records []product.Product
}

func (s State) indexOf(id string) int {
	return slices.IndexFunc(s.Records, func(p product.Product) bool { return p.ID == id })
}

// Apply folds one change event into the state and returns the new state. It
// is pure: the input is never modified. Events are keyed by record id only,
// so replaying an event is harmless. An event older than the record it would
// replace is ignored. A record still pending confirmation is only replaced by
// a strictly newer one, so an unsynced local edit is not lost.
func Apply(s State, ev product.Event) State {
	switch ev.Type {
	case product.EventInserted, product.EventUpdated:
		if ev.Record.ID == "" {
			return s
		}
		return upsert(s, ev.Record, true)
	case product.EventDeleted:
		id := ev.ID
		if id == "" {
			id = ev.Record.ID
		}
		i := s.indexOf(id)
		if i < 0 {
			return s
		}
		return State{Records: slices.Delete(slices.Clone(s.Records), i, i+1)}
	default:
		return s
	}
}

func upsert(s State, rec product.Product, checkStale bool) State {
	i := s.indexOf(rec.ID)
	if i < 0 {
		return State{Records: slices.Insert(slices.Clone(s.Records), 0, rec.Clone())}
	}
	if checkStale && !supersedes(rec, s.Records[i]) {
		return s
	}
	next := slices.Clone(s.Records)
	next[i] = rec.Clone()
	return State{Records: next}
}

// supersedes reports whether incoming may replace held.
func supersedes(incoming, held product.Product) bool {
	if held.Pending {
		return incoming.UpdatedAt.After(held.UpdatedAt)
	}
	return held.UpdatedAt.IsZero() || !incoming.UpdatedAt.Before(held.UpdatedAt)
}

// Store holds the live owner-record state and notifies listeners on change.
type Store struct {
	mu        sync.RWMutex
	state     State
	version   uint64
	listeners []func(State)
}

func NewStore(records ...product.Product) *Store {
	s := &Store{}
	s.state = State{Records: cloneAll(records)}
	return s
}

// Apply feeds a remote event through the reducer.
func (s *Store) Apply(ev product.Event) {
	s.update(func(st State) State { return Apply(st, ev) })
}

// Put stores a locally written record unconditionally.
func (s *Store) Put(rec product.Product) {
	s.update(func(st State) State { return upsert(st, rec, false) })
}

// Remove drops a record by id.
func (s *Store) Remove(id string) {
	s.Apply(product.Event{Type: product.EventDeleted, ID: id})
}

// Replace swaps in a full reload.
func (s *Store) Replace(records []product.Product) {
	s.update(func(State) State { return State{Records: cloneAll(records)} })
}

func (s *Store) update(fn func(State) State) {
	s.mu.Lock()
	prev := s.state
	s.state = fn(prev)
	changed := !sameRecords(prev.Records, s.state.Records)
	if changed {
		s.version++
	}
	st := s.state
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(st)
		}
	}
}

// Records returns a copy of the current records.
func (s *Store) Records() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.state.Records)
}

// Snapshot returns the current records and their version without copying.
// Callers must treat the records as read-only.
func (s *Store) Snapshot() ([]product.Product, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Records, s.version
}

func (s *Store) Get(id string) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.indexOf(id); i >= 0 {
		return s.state.Records[i].Clone(), true
	}
	return product.Product{}, false
}

// OnChange registers fn to run after every state change.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func cloneAll(records []product.Product) []product.Product {
	out := make([]product.Product, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// sameRecords reports whether b is a. The reducer returns its input unchanged
// when an event has no effect, so identity is enough here.
func sameRecords(a, b []product.Product) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
