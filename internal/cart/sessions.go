package cart

import (
	"strings"
	"sync"
	"time"
)

// Sessions keeps one ledger per browsing session.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*session
	now     func() time.Time
}

type session struct {
	mu      sync.Mutex
	ledger  *Ledger
	touched time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		entries: make(map[string]*session),
		now:     time.Now,
	}
}

// With runs fn with exclusive access to the session's ledger, creating it on
// first use. Different sessions do not block each other.
func (s *Sessions) With(id string, fn func(*Ledger) error) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingSession
	}

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &session{ledger: NewLedger()}
		s.entries[id] = e
	}
	e.touched = s.now()
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.ledger)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
