package cart

import (
	"context"
	"strings"

	"odil-be/internal/logger"
	"odil-be/internal/product"
	"odil-be/internal/variant"

	"go.uber.org/zap"
)

// Catalogue is the product lookup the cart needs.
type Catalogue interface {
	Get(ctx context.Context, id string) (product.Product, bool)
}

type AddToCartParams struct {
	ProductID string            `json:"product_id" binding:"required"`
	Selection variant.Selection `json:"selection"`
	Quantity  int               `json:"quantity"`

	// Quantities requests several combinations at once, keyed by variant key.
	Quantities map[variant.Key]int `json:"quantities"`
	// Active narrows the option groups to the toggled-on values.
	Active map[string][]string `json:"active"`
}

type UpdateResult struct {
	Quantity int      `json:"quantity"`
	Clamped  bool     `json:"clamped"`
	Cart     Snapshot `json:"cart"`
}

// Service defines the cart operations of a session.
type Service interface {
	GetCart(ctx context.Context, sessionID string) (Snapshot, error)
	AddToCart(ctx context.Context, sessionID string, params AddToCartParams) (*AddResult, Snapshot, error)
	UpdateCartQuantity(ctx context.Context, sessionID string, index, quantity int) (*UpdateResult, error)
	RemoveFromCart(ctx context.Context, sessionID string, index int) (Snapshot, error)
	ClearCart(ctx context.Context, sessionID string) error
	SetNotes(ctx context.Context, sessionID, notes string) (Snapshot, error)

	// With gives exclusive access to the session ledger, e.g. for submission.
	With(ctx context.Context, sessionID string, fn func(*Ledger) error) error
	Lookup(ctx context.Context) Lookup
}

type service struct {
	sessions  *Sessions
	catalogue Catalogue
}

func NewService(sessions *Sessions, catalogue Catalogue) Service {
	return &service{sessions: sessions, catalogue: catalogue}
}

func (s *service) GetCart(ctx context.Context, sessionID string) (Snapshot, error) {
	var snap Snapshot
	err := s.sessions.With(sessionID, func(l *Ledger) error {
		snap = l.Snapshot()
		return nil
	})
	return snap, err
}

// AddToCart adds one selection, or several combinations when Quantities is
// set. Requests above the stock left are cut down and reported in the result.
func (s *service) AddToCart(ctx context.Context, sessionID string, params AddToCartParams) (*AddResult, Snapshot, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToCart"),
		zap.String("product_id", params.ProductID),
	)

	if strings.TrimSpace(params.ProductID) == "" {
		return nil, Snapshot{}, ErrMissingProduct
	}
	p, ok := s.catalogue.Get(ctx, params.ProductID)
	if !ok {
		return nil, Snapshot{}, ErrProductUnavailable
	}

	requests := params.Quantities
	if len(requests) == 0 {
		if params.Quantity <= 0 {
			return nil, Snapshot{}, ErrInvalidQuantity
		}
		requests = map[variant.Key]int{variant.KeyOf(params.Selection): params.Quantity}
	}

	groups := p.OptionGroups()
	if params.Active != nil {
		groups = variant.Restrict(groups, params.Active)
	}

	var (
		res  AddResult
		snap Snapshot
	)
	err := s.sessions.With(sessionID, func(l *Ledger) error {
		res = AddCombinations(l, p, requests, variant.Combinations(groups))
		if res.Units == 0 && len(res.Trimmed) == 0 {
			return ErrInvalidSelection
		}
		snap = l.Snapshot()
		return nil
	})
	if err != nil {
		return nil, Snapshot{}, err
	}

	if len(res.Trimmed) > 0 {
		log.Info("cart request reduced to available stock", zap.Int("trimmed", len(res.Trimmed)))
	}
	return &res, snap, nil
}

// UpdateCartQuantity sets a line quantity, clamped to zero and to the stock
// left. A line whose product left the catalogue is only clamped to zero.
func (s *service) UpdateCartQuantity(ctx context.Context, sessionID string, index, quantity int) (*UpdateResult, error) {
	quantity = max(quantity, 0)

	var out UpdateResult
	err := s.sessions.With(sessionID, func(l *Ledger) error {
		line, ok := l.Line(index)
		if !ok {
			return ErrLineNotFound
		}

		p, found := s.catalogue.Get(ctx, line.ProductID)
		if !found {
			if err := l.UpdateQuantity(index, quantity); err != nil {
				return err
			}
			out.Quantity = quantity
		} else {
			applied, clamped, err := UpdateWithinStock(l, index, quantity, p)
			if err != nil {
				return err
			}
			out.Quantity, out.Clamped = applied, clamped
		}
		out.Cart = l.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) RemoveFromCart(ctx context.Context, sessionID string, index int) (Snapshot, error) {
	var snap Snapshot
	err := s.sessions.With(sessionID, func(l *Ledger) error {
		if err := l.Remove(index); err != nil {
			return err
		}
		snap = l.Snapshot()
		return nil
	})
	return snap, err
}

func (s *service) ClearCart(ctx context.Context, sessionID string) error {
	return s.sessions.With(sessionID, func(l *Ledger) error {
		l.Clear()
		return nil
	})
}

func (s *service) SetNotes(ctx context.Context, sessionID, notes string) (Snapshot, error) {
	var snap Snapshot
	err := s.sessions.With(sessionID, func(l *Ledger) error {
		l.SetNotes(notes)
		snap = l.Snapshot()
		return nil
	})
	return snap, err
}

func (s *service) With(ctx context.Context, sessionID string, fn func(*Ledger) error) error {
	return s.sessions.With(sessionID, fn)
}

// Lookup binds the catalogue to ctx for ValidateStock.
func (s *service) Lookup(ctx context.Context) Lookup {
	return func(id string) (product.Product, bool) {
		return s.catalogue.Get(ctx, id)
	}
}
