package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"odil-be/internal/cart"
	"odil-be/internal/logger"
	"odil-be/internal/metrics"
	"odil-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	// Submit sends the ledger as an order. It must be called with exclusive
	// access to the ledger, which is cleared on success.
	Submit(ctx context.Context, sessionID string, ledger *cart.Ledger, lookup cart.Lookup) (*Receipt, error)
	GetOrder(ctx context.Context, reference string) (*Record, error)
}

type service struct {
	repo      Repository
	notifier  Notifier
	metrics   *metrics.Registry
	now       func() time.Time
	reference func() string
}

func NewService(repo Repository, notifier Notifier, reg *metrics.Registry) Service {
	if reg == nil {
		reg = metrics.Default
	}
	return &service{
		repo:      repo,
		notifier:  notifier,
		metrics:   reg,
		now:       time.Now,
		reference: utils.GenerateOrderReference,
	}
}

func (s *service) Submit(ctx context.Context, sessionID string, ledger *cart.Ledger, lookup cart.Lookup) (*Receipt, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Submit"),
	)

	if !ledger.HasQuantity() {
		return nil, ErrEmptyOrder
	}

	if err := cart.ValidateStock(ledger, lookup); err != nil {
		var serr *cart.StockError
		if errors.As(err, &serr) {
			s.metrics.Counter(metrics.OrdersRejectedStock).Inc()
			log.Warn("order blocked by stock", zap.Int("lines", len(serr.Lines)))
		}
		return nil, err
	}

	lines := ledger.Lines()
	subtotal := ledger.Subtotal()
	text := BuildMessage(lines, subtotal, ledger.Notes())
	ref := s.reference()
	log = log.With(zap.String("reference", ref))

	if err := s.notifier.Send(ctx, text); err != nil {
		log.Error("failed to send order message", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNotifierFailed, err)
	}

	rec := &Record{
		Reference:     ref,
		SessionID:     sessionID,
		Status:        StatusSent,
		SubtotalCents: toCents(subtotal),
		TotalQuantity: ledger.TotalQuantity(),
		Notes:         ledger.Notes(),
		Message:       text,
		CreatedAt:     s.now().UTC(),
		Items:         itemsOf(lines),
	}

	// The message is already out; a lost record must not fail the order.
	recorded := true
	if err := s.repo.Create(ctx, rec); err != nil {
		recorded = false
		s.metrics.Counter(metrics.OrderRecordFailures).Inc()
		log.Error("failed to record order", zap.Error(err))
	}

	receipt := &Receipt{
		Reference: ref,
		Message:   text,
		Recorded:  recorded,
		Subtotal:  subtotal,
		Items:     len(rec.Items),
		SentAt:    rec.CreatedAt,
	}
	if l, ok := s.notifier.(linker); ok {
		receipt.Link = l.Link(text)
	}

	ledger.Clear()
	s.metrics.Counter(metrics.OrdersSubmitted).Inc()
	log.Info("order submitted",
		zap.Int("items", receipt.Items),
		zap.Int64("subtotal_cents", rec.SubtotalCents),
	)
	return receipt, nil
}

func (s *service) GetOrder(ctx context.Context, reference string) (*Record, error) {
	return s.repo.GetByReference(ctx, reference)
}
