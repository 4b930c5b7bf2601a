package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"odil-be/internal/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByReference(ctx context.Context, reference string) (*Record, error)
}

const orderColumns = `id, reference, session_id, status, subtotal_cents, total_quantity, notes, message, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create writes the order and its items in one transaction. Missing ids are
// filled in on rec.
func (r *repository) Create(ctx context.Context, rec *Record) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("reference", rec.Reference),
	)

	assignIDs(rec)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFailedCreateOrder, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :reference, :session_id, :status, :subtotal_cents,
			:total_quantity, :notes, :message, :created_at)
	`, rec)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFailedCreateOrder, err)
	}

	for _, item := range rec.Items {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, position, product_id, name, sku,
				variant_key, quantity, price_cents, total_cents
			) VALUES (
				:id, :order_id, :position, :product_id, :name, :sku,
				:variant_key, :quantity, :price_cents, :total_cents
			)
		`, item)
		if err != nil {
			log.Error("failed to insert order item",
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", ErrFailedCreateOrder, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFailedCreateOrder, err)
	}
	return nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Record, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec,
		`SELECT `+orderColumns+` FROM orders WHERE reference = $1`, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}

	err = r.db.SelectContext(ctx, &rec.Items, `
		SELECT id, order_id, position, product_id, name, sku,
			variant_key, quantity, price_cents, total_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedGetOrder, err)
	}
	return &rec, nil
}

func assignIDs(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	for i := range rec.Items {
		if rec.Items[i].ID == "" {
			rec.Items[i].ID = uuid.NewString()
		}
		rec.Items[i].OrderID = rec.ID
		rec.Items[i].Position = i
	}
}

// MemoryRepository keeps orders in process. It backs the server when no
// database is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]Record)}
}

func (r *MemoryRepository) Create(ctx context.Context, rec *Record) error {
	assignIDs(rec)

	stored := *rec
	stored.Items = append([]Item(nil), rec.Items...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[rec.Reference] = stored
	return nil
}

func (r *MemoryRepository) GetByReference(ctx context.Context, reference string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.orders[reference]
	if !ok {
		return nil, ErrOrderNotFound
	}
	rec.Items = append([]Item(nil), rec.Items...)
	return &rec, nil
}
