package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"odil-be/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ChangeChannel is the NOTIFY channel the products trigger publishes on.
const ChangeChannel = "products_changes"

const productColumns = `id, name, sku, category, price, description, images, specs,
	variants, inventory, sourceid, hidden, created_at, updated_at`

type PGRepository struct {
	db  *sqlx.DB
	dsn string

	// newListener is swapped in tests.
	newListener func(dsn string, report func(pq.ListenerEventType, error)) changeListener
}

// changeListener is the part of *pq.Listener the change feed needs.
type changeListener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// NewPGRepository returns a Postgres-backed Repository. dsn is used to open the
// dedicated LISTEN connection for Subscribe.
func NewPGRepository(db *sqlx.DB, dsn string) *PGRepository {
	return &PGRepository{
		db:  db,
		dsn: dsn,
		newListener: func(dsn string, report func(pq.ListenerEventType, error)) changeListener {
			return pq.NewListener(dsn, 2*time.Second, time.Minute, report)
		},
	}
}

func (r *PGRepository) List(ctx context.Context) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	var rows []Row
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		log.Error("failed to select products", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedListProducts, err)
	}

	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		p, issues := Decode(row)
		if p.ID == "" {
			log.Warn("skipping record without id")
			continue
		}
		logIssues(log, p.ID, issues)
		out = append(out, p)
	}
	return out, nil
}

func (r *PGRepository) Upsert(ctx context.Context, p Product) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Upsert"),
		zap.String("product_id", p.ID),
	)

	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrMissingID
	}

	row := Encode(p)
	query := `
		INSERT INTO products (
			id, name, sku, category, price, description, images, specs,
			variants, inventory, sourceid, hidden, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sku = EXCLUDED.sku,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			images = EXCLUDED.images,
			specs = EXCLUDED.specs,
			variants = EXCLUDED.variants,
			inventory = EXCLUDED.inventory,
			sourceid = EXCLUDED.sourceid,
			hidden = EXCLUDED.hidden,
			updated_at = now()
		RETURNING ` + productColumns

	price := p.Price
	if price < 0 {
		price = 0
	}

	var saved Row
	err := r.db.QueryRowxContext(ctx, query,
		row.ID, row.Name, row.SKU, row.Category, price, row.Description,
		string(row.Images), string(row.Specs), string(row.Variants), string(row.Inventory),
		row.SourceID, row.Hidden,
	).StructScan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("upsert accepted without returning a row")
		return nil, nil
	}
	if err != nil {
		log.Error("failed to upsert product", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedUpsertProduct, err)
	}

	out, issues := Decode(saved)
	logIssues(log, out.ID, issues)
	return &out, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFailedDeleteProduct, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFailedDeleteProduct, err)
	}
	return n > 0, nil
}

// Subscribe opens a LISTEN connection on ChangeChannel. A reconnect after a
// dropped connection is reported as EventResync since notifications sent
// meanwhile are lost.
func (r *PGRepository) Subscribe(ctx context.Context, fn func(Event)) (Subscription, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Subscribe"),
	)

	listener := r.newListener(r.dsn, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("change listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(ChangeChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("%w: %v", ErrFailedSubscribe, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &pgSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer listener.Close()

		log.Info("listening for product changes", zap.String("channel", ChangeChannel))
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.NotificationChannel():
				if n == nil {
					fn(Event{Type: EventResync})
					continue
				}
				ev, err := DecodeNotification([]byte(n.Extra))
				if err != nil {
					log.Warn("dropping malformed change notification", zap.Error(err))
					continue
				}
				fn(ev)
			case <-time.After(90 * time.Second):
				if err := listener.Ping(); err != nil {
					log.Warn("change listener ping failed", zap.Error(err))
				}
			}
		}
	}()

	return sub, nil
}

type pgSubscription struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *pgSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// notification is the JSON body the products trigger sends.
type notification struct {
	Op     string `json:"op"`
	Record *Row   `json:"record"`
	ID     string `json:"id"`
}

// DecodeNotification parses a change payload into an Event.
func DecodeNotification(payload []byte) (Event, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return Event{}, err
	}

	switch EventType(strings.ToUpper(n.Op)) {
	case EventInserted, EventUpdated:
		if n.Record == nil {
			return Event{}, fmt.Errorf("%s notification without record", n.Op)
		}
		p, _ := Decode(*n.Record)
		if p.ID == "" {
			return Event{}, ErrMissingID
		}
		return Event{Type: EventType(strings.ToUpper(n.Op)), Record: p, ID: p.ID}, nil
	case EventDeleted:
		id := n.ID
		if id == "" && n.Record != nil {
			id = n.Record.ID
		}
		if strings.TrimSpace(id) == "" {
			return Event{}, ErrMissingID
		}
		return Event{Type: EventDeleted, ID: id}, nil
	default:
		return Event{}, fmt.Errorf("unknown change op %q", n.Op)
	}
}

func logIssues(log *zap.Logger, id string, issues []Issue) {
	for _, issue := range issues {
		log.Warn("coerced invalid record field",
			zap.String("product_id", id),
			zap.String("field", issue.Field),
			zap.String("detail", issue.Detail),
		)
	}
}
