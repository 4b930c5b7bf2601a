// Package cache keeps a local snapshot of the owner records so the catalogue
// can start with the last known state when the remote store is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"odil-be/internal/product"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const fileName = "owner_records.db"

var ErrEmptySnapshot = errors.New("no cached owner records")

type Store struct {
	db   *sqlx.DB
	path string
}

// Open opens or creates the snapshot database inside dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, fileName)
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One writer at a time; sqlite serialises anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS owner_records (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			payload TEXT NOT NULL,
			pending INTEGER NOT NULL DEFAULT 0,
			saved_at TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

type cachedRow struct {
	ID       string `db:"id"`
	Position int    `db:"position"`
	Payload  string `db:"payload"`
	Pending  bool   `db:"pending"`
	SavedAt  string `db:"saved_at"`
}

// SaveRecords replaces the snapshot with records, keeping their order.
func (s *Store) SaveRecords(ctx context.Context, records []product.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM owner_records`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	savedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for i, p := range records {
		payload, err := json.Marshal(product.Encode(p))
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", p.ID, err)
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO owner_records (id, position, payload, pending, saved_at)
			VALUES (:id, :position, :payload, :pending, :saved_at)
			ON CONFLICT(id) DO UPDATE SET
				position = excluded.position,
				payload = excluded.payload,
				pending = excluded.pending,
				saved_at = excluded.saved_at`,
			cachedRow{ID: p.ID, Position: i, Payload: string(payload), Pending: p.Pending, SavedAt: savedAt},
		)
		if err != nil {
			return fmt.Errorf("failed to cache %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// LoadRecords returns the cached records and when they were saved.
func (s *Store) LoadRecords(ctx context.Context) ([]product.Product, time.Time, error) {
	var rows []cachedRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, position, payload, pending, saved_at FROM owner_records ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read cache: %w", err)
	}
	if len(rows) == 0 {
		return nil, time.Time{}, ErrEmptySnapshot
	}

	out := make([]product.Product, 0, len(rows))
	for _, r := range rows {
		var row product.Row
		if err := json.Unmarshal([]byte(r.Payload), &row); err != nil {
			continue
		}
		p, _ := product.Decode(row)
		p.Pending = r.Pending
		out = append(out, p)
	}

	savedAt, _ := time.Parse(time.RFC3339Nano, rows[0].SavedAt)
	return out, savedAt, nil
}
