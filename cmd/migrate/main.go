package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"odil-be/internal/config"
	"odil-be/internal/db"
	"odil-be/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or status")
	steps := flag.Int("steps", 1, "migrations to roll back in down mode")
	dir := flag.String("dir", "./migrations", "directory holding the *.sql files")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	dsn := os.Getenv("DB_URL")
	if dsn == "" && cfg.UseDatabase() {
		dsn = db.DSN(cfg)
	}
	if dsn == "" {
		logger.L().Fatal("neither DB_URL nor DB_HOST is set")
	}

	database, err := sqlx.Open("postgres", dsn)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer database.Close()

	m := &migrator{db: database, dir: *dir, log: logger.L()}
	if err := m.run(context.Background(), *mode, *steps); err != nil {
		logger.L().Fatal("migration failed", zap.Error(err))
	}
}

// migrator applies the "-- +migrate Up" and "-- +migrate Down" sections of
// each file in dir, tracking applied versions in schema_migrations.
type migrator struct {
	db  *sqlx.DB
	dir string
	log *zap.Logger
}

func (m *migrator) run(ctx context.Context, mode string, steps int) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := migrationFiles(m.dir)
	if err != nil {
		return err
	}

	switch mode {
	case "up":
		return m.up(ctx, files)
	case "down":
		return m.down(ctx, files, steps)
	case "status":
		return m.status(ctx, files)
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'status')", mode)
	}
}

func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

func (m *migrator) applied(ctx context.Context) (map[string]bool, error) {
	var versions []string
	if err := m.db.SelectContext(ctx, &versions, `SELECT version FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	out := make(map[string]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}

func (m *migrator) up(ctx context.Context, files []string) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	count := 0
	for _, file := range files {
		version := filepath.Base(file)
		if done[version] {
			m.log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		m.log.Info("applying migration", zap.String("version", version))
		err = m.inTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, extractMigrationPart(string(content), "Up")); err != nil {
				return fmt.Errorf("migration failed (%s): %w", version, err)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			if err != nil {
				return fmt.Errorf("failed to record migration version: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		count++
	}

	m.log.Info("migrations up to date", zap.Int("applied", count))
	return nil
}

func (m *migrator) down(ctx context.Context, files []string, steps int) error {
	byVersion := make(map[string]string, len(files))
	for _, f := range files {
		byVersion[filepath.Base(f)] = f
	}

	for i := 0; i < steps; i++ {
		var last string
		err := m.db.GetContext(ctx, &last,
			`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`)
		if errors.Is(err, sql.ErrNoRows) {
			m.log.Warn("no migrations to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get last applied migration: %w", err)
		}

		file, ok := byVersion[last]
		if !ok {
			return fmt.Errorf("migration file not found for version: %s", last)
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		m.log.Info("rolling back migration", zap.String("version", last))
		err = m.inTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, extractMigrationPart(string(content), "Down")); err != nil {
				return fmt.Errorf("rollback failed (%s): %w", last, err)
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, last)
			if err != nil {
				return fmt.Errorf("failed to remove migration record: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *migrator) status(ctx context.Context, files []string) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		version := filepath.Base(f)
		m.log.Info("migration", zap.String("version", version), zap.Bool("applied", done[version]))
	}
	return nil
}

func (m *migrator) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// extractMigrationPart returns the lines between the "-- +migrate <section>"
// marker and the next marker.
func extractMigrationPart(content, section string) string {
	var part strings.Builder
	inPart := false

	for line := range strings.Lines(content) {
		if strings.HasPrefix(strings.TrimSpace(line), "-- +migrate") {
			if inPart {
				break
			}
			inPart = strings.Contains(line, "-- +migrate "+section)
			continue
		}
		if inPart {
			part.WriteString(line)
		}
	}
	return part.String()
}
