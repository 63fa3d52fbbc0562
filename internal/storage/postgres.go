package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/xzhiot/telemetry-replayer/internal/config"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS replay_events (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		run_id UUID NOT NULL,
		zone TEXT NOT NULL,
		device TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		details JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS replay_events_device_idx ON replay_events (zone, device, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS replay_events_run_idx ON replay_events (run_id)`,
}

// PostgresStore implements Store interface for PostgreSQL
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an open database handle
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the event table and its indexes
func (s *PostgresStore) Migrate(ctx context.Context) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}

	for _, stmt := range schema {
		if _, err := tx.getDB().ExecContext(ctx, stmt); err != nil {
			tx.rollback()
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if err := tx.commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) beginTx(ctx context.Context) (*PostgresStore, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: s.db, tx: tx}, nil
}

func (s *PostgresStore) commit() error {
	if s.tx == nil {
		return nil
	}
	return s.tx.Commit()
}

func (s *PostgresStore) rollback() error {
	if s.tx == nil {
		return nil
	}
	return s.tx.Rollback()
}

// getDB returns tx if in transaction, otherwise db
func (s *PostgresStore) getDB() interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}
