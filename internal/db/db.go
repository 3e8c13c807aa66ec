// Package db provides PostgreSQL storage for evaluation runs and their
// per-instance scores.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// schemaStatements create the tables used by the store. They are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS evaluation_runs (
		id            UUID PRIMARY KEY,
		strategy      TEXT NOT NULL,
		dataset       TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		score         DOUBLE PRECISION NOT NULL DEFAULT 0,
		instances     INTEGER NOT NULL DEFAULT 0,
		failed        INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_evaluation_runs_strategy ON evaluation_runs (strategy, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS instance_scores (
		run_id        UUID NOT NULL REFERENCES evaluation_runs (id) ON DELETE CASCADE,
		sample_id     INTEGER NOT NULL,
		num_items     INTEGER NOT NULL,
		capacity      DOUBLE PRECISION NOT NULL,
		total_value   DOUBLE PRECISION NOT NULL,
		total_weight  DOUBLE PRECISION NOT NULL,
		unused_ratio  DOUBLE PRECISION NOT NULL,
		solve_time    DOUBLE PRECISION NOT NULL,
		score         DOUBLE PRECISION NOT NULL,
		optimal_value DOUBLE PRECISION,
		error_message TEXT,
		PRIMARY KEY (run_id, sample_id)
	)`,
}

// EnsureSchema creates the tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
