// Package postgres provides a storage.KV backed by a PostgreSQL table, for
// kiosk deployments where several terminals share one database.
package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/foodhub-client/db"
	"github.com/xenking/foodhub-client/internal/storage"
)

const (
	getEntrySQL = `SELECT value FROM kv_entries WHERE namespace = $1 AND key = $2`

	setEntrySQL = `INSERT INTO kv_entries (namespace, key, value, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
)

var (
	_ storage.KV     = (*Store)(nil)
	_ storage.Pinger = (*Store)(nil)
)

// NewPool creates a pgxpool.Pool for the given connection URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Store keeps values in the kv_entries table, scoped by namespace (one per
// terminal or customer).
type Store struct {
	pool      *pgxpool.Pool
	namespace string
}

// New returns a Store using pool. The schema must already exist.
func New(pool *pgxpool.Pool, namespace string) *Store {
	if namespace == "" {
		namespace = "default"
	}
	return &Store{pool: pool, namespace: namespace}
}

// Get returns the value for key or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, getEntrySQL, s.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting entry %q: %w", key, err)
	}
	return value, nil
}

// Set upserts the value for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, setEntrySQL, s.namespace, key, value); err != nil {
		return fmt.Errorf("setting entry %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
