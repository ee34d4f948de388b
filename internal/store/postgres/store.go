package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements internal/store.Store backed by a single pgxpool.Pool.
type Store struct {
	pool   *pgxpool.Pool
	tables TableNames
}

// New opens a pool, idempotently creates tables, and seeds category 0 plus
// any bootstrap users before returning.
func New(ctx context.Context, poolCfg PoolConfig, tables TableNames, bootstrapUsers []BootstrapUser) (*Store, error) {
	pool, err := NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := createTables(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, err
	}
	if err := seedCategoryAll(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, err
	}
	if err := seedUsers(ctx, pool, tables, bootstrapUsers); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, tables: tables}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}
