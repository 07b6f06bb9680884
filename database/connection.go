package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the bot workload: traffic is many short queries from
// per-user update handlers, so a small pool with quick idle reclaim fits.
const (
	poolMaxConns        = 8
	poolMinConns        = 2
	poolMaxConnIdleTime = 5 * time.Minute
)

// DB wraps the pgx pool shared by the repositories and the migrator.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a connection pool for databaseURL and verifies it
// with a ping before handing it out.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	poolConfig.MaxConns = poolMaxConns
	poolConfig.MinConns = poolMinConns
	poolConfig.MaxConnIdleTime = poolMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.Pool.Close()
}
