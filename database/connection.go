package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrNoDatabaseURL is returned when no connection string is configured.
var ErrNoDatabaseURL = errors.New("DATABASE_URL not set in environment")

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// GetPool returns a singleton connection pool for url. Only the first call's
// url is used.
func GetPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		if url == "" {
			poolErr = ErrNoDatabaseURL
			return
		}

		pool, poolErr = pgxpool.New(ctx, url)
		if poolErr != nil {
			poolErr = fmt.Errorf("unable to create connection pool: %w", poolErr)
			return
		}

		// Test the connection
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			pool = nil
			poolErr = fmt.Errorf("unable to ping database: %w", err)
			return
		}
	})

	return pool, poolErr
}

// OpenDB exposes the pool through database/sql for the introspection
// queries.
func OpenDB(ctx context.Context, url string) (*sql.DB, error) {
	p, err := GetPool(ctx, url)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDBFromPool(p), nil
}

// ClosePool closes the connection pool (should be called on application shutdown)
func ClosePool() {
	if pool != nil {
		pool.Close()
	}
}
