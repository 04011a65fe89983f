// Package postgres implements the persistence contracts over
// jmoiron/sqlx + lib/pq. Every repo call runs under its own short
// timeout; there are no long-lived transactions.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	// readinessTimeout bounds the connect-time ping.
	readinessTimeout = 2 * time.Second

	// DefaultTimeout is the per-call deadline repos apply when callers
	// pass no tighter one.
	DefaultTimeout = 10 * time.Second
)

// Open connects to Postgres and verifies readiness.
func Open(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres readiness probe: %w", err)
	}
	return db, nil
}
