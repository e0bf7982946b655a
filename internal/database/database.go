// Package database owns the PostgreSQL pool behind the credential and
// refresh token stores and the schema they need.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Options carries the pool settings from configuration. Zero durations fall
// back to conservative defaults.
type Options struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = opts.MinConns
	cfg.MaxConnLifetime = orDefault(opts.ConnMaxLifetime, 30*time.Minute)
	cfg.MaxConnIdleTime = orDefault(opts.ConnMaxIdleTime, 5*time.Minute)
	cfg.HealthCheckPeriod = orDefault(opts.HealthCheckPeriod, 30*time.Second)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("connected to postgres",
		"max_conns", opts.MaxConns,
		"min_conns", opts.MinConns,
		"conn_max_lifetime", cfg.MaxConnLifetime)
	return &DB{Pool: pool}, nil
}

func orDefault(d time.Duration, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
