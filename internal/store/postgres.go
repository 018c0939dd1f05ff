// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store owns the PostgreSQL schema and connection lifecycle.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection retry settings.
const (
	DefaultConnectAttempts = 5
	DefaultConnectDelay    = 500 * time.Millisecond
	maxConnectDelay        = 10 * time.Second
)

// ConnectOption configures Connect.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

// WithConnectAttempts sets the total number of connection attempts.
// Values below 1 are treated as 1.
func WithConnectAttempts(n int) ConnectOption {
	return func(o *connectOptions) {
		o.attempts = max(n, 1)
	}
}

// WithConnectDelay sets the base delay of the exponential backoff.
func WithConnectDelay(d time.Duration) ConnectOption {
	return func(o *connectOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithConnectLogger sets the logger used to report failed attempts.
func WithConnectLogger(l *slog.Logger) ConnectOption {
	return func(o *connectOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type pinger interface {
	Ping(ctx context.Context) error
	Close()
}

// Connect opens a pgx pool and pings it, retrying with exponential backoff
// while the database is unreachable. A malformed URL fails immediately.
func Connect(ctx context.Context, databaseURL string, opts ...ConnectOption) (*pgxpool.Pool, error) {
	return dial(ctx, databaseURL, newConnectOptions(opts), pgxpool.New)
}

func newConnectOptions(opts []ConnectOption) connectOptions {
	o := connectOptions{
		attempts: DefaultConnectAttempts,
		delay:    DefaultConnectDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func dial[P pinger](
	ctx context.Context,
	databaseURL string,
	o connectOptions,
	open func(context.Context, string) (P, error),
) (P, error) {
	var zero P
	if databaseURL == "" {
		return zero, oops.Code("DB_URL_MISSING").Errorf("database url is required")
	}

	pool, err := open(ctx, databaseURL)
	if err != nil {
		return zero, oops.Code("DB_CONFIG_INVALID").With("operation", "open pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(uint64(o.attempts-1), //nolint:gosec // attempts is at least 1
		retry.WithCappedDuration(maxConnectDelay, retry.NewExponential(o.delay)))

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			o.logger.Warn("database not reachable",
				"event", "db_connect_retry",
				"attempt", attempt,
				"max_attempts", o.attempts,
				"error", err.Error(),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return zero, oops.Code("DB_CONNECT_FAILED").
			With("attempts", attempt).
			Wrap(err)
	}
	return pool, nil
}
