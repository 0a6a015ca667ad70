// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

// Package store manages the PostgreSQL connection pool and schema
// migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	connectBaseDelay  = 500 * time.Millisecond
	connectMaxRetries = 5
)

// Connect opens a pgx pool and verifies it with a ping, retrying with
// exponential backoff so the service survives a database that comes up
// slightly later than it does.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_POOL_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectMaxRetries, retry.NewExponential(connectBaseDelay))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.Warn("database not reachable yet",
				"attempt", attempt,
				"error", pingErr,
			)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_UNREACHABLE").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	logger.Info("database connected", "attempts", attempt)
	return pool, nil
}
