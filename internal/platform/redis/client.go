// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects the service to its volatile key-value store.

Only short-lived state lives here, such as two-factor secrets that were issued
but not yet confirmed. Nothing is authoritative: losing Redis only forces a
user to restart an enrolment.
*/
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 2 * time.Second

// Options tunes the client from configuration. Zero fields fall back to go-redis defaults.
type Options struct {
	PoolSize         int
	OperationTimeout time.Duration
}

// ErrUnavailable wraps every connectivity failure reported by this package.
var ErrUnavailable = errors.New("redis unavailable")

/*
NewClient parses redisURL, applies options, and checks connectivity before returning.

The client is closed again when the first ping fails.
*/
func NewClient(ctx context.Context, redisURL string, options Options, logger *slog.Logger) (*redis.Client, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis_parse_url_failed: %w", err)
	}

	if options.PoolSize > 0 {
		parsed.PoolSize = options.PoolSize
	}
	if options.OperationTimeout > 0 {
		parsed.DialTimeout = options.OperationTimeout
		parsed.ReadTimeout = options.OperationTimeout
		parsed.WriteTimeout = options.OperationTimeout
	}

	client := redis.NewClient(parsed)
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected", slog.String("addr", parsed.Addr), slog.Int("db", parsed.DB))
	return client, nil
}

// Pinger is satisfied by [redis.Client].
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Ping reports whether client answers within a short deadline.
func Ping(ctx context.Context, client Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
