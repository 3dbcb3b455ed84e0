// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/taibuivan/wafya/internal/platform/redis"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

/*
TestNewClient connects, applies options and reports outages.
*/
func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redisstore.NewClient(ctx, "redis://"+server.Addr()+"/0", redisstore.Options{
		PoolSize:         4,
		OperationTimeout: time.Second,
	}, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 4, client.Options().PoolSize)
	assert.Equal(t, time.Second, client.Options().ReadTimeout)
	assert.NoError(t, redisstore.Ping(ctx, client))

	server.Close()
	assert.ErrorIs(t, redisstore.Ping(ctx, client), redisstore.ErrUnavailable)
}

/*
TestNewClient_Failures rejects bad URLs and unreachable servers.
*/
func TestNewClient_Failures(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		unavailable bool
	}{
		{"malformed url", "http://not-redis", false},
		{"unreachable", "redis://127.0.0.1:1/0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := redisstore.NewClient(context.Background(), tt.url, redisstore.Options{OperationTimeout: 200 * time.Millisecond}, discard)
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, redisstore.ErrUnavailable))
		})
	}
}
