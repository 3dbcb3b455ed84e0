// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/wafya/internal/platform/ctxutil"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies that the principal can be stored in context.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	principal := &sec.Principal{
		ID:   "user-123",
		Role: sec.RoleDoctor,
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAuthUser(ctx, principal)
	retrieved := ctxutil.GetAuthUser(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.ID)
	assert.Equal(t, sec.RoleDoctor, retrieved.Role)
}

/*
TestContext_ExposeErrorsAndIP covers the remaining request-scoped flags.
*/
func TestContext_ExposeErrorsAndIP(t *testing.T) {
	ctx := context.Background()

	assert.False(t, ctxutil.ExposeErrors(ctx))
	assert.Empty(t, ctxutil.GetClientIP(ctx))

	ctx = ctxutil.WithExposeErrors(ctx, true)
	ctx = ctxutil.WithClientIP(ctx, "10.0.0.7")

	assert.True(t, ctxutil.ExposeErrors(ctx))
	assert.Equal(t, "10.0.0.7", ctxutil.GetClientIP(ctx))
}
