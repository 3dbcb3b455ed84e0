// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/wafya/internal/platform/audit"
	"github.com/taibuivan/wafya/internal/platform/ctxutil"
)

/*
TestSecurity writes a WARN entry tagged as a security audit with the client IP.
*/
func TestSecurity(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))
	auditor := audit.New(logger, nil)

	ctx := ctxutil.WithClientIP(context.Background(), "41.158.0.10")
	auditor.Security(ctx, audit.EventLoginFailed, slog.String("user_id", "u1"), slog.Int("attempts", 3))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))

	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "security", entry["audit"])
	assert.Equal(t, "login_failed", entry["event"])
	assert.Equal(t, "41.158.0.10", entry["client_ip"])
	assert.Equal(t, "u1", entry["user_id"])
}

/*
TestBusiness prefers the request logger stored in context.
*/
func TestBusiness(t *testing.T) {
	var fallback, scoped bytes.Buffer
	auditor := audit.New(slog.New(slog.NewJSONHandler(&fallback, nil)), nil)

	ctx := ctxutil.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&scoped, nil)))
	auditor.Business(ctx, "user_registered")

	assert.Empty(t, fallback.String())
	assert.Contains(t, scoped.String(), `"audit":"business"`)
	assert.Contains(t, scoped.String(), `"event":"user_registered"`)
}

/*
TestNilLogger tolerates a missing auditor.
*/
func TestNilLogger(t *testing.T) {
	var auditor *audit.Logger
	assert.NotPanics(t, func() {
		auditor.Security(context.Background(), audit.EventInvalidToken)
		auditor.Business(context.Background(), "noop")
	})
}
