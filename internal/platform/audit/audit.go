// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package audit records security and business events as structured logs.
//
// Security events are emitted at WARN with audit=security and counted in
// Prometheus. They never carry secrets, passwords, tokens or TOTP codes.
package audit

import (
	"context"
	"log/slog"

	"github.com/taibuivan/wafya/internal/platform/ctxutil"
	"github.com/taibuivan/wafya/internal/platform/metrics"
)

// # Security Event Names

const (
	EventInvalidToken            = "invalid_token"
	EventUserNotFound            = "user_not_found"
	EventAccountDisabled         = "account_disabled"
	EventAccountLocked           = "account_locked"
	EventLoginFailed             = "login_failed"
	EventLockoutTriggered        = "lockout_triggered"
	EventInvalidTwoFactorCode    = "invalid_2fa_code"
	EventInsufficientPermissions = "insufficient_permissions"
	EventPatientAccessDenied     = "patient_access_denied"
	EventFacilityInactive        = "facility_inactive"
	EventSubscriptionExpired     = "subscription_expired"
)

// Logger writes audit entries through the request-scoped slog logger.
type Logger struct {
	fallback *slog.Logger
	metrics  *metrics.Registry
}

// New builds an audit logger. Both arguments may be nil.
func New(fallback *slog.Logger, registry *metrics.Registry) *Logger {
	if fallback == nil {
		fallback = slog.Default()
	}
	return &Logger{fallback: fallback, metrics: registry}
}

// Security records a security-relevant event such as a rejected token or a lockout.
func (l *Logger) Security(ctx context.Context, event string, attrs ...slog.Attr) {
	if l == nil {
		return
	}
	l.metrics.SecurityEvent(event)

	base := []slog.Attr{
		slog.String("audit", "security"),
		slog.String("event", event),
	}
	if ip := ctxutil.GetClientIP(ctx); ip != "" {
		base = append(base, slog.String("client_ip", ip))
	}

	l.loggerFor(ctx).LogAttrs(ctx, slog.LevelWarn, "security_event", append(base, attrs...)...)
}

// Business records a normal domain event such as a registration or password change.
func (l *Logger) Business(ctx context.Context, event string, attrs ...slog.Attr) {
	if l == nil {
		return
	}
	base := []slog.Attr{
		slog.String("audit", "business"),
		slog.String("event", event),
	}
	l.loggerFor(ctx).LogAttrs(ctx, slog.LevelInfo, "business_event", append(base, attrs...)...)
}

func (l *Logger) loggerFor(ctx context.Context) *slog.Logger {
	if logger := ctxutil.GetLogger(ctx); logger != slog.Default() {
		return logger
	}
	return l.fallback
}
