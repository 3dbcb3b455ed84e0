// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"

	"github.com/taibuivan/wafya/internal/platform/ctxutil"
)

// LogNotifier records that a token was issued without delivering it.
//
// It stands in until a mail provider is wired; the token itself is never logged.
type LogNotifier struct{}

// SendVerification implements [Notifier].
func (LogNotifier) SendVerification(ctx context.Context, identity *Identity, _ string) error {
	ctxutil.GetLogger(ctx).InfoContext(ctx, "verification_email_queued", slog.String("user_id", identity.ID))
	return nil
}

// SendPasswordReset implements [Notifier].
func (LogNotifier) SendPasswordReset(ctx context.Context, identity *Identity, _ string) error {
	ctxutil.GetLogger(ctx).InfoContext(ctx, "password_reset_email_queued", slog.String("user_id", identity.ID))
	return nil
}
