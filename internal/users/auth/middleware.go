// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/wafya/internal/platform/audit"
	"github.com/taibuivan/wafya/internal/platform/constants"
	"github.com/taibuivan/wafya/internal/platform/ctxutil"
	"github.com/taibuivan/wafya/internal/platform/respond"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

// identityFinder is the slice of [IdentityRepository] the authenticator reads.
type identityFinder interface {
	FindByID(ctx context.Context, id string) (*Identity, error)
}

// Authenticator turns a bearer access token into a [sec.Principal] on the context.
//
// Token claims are only used to find the account; role, facility and state
// always come from the live record.
type Authenticator struct {
	tokens          *sec.TokenService
	identities      identityFinder
	lockout         *LockoutPolicy
	audit           *audit.Logger
	requireVerified bool
}

// NewAuthenticator builds an [Authenticator]. When requireVerified is set,
// unverified accounts are rejected with EMAIL_NOT_VERIFIED.
func NewAuthenticator(tokens *sec.TokenService, identities identityFinder, lockout *LockoutPolicy, auditor *audit.Logger, requireVerified bool) *Authenticator {
	return &Authenticator{
		tokens:          tokens,
		identities:      identities,
		lockout:         lockout,
		audit:           auditor,
		requireVerified: requireVerified,
	}
}

/*
Authenticate rejects any request without a valid token for a usable account.

Failures, in order: AUTH_TOKEN_MISSING, TOKEN_EXPIRED, INVALID_TOKEN,
USER_NOT_FOUND, ACCOUNT_DISABLED, ACCOUNT_LOCKED, EMAIL_NOT_VERIFIED.
*/
func (authenticator *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		identity, err := authenticator.resolve(req, true)
		if err != nil {
			respond.Error(writer, req, err)
			return
		}
		next.ServeHTTP(writer, req.WithContext(authenticated(req.Context(), identity)))
	})
}

// Optional attaches a principal when the token checks out and otherwise continues anonymously.
func (authenticator *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		identity, err := authenticator.resolve(req, false)
		if err != nil {
			next.ServeHTTP(writer, req)
			return
		}
		next.ServeHTTP(writer, req.WithContext(authenticated(req.Context(), identity)))
	})
}

// resolve runs every check. Security events are only recorded when loud is set.
func (authenticator *Authenticator) resolve(req *http.Request, loud bool) (*Identity, error) {
	ctx := req.Context()

	raw, ok := bearerToken(req.Header.Get(constants.HeaderAuthorization))
	if !ok {
		return nil, ErrTokenMissing
	}

	claims, err := authenticator.tokens.VerifyAccessToken(raw)
	switch {
	case errors.Is(err, sec.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		if loud {
			authenticator.audit.Security(ctx, audit.EventInvalidToken, slog.String("error", err.Error()))
		}
		return nil, ErrInvalidToken.WithCause(err)
	}

	identity, err := authenticator.identities.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrIdentityNotFound) {
		if loud {
			authenticator.audit.Security(ctx, audit.EventUserNotFound, slog.String("user_id", claims.UserID))
		}
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if !identity.IsActive {
		if loud {
			authenticator.audit.Security(ctx, audit.EventAccountDisabled, slog.String("user_id", identity.ID))
		}
		return nil, ErrAccountDisabled
	}

	if authenticator.lockout.IsLocked(identity) {
		if loud {
			authenticator.audit.Security(ctx, audit.EventAccountLocked, slog.String("user_id", identity.ID))
		}
		return nil, authenticator.lockout.LockedError(identity)
	}

	if authenticator.requireVerified && !identity.IsVerified {
		return nil, ErrEmailNotVerified
	}

	return identity, nil
}

// authenticated stores the principal and tags the request logger with it.
func authenticated(ctx context.Context, identity *Identity) context.Context {
	logger := ctxutil.GetLogger(ctx).With(
		slog.String("user_id", identity.ID),
		slog.String("role", identity.Role.String()),
	)
	ctx = ctxutil.WithLogger(ctx, logger)
	return ctxutil.WithAuthUser(ctx, identity.Principal())
}

// bearerToken extracts the credential from "Bearer <token>". The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
