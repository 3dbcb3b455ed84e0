// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/wafya/internal/platform/apperr"
)

// # Domain Errors
//
// Codes are part of the public API contract; clients branch on them.

var (
	// ErrIdentityNotFound is returned by repositories when no row matches.
	ErrIdentityNotFound = apperr.NotFound("User")

	ErrEmailAlreadyExists = apperr.New(http.StatusConflict, "EMAIL_ALREADY_EXISTS", "An account with this email already exists")

	// ErrInvalidCredentials never distinguishes an unknown email from a wrong password.
	ErrInvalidCredentials = apperr.New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")

	ErrAccountLocked   = apperr.New(http.StatusLocked, "ACCOUNT_LOCKED", "Account temporarily locked")
	ErrAccountDisabled = apperr.New(http.StatusUnauthorized, "ACCOUNT_DISABLED", "Account disabled")
	ErrInvalidPassword = apperr.New(http.StatusUnauthorized, "INVALID_PASSWORD", "Incorrect password")

	// Two-factor
	ErrInvalidTwoFactorCode      = apperr.New(http.StatusUnauthorized, "INVALID_2FA_CODE", "Invalid two-factor code")
	ErrInvalidTwoFactorSetupCode = apperr.New(http.StatusBadRequest, "INVALID_2FA_CODE", "Invalid two-factor code")
	ErrTwoFactorAlreadyEnabled   = apperr.New(http.StatusBadRequest, "2FA_ALREADY_ENABLED", "Two-factor authentication is already enabled")
	ErrTwoFactorNotEnabled       = apperr.New(http.StatusBadRequest, "2FA_NOT_ENABLED", "Two-factor authentication is not enabled")
	ErrTwoFactorSetupRequired    = apperr.New(http.StatusBadRequest, "2FA_SETUP_REQUIRED", "Start two-factor setup before enabling it")

	// One-time tokens
	ErrRefreshTokenRequired     = apperr.New(http.StatusBadRequest, "REFRESH_TOKEN_REQUIRED", "Refresh token required")
	ErrInvalidRefreshToken      = apperr.New(http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token")
	ErrInvalidResetToken        = apperr.New(http.StatusBadRequest, "INVALID_RESET_TOKEN", "Invalid or expired reset token")
	ErrInvalidVerificationToken = apperr.New(http.StatusBadRequest, "INVALID_VERIFICATION_TOKEN", "Invalid or expired verification token")

	// Request authentication
	ErrTokenMissing     = apperr.New(http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Access token required")
	ErrTokenExpired     = apperr.New(http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token expired")
	ErrInvalidToken     = apperr.New(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid access token")
	ErrUserNotFound     = apperr.New(http.StatusUnauthorized, "USER_NOT_FOUND", "User not found")
	ErrEmailNotVerified = apperr.New(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Email address not verified")
)
