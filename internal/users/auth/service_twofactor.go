// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/wafya/internal/platform/audit"
	"github.com/taibuivan/wafya/internal/platform/constants"
	"github.com/taibuivan/wafya/internal/platform/sec"
	"github.com/taibuivan/wafya/internal/platform/validate"
)

// # Two-Factor Enrolment

/*
SetupTwoFactor generates a TOTP secret and parks it until the user confirms a code.

Description: The secret is kept in the enrolment store, not on the account, so
an account never carries a secret while two-factor is disabled.

Returns:
  - *sec.TOTPSecret: Base32 secret and otpauth URI for the authenticator app
  - error: 2FA_ALREADY_ENABLED
*/
func (service *Service) SetupTwoFactor(ctx context.Context, userID string) (*sec.TOTPSecret, error) {
	identity, err := service.identities.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if identity.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	secret, err := service.totp.GenerateSecret(identity.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_2fa_setup_failed: %w", err)
	}

	if err := service.enrollments.Save(ctx, identity.ID, secret.Secret, constants.TwoFactorEnrollmentTTL); err != nil {
		return nil, fmt.Errorf("auth_service_2fa_setup_save_failed: %w", err)
	}

	return secret, nil
}

/*
EnableTwoFactor confirms a pending enrolment with a current code.

Returns:
  - []string: Plaintext backup codes, shown once; only their digests are stored
  - error: 2FA_SETUP_REQUIRED, INVALID_2FA_CODE (400) or 2FA_ALREADY_ENABLED
*/
func (service *Service) EnableTwoFactor(ctx context.Context, userID, code string) ([]string, error) {
	code = strings.TrimSpace(code)

	validator := &validate.Validator{}
	if err := validator.Required(FieldToken, code).Digits(FieldToken, code, TwoFactorCodeDigits).Err(); err != nil {
		return nil, err
	}

	identity, err := service.identities.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if identity.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	secret, err := service.enrollments.Get(ctx, identity.ID)
	if errors.Is(err, ErrEnrollmentNotFound) {
		return nil, ErrTwoFactorSetupRequired
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_2fa_enable_lookup_failed: %w", err)
	}

	if !service.totp.Verify(secret, code) {
		service.audit.Security(ctx, audit.EventInvalidTwoFactorCode,
			slog.String("user_id", identity.ID),
			slog.String("stage", "enable"),
		)
		return nil, ErrInvalidTwoFactorSetupCode
	}

	backupCodes, err := sec.GenerateBackupCodes(constants.BackupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("auth_service_2fa_backup_codes_failed: %w", err)
	}

	hashes := make([]string, len(backupCodes))
	for i, backupCode := range backupCodes {
		hashes[i] = sec.HashBackupCode(backupCode)
	}

	if _, err := service.identities.Update(ctx, identity.ID, IdentityPatch{
		TwoFactorEnabled: Set(true),
		TwoFactorSecret:  Set(&secret),
		BackupCodeHashes: Set(hashes),
	}); err != nil {
		return nil, fmt.Errorf("auth_service_2fa_enable_failed: %w", err)
	}

	// The secret now lives on the account; a stale enrolment only expires.
	if err := service.enrollments.Delete(ctx, identity.ID); err != nil {
		service.notify(ctx, "2fa_enrollment_cleanup", err)
	}

	service.audit.Business(ctx, "two_factor_enabled", slog.String("user_id", identity.ID))
	return backupCodes, nil
}

/*
DisableTwoFactor turns two-factor off after re-checking the password.

Secret and backup codes are cleared together with the flag.
*/
func (service *Service) DisableTwoFactor(ctx context.Context, userID, password string) error {
	validator := &validate.Validator{}
	if err := validator.Required(FieldPassword, password).Err(); err != nil {
		return err
	}

	identity, err := service.identities.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !identity.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}

	if !service.hasher.Verify(password, identity.PasswordHash) {
		return ErrInvalidPassword
	}

	if _, err := service.identities.Update(ctx, identity.ID, IdentityPatch{
		TwoFactorEnabled: Set(false),
		TwoFactorSecret:  Set[*string](nil),
		BackupCodeHashes: Set[[]string](nil),
	}); err != nil {
		return fmt.Errorf("auth_service_2fa_disable_failed: %w", err)
	}

	service.audit.Business(ctx, "two_factor_disabled",
		slog.String("user_id", identity.ID),
		slog.Time("at", service.now().UTC().Truncate(time.Second)),
	)
	return nil
}
