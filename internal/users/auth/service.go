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
	"github.com/taibuivan/wafya/internal/platform/ctxutil"
	"github.com/taibuivan/wafya/internal/platform/metrics"
	"github.com/taibuivan/wafya/internal/platform/sec"
	"github.com/taibuivan/wafya/internal/platform/validate"
	"github.com/taibuivan/wafya/pkg/email"
	"github.com/taibuivan/wafya/pkg/uuid"
)

// # Contracts & Types

// ServiceDeps lists the collaborators of [Service]. Patients, Notifier,
// Audit and Metrics are optional.
type ServiceDeps struct {
	Identities  IdentityRepository
	Enrollments TwoFactorEnrollmentStore
	Hasher      *sec.PasswordHasher
	Tokens      *sec.TokenService
	TOTP        *sec.TOTP
	Lockout     *LockoutPolicy
	Patients    PatientProfileCreator
	Notifier    Notifier
	Audit       *audit.Logger
	Metrics     *metrics.Registry
	Now         func() time.Time
}

// Service implements the account and credential use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, lockout,
// token issuance or two-factor logic must be reviewed by the security team.
type Service struct {
	identities  IdentityRepository
	enrollments TwoFactorEnrollmentStore
	hasher      *sec.PasswordHasher
	tokens      *sec.TokenService
	totp        *sec.TOTP
	lockout     *LockoutPolicy
	patients    PatientProfileCreator
	notifier    Notifier
	audit       *audit.Logger
	metrics     *metrics.Registry
	now         func() time.Time

	// dummyHash is compared against when the email is unknown so both
	// failure paths spend one bcrypt verification.
	dummyHash string
}

// NewService constructs a [Service] and precomputes the timing-equalisation hash.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Identities == nil || deps.Enrollments == nil || deps.Hasher == nil ||
		deps.Tokens == nil || deps.TOTP == nil || deps.Lockout == nil {
		return nil, errors.New("auth: missing required service dependency")
	}

	dummyHash, err := deps.Hasher.Hash(uuid.New())
	if err != nil {
		return nil, fmt.Errorf("auth: failed to prepare dummy hash: %w", err)
	}

	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Service{
		identities:  deps.Identities,
		enrollments: deps.Enrollments,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		totp:        deps.TOTP,
		lockout:     deps.Lockout,
		patients:    deps.Patients,
		notifier:    deps.Notifier,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		now:         deps.Now,
		dummyHash:   dummyHash,
	}, nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// RegisterResult is a created account with its first token pair.
type RegisterResult struct {
	Identity *Identity
	Tokens   *sec.TokenPair

	// VerificationToken is the raw token; handlers only expose it in development.
	VerificationToken string
}

/*
Register validates, hashes, and persists a brand new account.

Description: Uniqueness is checked against soft-deleted rows too, so a deleted
account keeps its address reserved. Patients also get a clinical profile.

Returns:
  - *RegisterResult: Created entity, tokens and the raw verification token
  - error: VALIDATION_ERROR, EMAIL_ALREADY_EXISTS or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	input.Email = email.Normalize(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Role == "" {
		input.Role = string(sec.RolePatient)
	}

	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	// Soft-deleted accounts still own their email address.
	_, err := service.identities.FindByEmail(ctx, input.Email, true)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	verificationToken, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_token_failed: %w", err)
	}

	identity, err := service.newIdentity(input, verificationToken)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_build_failed: %w", err)
	}

	if err := service.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// The account stands even if the profile fails; it can be provisioned later.
	if identity.Role == sec.RolePatient && service.patients != nil {
		if err := service.patients.CreateForUser(ctx, identity.ID, identity.FacilityID); err != nil {
			ctxutil.GetLogger(ctx).ErrorContext(ctx, "patient_profile_creation_failed",
				slog.String("user_id", identity.ID),
				slog.Any("error", err),
			)
		}
	}

	tokens, err := service.tokens.IssuePair(identity.AccessSubject())
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_tokens_failed: %w", err)
	}

	service.notify(ctx, "verification", service.notifier.SendVerification(ctx, identity, verificationToken))
	service.audit.Business(ctx, "user_registered",
		slog.String("user_id", identity.ID),
		slog.String("role", identity.Role.String()),
	)

	return &RegisterResult{Identity: identity, Tokens: tokens, VerificationToken: verificationToken}, nil
}

// newIdentity builds the record to persist; the password always goes through the hasher.
func (service *Service) newIdentity(input RegisterInput, verificationToken string) (*Identity, error) {
	passwordHash, err := HashedPassword(service.hasher, input.Password)
	if err != nil {
		return nil, err
	}

	now := service.now().UTC()
	verificationHash := sec.HashToken(verificationToken)
	verificationExpiry := now.Add(VerificationTokenTTL)

	identity := &Identity{
		ID:                    uuid.New(),
		Email:                 input.Email,
		PasswordHash:          passwordHash.Value,
		Role:                  sec.Role(input.Role),
		FirstName:             input.FirstName,
		LastName:              input.LastName,
		IsActive:              true,
		VerificationTokenHash: &verificationHash,
		VerificationExpiresAt: &verificationExpiry,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if input.Phone != "" {
		identity.Phone = &input.Phone
	}

	return identity, identity.Validate()
}

func validateRegistration(input RegisterInput) error {
	roles := sec.SelfRegistrableRoles()
	allowed := make([]string, len(roles))
	for i, role := range roles {
		allowed[i] = role.String()
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Password(FieldPassword, input.Password).
		Required(FieldFirstName, input.FirstName).
		MaxLen(FieldFirstName, input.FirstName, NameMaxLength).
		Required(FieldLastName, input.LastName).
		MaxLen(FieldLastName, input.LastName, NameMaxLength).
		OneOf(FieldRole, input.Role, allowed...)

	if input.Phone != "" {
		validator.Phone(FieldPhone, input.Phone)
	}

	return validator.Err()
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email         string
	Password      string
	TwoFactorCode string
	ClientIP      string
}

// LoginResult is either an authenticated session or a second-factor challenge.
type LoginResult struct {
	Identity *Identity
	Tokens   *sec.TokenPair

	// RequiresTwoFactor is set, with UserID, when the password was right but no code was sent.
	RequiresTwoFactor bool
	UserID            string
}

/*
Login validates credentials and issues a token pair.

Description: The checks run in a fixed order: lookup, lock, password, active
flag, second factor. Password and second-factor failures count towards the
lockout; a full success clears it.

Returns:
  - *LoginResult: Tokens, or a two-factor challenge
  - error: INVALID_CREDENTIALS, ACCOUNT_LOCKED, ACCOUNT_DISABLED, INVALID_2FA_CODE
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = email.Normalize(input.Email)

	validator := &validate.Validator{}
	if err := validator.Required(FieldEmail, input.Email).Required(FieldPassword, input.Password).Err(); err != nil {
		return nil, err
	}

	identity, err := service.identities.FindByEmail(ctx, input.Email, false)
	if errors.Is(err, ErrIdentityNotFound) {
		service.hasher.Verify(input.Password, service.dummyHash)
		service.metrics.LoginAttempt(metrics.LoginFailed)
		service.audit.Security(ctx, audit.EventLoginFailed,
			slog.String("reason", "unknown_email"),
			slog.String("email_domain", email.Domain(input.Email)),
		)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	if service.lockout.IsLocked(identity) {
		service.metrics.LoginAttempt(metrics.LoginLocked)
		service.audit.Security(ctx, audit.EventAccountLocked, slog.String("user_id", identity.ID))
		return nil, service.lockout.LockedError(identity)
	}

	if !service.hasher.Verify(input.Password, identity.PasswordHash) {
		return nil, service.recordLoginFailure(ctx, identity, audit.EventLoginFailed, ErrInvalidCredentials)
	}

	if !identity.IsActive {
		service.metrics.LoginAttempt(metrics.LoginFailed)
		service.audit.Security(ctx, audit.EventAccountDisabled, slog.String("user_id", identity.ID))
		return nil, ErrAccountDisabled
	}

	if identity.TwoFactorEnabled {
		if strings.TrimSpace(input.TwoFactorCode) == "" {
			return &LoginResult{RequiresTwoFactor: true, UserID: identity.ID}, nil
		}

		valid, err := service.verifySecondFactor(ctx, identity, input.TwoFactorCode)
		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, service.recordLoginFailure(ctx, identity, audit.EventInvalidTwoFactorCode, ErrInvalidTwoFactorCode)
		}
	}

	identity, err = service.lockout.RecordSuccess(ctx, identity, input.ClientIP)
	if err != nil {
		return nil, err
	}

	tokens, err := service.tokens.IssuePair(identity.AccessSubject())
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_tokens_failed: %w", err)
	}

	service.metrics.LoginAttempt(metrics.LoginSucceeded)
	service.audit.Business(ctx, "login_succeeded",
		slog.String("user_id", identity.ID),
		slog.String("role", identity.Role.String()),
	)

	return &LoginResult{Identity: identity, Tokens: tokens}, nil
}

// recordLoginFailure counts a failed factor, audits it and returns the client-facing error.
func (service *Service) recordLoginFailure(ctx context.Context, identity *Identity, event string, clientErr error) error {
	updated, lockedNow, err := service.lockout.RecordFailure(ctx, identity)
	if err != nil {
		return err
	}

	service.metrics.LoginAttempt(metrics.LoginFailed)
	service.audit.Security(ctx, event,
		slog.String("user_id", identity.ID),
		slog.Int("attempts", updated.FailedLoginAttempts),
	)

	if lockedNow {
		service.metrics.Lockout()
		service.audit.Security(ctx, audit.EventLockoutTriggered,
			slog.String("user_id", identity.ID),
			slog.Time("locked_until", *updated.LockedUntil),
		)
	}

	return clientErr
}

// verifySecondFactor accepts a current TOTP code or an unused backup code.
//
// Backup codes are single-use: a matching code is removed before success is reported.
func (service *Service) verifySecondFactor(ctx context.Context, identity *Identity, code string) (bool, error) {
	code = strings.TrimSpace(code)

	if identity.TwoFactorSecret != nil && service.totp.Verify(*identity.TwoFactorSecret, code) {
		return true, nil
	}

	normalized := sec.NormalizeBackupCode(code)
	if len(normalized) != sec.BackupCodeLength {
		return false, nil
	}

	consumed, err := service.identities.ConsumeBackupCode(ctx, identity.ID, sec.HashToken(normalized))
	if err != nil {
		return false, fmt.Errorf("auth_service_backup_code_failed: %w", err)
	}
	if consumed {
		service.audit.Business(ctx, "backup_code_used", slog.String("user_id", identity.ID))
	}
	return consumed, nil
}

// # Session Management

/*
Refresh exchanges a refresh token for a new pair built from the live account.

Description: Role and facility always come from the stored account, never from
the presented token. There is no revocation list, so any valid unexpired refresh
token of an active account succeeds.

Returns:
  - error: REFRESH_TOKEN_REQUIRED or INVALID_REFRESH_TOKEN
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*sec.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := service.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken.WithCause(err)
	}

	identity, err := service.identities.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	if !identity.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	tokens, err := service.tokens.IssuePair(identity.AccessSubject())
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_tokens_failed: %w", err)
	}
	return tokens, nil
}

// Logout records the event. Tokens stay valid until they expire; clients discard them.
func (service *Service) Logout(ctx context.Context, principal *sec.Principal) {
	service.audit.Business(ctx, "logout", slog.String("user_id", principal.ID))
}

// # Password Recovery

/*
ForgotPassword issues a one-hour reset token if the address belongs to an account.

Description: The outcome is indistinguishable for unknown addresses to prevent
enumeration. Only the token digest is stored.

Returns:
  - string: The raw token, or "" when no account matched
*/
func (service *Service) ForgotPassword(ctx context.Context, address string) (string, error) {
	identity, err := service.identities.FindByEmail(ctx, email.Normalize(address), false)
	if errors.Is(err, ErrIdentityNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("auth_service_forgot_password_lookup_failed: %w", err)
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	tokenHash := sec.HashToken(token)
	expiresAt := service.now().UTC().Add(ResetTokenTTL)

	if _, err := service.identities.Update(ctx, identity.ID, IdentityPatch{
		ResetTokenHash: Set(&tokenHash),
		ResetExpiresAt: Set(&expiresAt),
	}); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	service.notify(ctx, "password_reset", service.notifier.SendPasswordReset(ctx, identity, token))
	service.audit.Business(ctx, "password_reset_requested", slog.String("user_id", identity.ID))

	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Consumes the token, stores the new hash and clears any lockout,
so a locked-out user can recover without waiting.
*/
func (service *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	validator := &validate.Validator{}
	if err := validator.Required(FieldToken, token).Password(FieldPassword, newPassword).Err(); err != nil {
		return err
	}

	identity, err := service.identities.FindByResetToken(ctx, sec.HashToken(token), service.now().UTC())
	if errors.Is(err, ErrIdentityNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_lookup_failed: %w", err)
	}

	passwordHash, err := HashedPassword(service.hasher, newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	patch := IdentityPatch{
		PasswordHash:   passwordHash,
		ResetTokenHash: Set[*string](nil),
		ResetExpiresAt: Set[*time.Time](nil),
	}
	clearLockout(&patch)

	if _, err := service.identities.Update(ctx, identity.ID, patch); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	service.audit.Business(ctx, "password_reset", slog.String("user_id", identity.ID))
	return nil
}

/*
ChangePassword lets an authenticated user rotate their password.

Returns:
  - error: INVALID_PASSWORD when the current password does not match
*/
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	validator := &validate.Validator{}
	if err := validator.Required(FieldCurrentPassword, currentPassword).Password(FieldNewPassword, newPassword).Err(); err != nil {
		return err
	}

	identity, err := service.identities.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !service.hasher.Verify(currentPassword, identity.PasswordHash) {
		return ErrInvalidPassword
	}

	passwordHash, err := HashedPassword(service.hasher, newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if _, err := service.identities.Update(ctx, userID, IdentityPatch{PasswordHash: passwordHash}); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	service.audit.Business(ctx, "password_changed", slog.String("user_id", userID))
	return nil
}

// # Email Verification

// VerifyEmail marks the account behind an unexpired verification token as verified.
func (service *Service) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidVerificationToken
	}

	identity, err := service.identities.FindByVerificationToken(ctx, sec.HashToken(token), service.now().UTC())
	if errors.Is(err, ErrIdentityNotFound) {
		return ErrInvalidVerificationToken
	}
	if err != nil {
		return fmt.Errorf("auth_service_verify_email_lookup_failed: %w", err)
	}

	if _, err := service.identities.Update(ctx, identity.ID, IdentityPatch{
		IsVerified:            Set(true),
		VerificationTokenHash: Set[*string](nil),
		VerificationExpiresAt: Set[*time.Time](nil),
	}); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	service.audit.Business(ctx, "email_verified", slog.String("user_id", identity.ID))
	return nil
}

// # Account Lifecycle

// Profile returns the live account of an authenticated user.
func (service *Service) Profile(ctx context.Context, userID string) (*Identity, error) {
	return service.identities.FindByID(ctx, userID)
}

/*
DeleteAccount soft-deletes the account after re-checking the password.

The row is kept so the email address stays reserved.
*/
func (service *Service) DeleteAccount(ctx context.Context, userID, password string) error {
	identity, err := service.identities.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !service.hasher.Verify(password, identity.PasswordHash) {
		return ErrInvalidPassword
	}

	now := service.now().UTC()
	if _, err := service.identities.Update(ctx, userID, IdentityPatch{
		IsActive:  Set(false),
		DeletedAt: Set(&now),
	}); err != nil {
		return fmt.Errorf("auth_service_delete_account_failed: %w", err)
	}

	service.audit.Business(ctx, "account_deleted", slog.String("user_id", userID))
	return nil
}

// notify logs delivery failures; a lost email must not fail the request.
func (service *Service) notify(ctx context.Context, kind string, err error) {
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "notification_failed",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
	}
}
