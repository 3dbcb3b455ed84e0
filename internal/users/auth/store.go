// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Identity Data Access

// IdentityRepository defines the data access contract for accounts.
type IdentityRepository interface {

	/*
		FindByEmail returns the account with the given (normalized) email.

		Parameters:
		  - ctx: context.Context
		  - email: string
		  - includeDeleted: bool (true for uniqueness checks, which must see soft-deleted rows)

		Returns:
		  - *Identity: Hydrated entity
		  - error: ErrIdentityNotFound or database failures
	*/
	FindByEmail(ctx context.Context, email string, includeDeleted bool) (*Identity, error)

	/*
		FindByID returns the live (not soft-deleted) account with the given ID.

		Returns:
		  - error: ErrIdentityNotFound or database failures
	*/
	FindByID(ctx context.Context, id string) (*Identity, error)

	/*
		FindByVerificationToken returns the account whose unexpired verification token hashes to tokenHash.
	*/
	FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*Identity, error)

	/*
		FindByResetToken returns the account whose unexpired reset token hashes to tokenHash.
	*/
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Identity, error)

	/*
		Create persists a brand-new account.

		Returns:
		  - error: ErrEmailAlreadyExists on a unique violation, otherwise persistence failures
	*/
	Create(ctx context.Context, identity *Identity) error

	/*
		Update writes the assigned fields of patch in a single-row update.

		Returns:
		  - *Identity: The record as stored after the update
		  - error: ErrIdentityNotFound or persistence failures
	*/
	Update(ctx context.Context, id string, patch IdentityPatch) (*Identity, error)

	/*
		IncrementFailedLogins atomically adds one failed attempt and sets lockedUntil
		when the new count reaches maxAttempts.
	*/
	IncrementFailedLogins(ctx context.Context, id string, maxAttempts int, lockedUntil time.Time) (*Identity, error)

	/*
		ConsumeBackupCode removes codeHash from the account's recovery codes.

		Returns:
		  - bool: false if the code was not present (already used or never issued)
	*/
	ConsumeBackupCode(ctx context.Context, id, codeHash string) (bool, error)
}

// # Volatile Data Access

// TwoFactorEnrollmentStore keeps secrets that were generated but not yet confirmed.
type TwoFactorEnrollmentStore interface {

	/*
		Save stores the pending secret for userID, replacing any earlier one.
	*/
	Save(ctx context.Context, userID, secret string, ttl time.Duration) error

	/*
		Get returns the pending secret, or ErrEnrollmentNotFound when absent or expired.
	*/
	Get(ctx context.Context, userID string) (string, error)

	/*
		Delete discards the pending secret.
	*/
	Delete(ctx context.Context, userID string) error
}

// # Collaborators

// PatientProfileCreator provisions the clinical profile of a newly registered patient.
type PatientProfileCreator interface {
	CreateForUser(ctx context.Context, userID string, facilityID *string) error
}

// Notifier delivers one-time tokens to account holders.
type Notifier interface {
	SendVerification(ctx context.Context, identity *Identity, token string) error
	SendPasswordReset(ctx context.Context, identity *Identity, token string) error
}
