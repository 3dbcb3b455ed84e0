// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements account identity, credentials and request authentication.

It owns the account record and every flow that touches credentials: registration,
login with lockout and optional TOTP, token refresh, password recovery, email
verification and two-factor enrolment. It also provides the middleware that turns
a bearer token into a [sec.Principal] on the request context.

# Architecture

  - Identity: The account record and its invariants.
  - Repository: Postgres for accounts, Redis for pending two-factor enrolments.
  - Service: Orchestrates the flows above; no HTTP knowledge.
  - Authenticator / Handler: Transport concerns only.
*/
package auth

import (
	"errors"
	"time"

	"github.com/taibuivan/wafya/internal/platform/database/schema"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

// # Domain Entities

// Identity is a registered account of any role.
//
// Credential material (hashes, secrets, token digests) is never serialized.
type Identity struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         sec.Role `json:"role"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Phone        *string  `json:"phone,omitempty"`
	IsActive     bool     `json:"isActive"`
	IsVerified   bool     `json:"isVerified"`
	FacilityID   *string  `json:"facilityId,omitempty"`

	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	LastLoginIP         *string    `json:"-"`

	TwoFactorEnabled bool     `json:"twoFactorEnabled"`
	TwoFactorSecret  *string  `json:"-"`
	BackupCodeHashes []string `json:"-"`

	VerificationTokenHash *string    `json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	ResetTokenHash        *string    `json:"-"`
	ResetExpiresAt        *time.Time `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// LockedAt reports whether the account is locked at the given instant.
func (identity *Identity) LockedAt(now time.Time) bool {
	return identity.LockedUntil != nil && now.Before(*identity.LockedUntil)
}

// Principal projects the identity onto the request-scoped principal.
func (identity *Identity) Principal() *sec.Principal {
	return &sec.Principal{
		ID:         identity.ID,
		Email:      identity.Email,
		Role:       identity.Role,
		FacilityID: identity.FacilityID,
		IsVerified: identity.IsVerified,
	}
}

// AccessSubject is the claim source for a fresh access token.
func (identity *Identity) AccessSubject() sec.AccessSubject {
	return sec.AccessSubject{
		ID:         identity.ID,
		Email:      identity.Email,
		Role:       identity.Role,
		FacilityID: identity.FacilityID,
	}
}

// Validate checks the record-level invariants before persistence.
func (identity *Identity) Validate() error {
	switch {
	case identity.PasswordHash == "":
		return errors.New("auth: password hash must not be empty")
	case !identity.Role.Valid():
		return errors.New("auth: role is outside the known set")
	case identity.TwoFactorEnabled != (identity.TwoFactorSecret != nil):
		return errors.New("auth: two-factor secret must be present exactly when two-factor is enabled")
	}
	return nil
}

// # Partial Updates

// Field is an optional assignment in an [IdentityPatch].
type Field[T any] struct {
	Value T
	Set   bool
}

// Set returns an assigned [Field].
func Set[T any](value T) Field[T] {
	return Field[T]{Value: value, Set: true}
}

// IdentityPatch lists the columns an update should write. Unset fields are left untouched.
//
// Password changes go through [HashedPassword], so a plaintext can never reach the store.
type IdentityPatch struct {
	PasswordHash Field[string]
	Role         Field[sec.Role]
	FirstName    Field[string]
	LastName     Field[string]
	Phone        Field[*string]
	IsActive     Field[bool]
	IsVerified   Field[bool]
	FacilityID   Field[*string]

	FailedLoginAttempts Field[int]
	LockedUntil         Field[*time.Time]
	LastLoginAt         Field[*time.Time]
	LastLoginIP         Field[*string]

	TwoFactorEnabled Field[bool]
	TwoFactorSecret  Field[*string]
	BackupCodeHashes Field[[]string]

	VerificationTokenHash Field[*string]
	VerificationExpiresAt Field[*time.Time]
	ResetTokenHash        Field[*string]
	ResetExpiresAt        Field[*time.Time]

	DeletedAt Field[*time.Time]
}

// HashedPassword routes a new plaintext through the hasher into a patch field.
func HashedPassword(hasher *sec.PasswordHasher, plaintext string) (Field[string], error) {
	digest, err := hasher.Hash(plaintext)
	if err != nil {
		return Field[string]{}, err
	}
	return Set(digest), nil
}

// Validate rejects patches that would break an identity invariant on their own.
//
// Two-factor state must change as a unit: enabling requires a secret in the
// same patch and disabling requires clearing it.
func (patch IdentityPatch) Validate() error {
	if patch.PasswordHash.Set && patch.PasswordHash.Value == "" {
		return errors.New("auth: password hash must not be empty")
	}
	if patch.Role.Set && !patch.Role.Value.Valid() {
		return errors.New("auth: role is outside the known set")
	}
	if patch.TwoFactorEnabled.Set != patch.TwoFactorSecret.Set {
		return errors.New("auth: two-factor flag and secret must be updated together")
	}
	if patch.TwoFactorEnabled.Set && patch.TwoFactorEnabled.Value != (patch.TwoFactorSecret.Value != nil) {
		return errors.New("auth: two-factor secret must be present exactly when two-factor is enabled")
	}
	return nil
}

// Empty reports whether the patch assigns nothing.
func (patch IdentityPatch) Empty() bool {
	return len(patch.assignments()) == 0
}

// assignment is one column write produced by a patch.
type assignment struct {
	column string
	value  any
}

// assignments lists the column writes in a stable order.
func (patch IdentityPatch) assignments() []assignment {
	columns := schema.UserAccount
	var out []assignment
	add := func(set bool, column string, value any) {
		if set {
			out = append(out, assignment{column: column, value: value})
		}
	}

	add(patch.PasswordHash.Set, columns.Password, patch.PasswordHash.Value)
	add(patch.Role.Set, columns.Role, string(patch.Role.Value))
	add(patch.FirstName.Set, columns.FirstName, patch.FirstName.Value)
	add(patch.LastName.Set, columns.LastName, patch.LastName.Value)
	add(patch.Phone.Set, columns.Phone, patch.Phone.Value)
	add(patch.IsActive.Set, columns.IsActive, patch.IsActive.Value)
	add(patch.IsVerified.Set, columns.IsVerified, patch.IsVerified.Value)
	add(patch.FacilityID.Set, columns.FacilityID, patch.FacilityID.Value)
	add(patch.FailedLoginAttempts.Set, columns.FailedLoginAttempts, patch.FailedLoginAttempts.Value)
	add(patch.LockedUntil.Set, columns.LockedUntil, patch.LockedUntil.Value)
	add(patch.LastLoginAt.Set, columns.LastLoginAt, patch.LastLoginAt.Value)
	add(patch.LastLoginIP.Set, columns.LastLoginIP, patch.LastLoginIP.Value)
	add(patch.TwoFactorEnabled.Set, columns.TwoFactorEnabled, patch.TwoFactorEnabled.Value)
	add(patch.TwoFactorSecret.Set, columns.TwoFactorSecret, patch.TwoFactorSecret.Value)
	add(patch.BackupCodeHashes.Set, columns.BackupCodes, patch.BackupCodeHashes.Value)
	add(patch.VerificationTokenHash.Set, columns.VerificationTokenHash, patch.VerificationTokenHash.Value)
	add(patch.VerificationExpiresAt.Set, columns.VerificationExpiresAt, patch.VerificationExpiresAt.Value)
	add(patch.ResetTokenHash.Set, columns.ResetTokenHash, patch.ResetTokenHash.Value)
	add(patch.ResetExpiresAt.Set, columns.ResetExpiresAt, patch.ResetExpiresAt.Value)
	add(patch.DeletedAt.Set, columns.DeletedAt, patch.DeletedAt.Value)

	return out
}

// Apply writes the patch onto an in-memory identity.
//
// Repositories that do not speak SQL (tests, caches) use it to keep the same semantics.
func (patch IdentityPatch) Apply(identity *Identity) {
	apply := func(field Field[string], target *string) {
		if field.Set {
			*target = field.Value
		}
	}
	apply(patch.PasswordHash, &identity.PasswordHash)
	apply(patch.FirstName, &identity.FirstName)
	apply(patch.LastName, &identity.LastName)

	if patch.Role.Set {
		identity.Role = patch.Role.Value
	}
	if patch.Phone.Set {
		identity.Phone = patch.Phone.Value
	}
	if patch.IsActive.Set {
		identity.IsActive = patch.IsActive.Value
	}
	if patch.IsVerified.Set {
		identity.IsVerified = patch.IsVerified.Value
	}
	if patch.FacilityID.Set {
		identity.FacilityID = patch.FacilityID.Value
	}
	if patch.FailedLoginAttempts.Set {
		identity.FailedLoginAttempts = patch.FailedLoginAttempts.Value
	}
	if patch.LockedUntil.Set {
		identity.LockedUntil = patch.LockedUntil.Value
	}
	if patch.LastLoginAt.Set {
		identity.LastLoginAt = patch.LastLoginAt.Value
	}
	if patch.LastLoginIP.Set {
		identity.LastLoginIP = patch.LastLoginIP.Value
	}
	if patch.TwoFactorEnabled.Set {
		identity.TwoFactorEnabled = patch.TwoFactorEnabled.Value
	}
	if patch.TwoFactorSecret.Set {
		identity.TwoFactorSecret = patch.TwoFactorSecret.Value
	}
	if patch.BackupCodeHashes.Set {
		identity.BackupCodeHashes = patch.BackupCodeHashes.Value
	}
	if patch.VerificationTokenHash.Set {
		identity.VerificationTokenHash = patch.VerificationTokenHash.Value
	}
	if patch.VerificationExpiresAt.Set {
		identity.VerificationExpiresAt = patch.VerificationExpiresAt.Value
	}
	if patch.ResetTokenHash.Set {
		identity.ResetTokenHash = patch.ResetTokenHash.Value
	}
	if patch.ResetExpiresAt.Set {
		identity.ResetExpiresAt = patch.ResetExpiresAt.Value
	}
	if patch.DeletedAt.Set {
		identity.DeletedAt = patch.DeletedAt.Value
	}
}
