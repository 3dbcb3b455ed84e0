// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/wafya/internal/platform/apperr"
)

// lockoutStore is the slice of [IdentityRepository] the policy writes through.
type lockoutStore interface {
	IncrementFailedLogins(ctx context.Context, id string, maxAttempts int, lockedUntil time.Time) (*Identity, error)
	Update(ctx context.Context, id string, patch IdentityPatch) (*Identity, error)
}

// LockoutPolicy locks an account after too many consecutive failed logins.
//
// The lock is evaluated lazily against the clock; nothing sweeps expired
// locks. The counter is only reset by a successful login or a password reset,
// so a failure after a lock has elapsed locks the account again immediately.
type LockoutPolicy struct {
	store       lockoutStore
	maxAttempts int
	duration    time.Duration
	now         func() time.Time
}

// NewLockoutPolicy builds a policy. maxAttempts and duration must be positive.
func NewLockoutPolicy(store lockoutStore, maxAttempts int, duration time.Duration) (*LockoutPolicy, error) {
	if maxAttempts < 1 || duration <= 0 {
		return nil, errors.New("auth: lockout attempts and duration must be positive")
	}
	return &LockoutPolicy{store: store, maxAttempts: maxAttempts, duration: duration, now: time.Now}, nil
}

// WithClock returns a copy of the policy that reads time from now.
func (policy *LockoutPolicy) WithClock(now func() time.Time) *LockoutPolicy {
	clone := *policy
	clone.now = now
	return &clone
}

// IsLocked reports whether identity is locked right now.
func (policy *LockoutPolicy) IsLocked(identity *Identity) bool {
	return identity.LockedAt(policy.now())
}

// LockedError is the ACCOUNT_LOCKED response carrying the lock expiry.
func (policy *LockoutPolicy) LockedError(identity *Identity) *apperr.AppError {
	if identity.LockedUntil == nil {
		return ErrAccountLocked
	}
	return ErrAccountLocked.WithExtra("lockedUntil", identity.LockedUntil.UTC().Format(time.RFC3339))
}

/*
RecordFailure counts one failed credential check.

Returns:
  - *Identity: The account after the increment
  - bool: true when this failure moved the account into the locked state
*/
func (policy *LockoutPolicy) RecordFailure(ctx context.Context, identity *Identity) (*Identity, bool, error) {
	now := policy.now()
	wasLocked := identity.LockedAt(now)

	updated, err := policy.store.IncrementFailedLogins(ctx, identity.ID, policy.maxAttempts, now.Add(policy.duration))
	if err != nil {
		return nil, false, fmt.Errorf("auth_lockout_record_failure_failed: %w", err)
	}

	return updated, !wasLocked && updated.LockedAt(now), nil
}

// RecordSuccess clears the counter and the lock and stamps the login time and address.
func (policy *LockoutPolicy) RecordSuccess(ctx context.Context, identity *Identity, clientIP string) (*Identity, error) {
	now := policy.now()

	patch := IdentityPatch{
		FailedLoginAttempts: Set(0),
		LockedUntil:         Set[*time.Time](nil),
		LastLoginAt:         Set(&now),
	}
	if clientIP != "" {
		patch.LastLoginIP = Set(&clientIP)
	}

	updated, err := policy.store.Update(ctx, identity.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("auth_lockout_record_success_failed: %w", err)
	}
	return updated, nil
}

// clearLockout resets lockout state; used by password reset.
func clearLockout(patch *IdentityPatch) {
	patch.FailedLoginAttempts = Set(0)
	patch.LockedUntil = Set[*time.Time](nil)
}
