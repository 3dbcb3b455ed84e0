// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/wafya/internal/platform/apperr"
	"github.com/taibuivan/wafya/internal/platform/constants"
)

// ErrEnrollmentNotFound is returned when no pending two-factor secret exists.
var ErrEnrollmentNotFound = apperr.New(http.StatusNotFound, "ENROLLMENT_NOT_FOUND", "Two-factor enrolment not found")

// # Two-Factor Enrollment Store

// RedisTwoFactorEnrollmentStore implements TwoFactorEnrollmentStore using Redis.
//
// Keeping the pending secret here, rather than on the account, means an
// account never holds a secret while two-factor is disabled.
type RedisTwoFactorEnrollmentStore struct {
	client redis.Cmdable
}

// NewTwoFactorEnrollmentStore creates a new Redis-backed TwoFactorEnrollmentStore.
func NewTwoFactorEnrollmentStore(client redis.Cmdable) *RedisTwoFactorEnrollmentStore {
	return &RedisTwoFactorEnrollmentStore{client: client}
}

/*
Save stores the pending secret with its TTL.

Parameters:
  - ctx: context.Context
  - userID: string
  - secret: string (base32)
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisTwoFactorEnrollmentStore) Save(ctx context.Context, userID, secret string, ttl time.Duration) error {
	if err := store.client.Set(ctx, enrollmentKey(userID), secret, ttl).Err(); err != nil {
		return fmt.Errorf("redis_2fa_enrollment_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the pending secret for userID.

Returns:
  - string: base32 secret
  - error: ErrEnrollmentNotFound or connectivity errors
*/
func (store *RedisTwoFactorEnrollmentStore) Get(ctx context.Context, userID string) (string, error) {
	secret, err := store.client.Get(ctx, enrollmentKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEnrollmentNotFound
		}
		return "", fmt.Errorf("redis_2fa_enrollment_get_failed: %w", err)
	}
	return secret, nil
}

// Delete removes the pending secret after it was confirmed.
func (store *RedisTwoFactorEnrollmentStore) Delete(ctx context.Context, userID string) error {
	if err := store.client.Del(ctx, enrollmentKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis_2fa_enrollment_delete_failed: %w", err)
	}
	return nil
}

func enrollmentKey(userID string) string {
	return constants.RedisPrefixTwoFactorEnrollment + userID
}
