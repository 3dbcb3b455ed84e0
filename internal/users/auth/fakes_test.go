// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/wafya/internal/platform/audit"
	"github.com/taibuivan/wafya/internal/platform/sec"
	"github.com/taibuivan/wafya/pkg/uuid"
)

const (
	testPassword      = "Correct1!pass"
	testAccessSecret  = "access-secret-for-tests-0123456789abcdef"
	testRefreshSecret = "refresh-secret-for-tests-0123456789abcdef"
	testMaxAttempts   = 5
	testLockout       = 15 * time.Minute
)

var testEpoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// # Clock

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *testClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

// # Identity Repository

// memoryIdentities mirrors the SQL repository on a map.
type memoryIdentities struct {
	mu    sync.Mutex
	rows  map[string]*Identity
	clock *testClock
}

func newMemoryIdentities(clock *testClock) *memoryIdentities {
	return &memoryIdentities{rows: make(map[string]*Identity), clock: clock}
}

func cloneIdentity(identity *Identity) *Identity {
	clone := *identity
	clone.BackupCodeHashes = slices.Clone(identity.BackupCodeHashes)
	return &clone
}

func (repo *memoryIdentities) get(id string) *Identity {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if row, ok := repo.rows[id]; ok {
		return cloneIdentity(row)
	}
	return nil
}

func (repo *memoryIdentities) find(match func(*Identity) bool) (*Identity, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, row := range repo.rows {
		if match(row) {
			return cloneIdentity(row), nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (repo *memoryIdentities) FindByEmail(_ context.Context, email string, includeDeleted bool) (*Identity, error) {
	return repo.find(func(row *Identity) bool {
		return strings.EqualFold(row.Email, email) && (includeDeleted || row.DeletedAt == nil)
	})
}

func (repo *memoryIdentities) FindByID(_ context.Context, id string) (*Identity, error) {
	return repo.find(func(row *Identity) bool {
		return row.ID == id && row.DeletedAt == nil
	})
}

func (repo *memoryIdentities) FindByVerificationToken(_ context.Context, tokenHash string, now time.Time) (*Identity, error) {
	return repo.find(func(row *Identity) bool {
		return row.DeletedAt == nil && row.VerificationTokenHash != nil && *row.VerificationTokenHash == tokenHash &&
			row.VerificationExpiresAt != nil && row.VerificationExpiresAt.After(now)
	})
}

func (repo *memoryIdentities) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*Identity, error) {
	return repo.find(func(row *Identity) bool {
		return row.DeletedAt == nil && row.ResetTokenHash != nil && *row.ResetTokenHash == tokenHash &&
			row.ResetExpiresAt != nil && row.ResetExpiresAt.After(now)
	})
}

func (repo *memoryIdentities) Create(_ context.Context, identity *Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, row := range repo.rows {
		if strings.EqualFold(row.Email, identity.Email) {
			return ErrEmailAlreadyExists
		}
	}
	repo.rows[identity.ID] = cloneIdentity(identity)
	return nil
}

func (repo *memoryIdentities) Update(_ context.Context, id string, patch IdentityPatch) (*Identity, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.rows[id]
	if !ok || row.DeletedAt != nil {
		return nil, ErrIdentityNotFound
	}
	patch.Apply(row)
	row.UpdatedAt = repo.clock.Now()
	return cloneIdentity(row), nil
}

func (repo *memoryIdentities) IncrementFailedLogins(_ context.Context, id string, maxAttempts int, lockedUntil time.Time) (*Identity, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.rows[id]
	if !ok || row.DeletedAt != nil {
		return nil, ErrIdentityNotFound
	}
	row.FailedLoginAttempts++
	if row.FailedLoginAttempts >= maxAttempts {
		row.LockedUntil = &lockedUntil
	}
	return cloneIdentity(row), nil
}

func (repo *memoryIdentities) ConsumeBackupCode(_ context.Context, id, codeHash string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.rows[id]
	if !ok || row.DeletedAt != nil {
		return false, nil
	}
	index := slices.Index(row.BackupCodeHashes, codeHash)
	if index < 0 {
		return false, nil
	}
	row.BackupCodeHashes = slices.Delete(row.BackupCodeHashes, index, index+1)
	return true, nil
}

// # Enrolments, Profiles, Notifications

type memoryEnrollments struct {
	mu      sync.Mutex
	secrets map[string]string
}

func (store *memoryEnrollments) Save(_ context.Context, userID, secret string, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.secrets[userID] = secret
	return nil
}

func (store *memoryEnrollments) Get(_ context.Context, userID string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	secret, ok := store.secrets[userID]
	if !ok {
		return "", ErrEnrollmentNotFound
	}
	return secret, nil
}

func (store *memoryEnrollments) Delete(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.secrets, userID)
	return nil
}

type recordingPatients struct {
	userIDs []string
	err     error
}

func (patients *recordingPatients) CreateForUser(_ context.Context, userID string, _ *string) error {
	patients.userIDs = append(patients.userIDs, userID)
	return patients.err
}

type recordingNotifier struct {
	verification map[string]string
	reset        map[string]string
}

func (notifier *recordingNotifier) SendVerification(_ context.Context, identity *Identity, token string) error {
	notifier.verification[identity.ID] = token
	return nil
}

func (notifier *recordingNotifier) SendPasswordReset(_ context.Context, identity *Identity, token string) error {
	notifier.reset[identity.ID] = token
	return nil
}

// # Fixture

type fixture struct {
	clock       *testClock
	identities  *memoryIdentities
	enrollments *memoryEnrollments
	patients    *recordingPatients
	notifier    *recordingNotifier
	hasher      *sec.PasswordHasher
	tokens      *sec.TokenService
	totp        *sec.TOTP
	lockout     *LockoutPolicy
	audit       *audit.Logger
	service     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: testEpoch}
	identities := newMemoryIdentities(clock)

	hasher, err := sec.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Hour,
		Issuer:        "wafya",
	})
	require.NoError(t, err)
	tokens = tokens.WithClock(clock.Now)

	engine, err := sec.NewTOTP("Wafya")
	require.NoError(t, err)
	engine = engine.WithClock(clock.Now)

	lockout, err := NewLockoutPolicy(identities, testMaxAttempts, testLockout)
	require.NoError(t, err)
	lockout = lockout.WithClock(clock.Now)

	f := &fixture{
		clock:       clock,
		identities:  identities,
		enrollments: &memoryEnrollments{secrets: make(map[string]string)},
		patients:    &recordingPatients{},
		notifier:    &recordingNotifier{verification: map[string]string{}, reset: map[string]string{}},
		hasher:      hasher,
		tokens:      tokens,
		totp:        engine,
		lockout:     lockout,
		audit:       audit.New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil),
	}

	f.service, err = NewService(ServiceDeps{
		Identities:  f.identities,
		Enrollments: f.enrollments,
		Hasher:      f.hasher,
		Tokens:      f.tokens,
		TOTP:        f.totp,
		Lockout:     f.lockout,
		Patients:    f.patients,
		Notifier:    f.notifier,
		Audit:       f.audit,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	return f
}

// seed stores an active, verified account with [testPassword].
func (f *fixture) seed(t *testing.T, role sec.Role, mutate ...func(*Identity)) *Identity {
	t.Helper()

	digest, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)

	identity := &Identity{
		ID:           uuid.New(),
		Email:        string(role) + "-" + uuid.New() + "@wafya.test",
		PasswordHash: digest,
		Role:         role,
		FirstName:    "Ada",
		LastName:     "Obame",
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	for _, fn := range mutate {
		fn(identity)
	}

	require.NoError(t, f.identities.Create(context.Background(), identity))
	return identity
}

// enableTwoFactor puts an account into the enabled state and returns its secret.
func (f *fixture) enableTwoFactor(t *testing.T, identity *Identity, backupCodes ...string) string {
	t.Helper()

	secret, err := f.totp.GenerateSecret(identity.Email)
	require.NoError(t, err)

	hashes := make([]string, len(backupCodes))
	for i, code := range backupCodes {
		hashes[i] = sec.HashBackupCode(code)
	}

	_, err = f.identities.Update(context.Background(), identity.ID, IdentityPatch{
		TwoFactorEnabled: Set(true),
		TwoFactorSecret:  Set(&secret.Secret),
		BackupCodeHashes: Set(hashes),
	})
	require.NoError(t, err)
	return secret.Secret
}

func (f *fixture) currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := f.totp.CodeAt(secret, f.clock.Now())
	require.NoError(t, err)
	return code
}

var errBoom = errors.New("boom")
