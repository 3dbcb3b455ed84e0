// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/wafya/internal/platform/apperr"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "  Nadia.Mba@Example.GA ",
		Password:  "Str0ng!pass",
		FirstName: "Nadia",
		LastName:  "Mba",
		Phone:     "+24106123456",
	}
}

/*
TestRegister_CreatesPatientAccount covers the happy path of self-registration.
*/
func TestRegister_CreatesPatientAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Register(ctx, validRegistration())
	require.NoError(t, err)

	identity := result.Identity
	assert.Equal(t, "nadia.mba@example.ga", identity.Email)
	assert.Equal(t, sec.RolePatient, identity.Role)
	assert.True(t, identity.IsActive)
	assert.False(t, identity.IsVerified)
	assert.Nil(t, identity.FacilityID)
	assert.NotEqual(t, "Str0ng!pass", identity.PasswordHash)
	assert.True(t, f.hasher.Verify("Str0ng!pass", identity.PasswordHash))

	// Only the digest of the verification token is stored.
	stored := f.identities.get(identity.ID)
	require.NotNil(t, stored.VerificationTokenHash)
	assert.Equal(t, sec.HashToken(result.VerificationToken), *stored.VerificationTokenHash)
	assert.Equal(t, testEpoch.Add(VerificationTokenTTL), *stored.VerificationExpiresAt)
	assert.Equal(t, result.VerificationToken, f.notifier.verification[identity.ID])

	assert.Equal(t, []string{identity.ID}, f.patients.userIDs)

	claims, err := f.tokens.VerifyAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, claims.UserID)
	assert.Equal(t, sec.RolePatient, claims.Role)
}

/*
TestRegister_StaffRoleSkipsPatientProfile ensures only patients get a clinical profile.
*/
func TestRegister_StaffRoleSkipsPatientProfile(t *testing.T) {
	f := newFixture(t)

	input := validRegistration()
	input.Role = "doctor"

	result, err := f.service.Register(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, sec.RoleDoctor, result.Identity.Role)
	assert.Empty(t, f.patients.userIDs)
}

/*
TestRegister_PatientProfileFailureIsNotFatal keeps the account when profile creation fails.
*/
func TestRegister_PatientProfileFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.patients.err = errBoom

	result, err := f.service.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.NotNil(t, f.identities.get(result.Identity.ID))
}

/*
TestRegister_Validation rejects bad payloads before any write.
*/
func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }, FieldEmail},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, FieldEmail},
		{"weak password", func(in *RegisterInput) { in.Password = "password" }, FieldPassword},
		{"missing first name", func(in *RegisterInput) { in.FirstName = "  " }, FieldFirstName},
		{"bad phone", func(in *RegisterInput) { in.Phone = "12" }, FieldPhone},
		{"privileged role", func(in *RegisterInput) { in.Role = "super_admin" }, FieldRole},
		{"facility admin role", func(in *RegisterInput) { in.Role = "facility_admin" }, FieldRole},
		{"unknown role", func(in *RegisterInput) { in.Role = "janitor" }, FieldRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			input := validRegistration()
			tt.mutate(&input)

			_, err := f.service.Register(context.Background(), input)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)

			fields := make([]string, 0, len(ae.Details))
			for _, detail := range ae.Details {
				fields = append(fields, detail.Field)
			}
			assert.Contains(t, fields, tt.field)
			assert.Empty(t, f.identities.rows)
		})
	}
}

/*
TestRegister_DuplicateEmail includes soft-deleted accounts in the uniqueness check.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	tests := []struct {
		name    string
		deleted bool
	}{
		{"live account", false},
		{"soft-deleted account", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, sec.RolePatient, func(identity *Identity) {
				identity.Email = "nadia.mba@example.ga"
				if tt.deleted {
					deletedAt := testEpoch.Add(-time.Hour)
					identity.DeletedAt = &deletedAt
					identity.IsActive = false
				}
			})

			_, err := f.service.Register(context.Background(), validRegistration())
			assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		})
	}
}

/*
TestLogin_Failures checks every rejection branch and its error code.
*/
func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Identity)
		email    func(*Identity) string
		password string
		expected *apperr.AppError
		attempts int
	}{
		{
			name:     "unknown email",
			email:    func(*Identity) string { return "ghost@wafya.test" },
			password: testPassword,
			expected: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			password: "Wrong1!pass",
			expected: ErrInvalidCredentials,
			attempts: 1,
		},
		{
			name:     "inactive with correct password",
			mutate:   func(identity *Identity) { identity.IsActive = false },
			password: testPassword,
			expected: ErrAccountDisabled,
		},
		{
			name:     "inactive with wrong password",
			mutate:   func(identity *Identity) { identity.IsActive = false },
			password: "Wrong1!pass",
			expected: ErrInvalidCredentials,
			attempts: 1,
		},
		{
			name: "locked even with correct password",
			mutate: func(identity *Identity) {
				until := testEpoch.Add(10 * time.Minute)
				identity.LockedUntil = &until
				identity.FailedLoginAttempts = 5
			},
			password: testPassword,
			expected: ErrAccountLocked,
			attempts: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			var mutations []func(*Identity)
			if tt.mutate != nil {
				mutations = append(mutations, tt.mutate)
			}
			identity := f.seed(t, sec.RoleDoctor, mutations...)

			address := identity.Email
			if tt.email != nil {
				address = tt.email(identity)
			}

			result, err := f.service.Login(context.Background(), LoginInput{Email: address, Password: tt.password})

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, tt.attempts, f.identities.get(identity.ID).FailedLoginAttempts)
		})
	}
}

/*
TestLogin_SuccessResetsCounter records the login and clears prior failures.
*/
func TestLogin_SuccessResetsCounter(t *testing.T) {
	f := newFixture(t)
	identity := f.seed(t, sec.RoleNurse, func(identity *Identity) {
		identity.FailedLoginAttempts = 3
	})

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "  " + identity.Email + " ",
		Password: testPassword,
		ClientIP: "203.0.113.7",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
	assert.False(t, result.RequiresTwoFactor)

	stored := f.identities.get(identity.ID)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, testEpoch, *stored.LastLoginAt)
	require.NotNil(t, stored.LastLoginIP)
	assert.Equal(t, "203.0.113.7", *stored.LastLoginIP)
}

/*
TestLogin_LockoutLifecycle walks an account through lock, expiry and recovery.
*/
func TestLogin_LockoutLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := f.seed(t, sec.RolePatient)

	wrong := LoginInput{Email: identity.Email, Password: "Wrong1!pass"}
	right := LoginInput{Email: identity.Email, Password: testPassword}

	for attempt := 1; attempt < testMaxAttempts; attempt++ {
		_, err := f.service.Login(ctx, wrong)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// The failure that reaches the threshold still answers INVALID_CREDENTIALS.
	_, err := f.service.Login(ctx, wrong)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored := f.identities.get(identity.ID)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, testEpoch.Add(testLockout), *stored.LockedUntil)

	// Correct password while locked.
	_, err = f.service.Login(ctx, right)
	require.ErrorIs(t, err, ErrAccountLocked)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusLocked, ae.HTTPStatus)
	assert.Equal(t, testEpoch.Add(testLockout).Format(time.RFC3339), ae.Extra["lockedUntil"])

	f.clock.Advance(testLockout + time.Second)

	result, err := f.service.Login(ctx, right)
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
	assert.Zero(t, f.identities.get(identity.ID).FailedLoginAttempts)
}

/*
TestLogin_FailureAfterLockElapsedRelocks shows the counter survives an elapsed lock.
*/
func TestLogin_FailureAfterLockElapsedRelocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := f.seed(t, sec.RolePatient, func(identity *Identity) {
		until := testEpoch.Add(-time.Minute)
		identity.LockedUntil = &until
		identity.FailedLoginAttempts = testMaxAttempts
	})

	_, err := f.service.Login(ctx, LoginInput{Email: identity.Email, Password: "Wrong1!pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored := f.identities.get(identity.ID)
	assert.Equal(t, testMaxAttempts+1, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.After(f.clock.Now()))
}

/*
TestLogin_TwoFactor covers the challenge, TOTP and failure branches.
*/
func TestLogin_TwoFactor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := f.seed(t, sec.RoleDoctor)
	secret := f.enableTwoFactor(t, identity)

	t.Run("no code returns a challenge", func(t *testing.T) {
		result, err := f.service.Login(ctx, LoginInput{Email: identity.Email, Password: testPassword})
		require.NoError(t, err)
		assert.True(t, result.RequiresTwoFactor)
		assert.Equal(t, identity.ID, result.UserID)
		assert.Nil(t, result.Tokens)
		assert.Nil(t, f.identities.get(identity.ID).LastLoginAt)
	})

	t.Run("wrong code counts as a failure", func(t *testing.T) {
		_, err := f.service.Login(ctx, LoginInput{Email: identity.Email, Password: testPassword, TwoFactorCode: "000000"})
		require.ErrorIs(t, err, ErrInvalidTwoFactorCode)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
		assert.Equal(t, 1, f.identities.get(identity.ID).FailedLoginAttempts)
	})

	t.Run("current code succeeds", func(t *testing.T) {
		result, err := f.service.Login(ctx, LoginInput{
			Email:         identity.Email,
			Password:      testPassword,
			TwoFactorCode: f.currentCode(t, secret),
		})
		require.NoError(t, err)
		require.NotNil(t, result.Tokens)
		assert.Zero(t, f.identities.get(identity.ID).FailedLoginAttempts)
	})
}

/*
TestLogin_BackupCodeIsSingleUse accepts a recovery code once and then rejects it.
*/
func TestLogin_BackupCodeIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := f.seed(t, sec.RolePatient)
	f.enableTwoFactor(t, identity, "ABCDE23456", "FGHJK78923")

	input := LoginInput{Email: identity.Email, Password: testPassword, TwoFactorCode: "abcde-23456"}

	result, err := f.service.Login(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
	assert.Equal(t, []string{sec.HashBackupCode("FGHJK78923")}, f.identities.get(identity.ID).BackupCodeHashes)

	_, err = f.service.Login(ctx, input)
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
}

/*
TestRefresh covers token exchange against the live account.
*/
func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := f.seed(t, sec.RoleNurse)

	pair, err := f.tokens.IssuePair(identity.AccessSubject())
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, " ")
		assert.ErrorIs(t, err, ErrRefreshTokenRequired)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("claims come from the live account", func(t *testing.T) {
		facility := "facility-1"
		_, err := f.identities.Update(ctx, identity.ID, IdentityPatch{
			Role:       Set(sec.RoleFacilityAdmin),
			FacilityID: Set(&facility),
		})
		require.NoError(t, err)

		refreshed, err := f.service.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		claims, err := f.tokens.VerifyAccessToken(refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, sec.RoleFacilityAdmin, claims.Role)
		require.NotNil(t, claims.FacilityID)
		assert.Equal(t, facility, *claims.FacilityID)
	})

	t.Run("inactive account", func(t *testing.T) {
		_, err := f.identities.Update(ctx, identity.ID, IdentityPatch{IsActive: Set(false)})
		require.NoError(t, err)

		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired token", func(t *testing.T) {
		other := f.seed(t, sec.RoleNurse)
		otherPair, err := f.tokens.IssuePair(other.AccessSubject())
		require.NoError(t, err)

		f.clock.Advance(31 * 24 * time.Hour)
		_, err = f.service.Refresh(ctx, otherPair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

/*
TestPasswordReset covers the forgot and reset flow including lockout clearing.
*/
func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := f.seed(t, sec.RolePatient, func(identity *Identity) {
		until := testEpoch.Add(10 * time.Minute)
		identity.LockedUntil = &until
		identity.FailedLoginAttempts = 7
	})

	t.Run("unknown email is silent", func(t *testing.T) {
		token, err := f.service.ForgotPassword(ctx, "ghost@wafya.test")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	token, err := f.service.ForgotPassword(ctx, identity.Email)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, token, f.notifier.reset[identity.ID])

	stored := f.identities.get(identity.ID)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, sec.HashToken(token), *stored.ResetTokenHash)

	t.Run("wrong token", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, "not-the-token", "N3w!passw0rd")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("weak password", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, token, "short")
		assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
	})

	require.NoError(t, f.service.ResetPassword(ctx, token, "N3w!passw0rd"))

	stored = f.identities.get(identity.ID)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetExpiresAt)
	assert.Nil(t, stored.LockedUntil)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.True(t, f.hasher.Verify("N3w!passw0rd", stored.PasswordHash))

	t.Run("token is single use", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, token, "An0ther!pass")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("expired token", func(t *testing.T) {
		fresh, err := f.service.ForgotPassword(ctx, identity.Email)
		require.NoError(t, err)

		f.clock.Advance(ResetTokenTTL + time.Second)
		err = f.service.ResetPassword(ctx, fresh, "An0ther!pass")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})
}

/*
TestVerifyEmail marks the account verified and burns the token.
*/
func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Register(ctx, validRegistration())
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.VerifyEmail(ctx, ""), ErrInvalidVerificationToken)
	assert.ErrorIs(t, f.service.VerifyEmail(ctx, "bogus"), ErrInvalidVerificationToken)

	require.NoError(t, f.service.VerifyEmail(ctx, result.VerificationToken))

	stored := f.identities.get(result.Identity.ID)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationTokenHash)

	assert.ErrorIs(t, f.service.VerifyEmail(ctx, result.VerificationToken), ErrInvalidVerificationToken)
}

/*
TestChangePassword requires the current password.
*/
func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	identity := f.seed(t, sec.RolePharmacist)

	err := f.service.ChangePassword(ctx, identity.ID, "Wrong1!pass", "N3w!passw0rd")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, f.service.ChangePassword(ctx, identity.ID, testPassword, "N3w!passw0rd"))
	assert.True(t, f.hasher.Verify("N3w!passw0rd", f.identities.get(identity.ID).PasswordHash))
}

/*
TestDeleteAccount soft-deletes and keeps the email reserved.
*/
func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Register(ctx, validRegistration())
	require.NoError(t, err)
	id := result.Identity.ID

	assert.ErrorIs(t, f.service.DeleteAccount(ctx, id, "Wrong1!pass"), ErrInvalidPassword)
	require.NoError(t, f.service.DeleteAccount(ctx, id, "Str0ng!pass"))

	stored := f.identities.get(id)
	require.NotNil(t, stored.DeletedAt)
	assert.False(t, stored.IsActive)

	_, err = f.service.Profile(ctx, id)
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	_, err = f.service.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}
