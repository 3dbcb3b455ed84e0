// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/wafya/internal/platform/sec"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  "access-secret-for-tests-only",
		RefreshSecret: "refresh-secret-for-tests-only",
		AccessTTL:     time.Hour,
		Issuer:        "wafya",
	})
	require.NoError(t, err)
	return service.WithClock(func() time.Time { return fixedNow })
}

func testSubject() sec.AccessSubject {
	facility := "0192f8a4-0000-7000-8000-000000000001"
	return sec.AccessSubject{
		ID:         "0192f8a4-0000-7000-8000-0000000000aa",
		Email:      "nurse@example.ga",
		Role:       sec.RoleNurse,
		FacilityID: &facility,
	}
}

/*
TestNewTokenService_Validation rejects unusable configurations.
*/
func TestNewTokenService_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  sec.TokenConfig
	}{
		{"missing access", sec.TokenConfig{RefreshSecret: "r", AccessTTL: time.Hour, Issuer: "i"}},
		{"missing refresh", sec.TokenConfig{AccessSecret: "a", AccessTTL: time.Hour, Issuer: "i"}},
		{"shared secret", sec.TokenConfig{AccessSecret: "s", RefreshSecret: "s", AccessTTL: time.Hour, Issuer: "i"}},
		{"zero ttl", sec.TokenConfig{AccessSecret: "a", RefreshSecret: "r", Issuer: "i"}},
		{"missing issuer", sec.TokenConfig{AccessSecret: "a", RefreshSecret: "r", AccessTTL: time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sec.NewTokenService(tt.cfg)
			assert.Error(t, err)
		})
	}
}

/*
TestAccessToken_RoundTrip checks that issued claims come back unchanged.
*/
func TestAccessToken_RoundTrip(t *testing.T) {
	service := newTokenService(t)
	subject := testSubject()

	token, err := service.IssueAccessToken(subject)
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, subject.ID, claims.UserID)
	assert.Equal(t, subject.Email, claims.Email)
	assert.Equal(t, sec.RoleNurse, claims.Role)
	require.NotNil(t, claims.FacilityID)
	assert.Equal(t, *subject.FacilityID, *claims.FacilityID)
	assert.Equal(t, "wafya", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"wafya-users"}, claims.Audience)
	assert.Equal(t, fixedNow.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

/*
TestRefreshToken_RoundTrip checks the identity-only refresh payload.
*/
func TestRefreshToken_RoundTrip(t *testing.T) {
	service := newTokenService(t)

	token, err := service.IssueRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := service.VerifyRefreshToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, jwt.ClaimStrings{"wafya-refresh"}, claims.Audience)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

/*
TestTokens_NotInterchangeable ensures neither token kind verifies as the other.
*/
func TestTokens_NotInterchangeable(t *testing.T) {
	service := newTokenService(t)

	pair, err := service.IssuePair(testSubject())
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)

	_, err = service.VerifyRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestAccessToken_Expiry verifies that tokens fail with ErrTokenExpired after their TTL.
*/
func TestAccessToken_Expiry(t *testing.T) {
	service := newTokenService(t)

	token, err := service.IssueAccessToken(testSubject())
	require.NoError(t, err)

	justBefore := service.WithClock(func() time.Time { return fixedNow.Add(59 * time.Minute) })
	_, err = justBefore.VerifyAccessToken(token)
	assert.NoError(t, err)

	after := service.WithClock(func() time.Time { return fixedNow.Add(61 * time.Minute) })
	_, err = after.VerifyAccessToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

/*
TestAccessToken_Rejections covers tampering, foreign issuers and malformed input.
*/
func TestAccessToken_Rejections(t *testing.T) {
	service := newTokenService(t)

	token, err := service.IssueAccessToken(testSubject())
	require.NoError(t, err)

	foreign, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  "access-secret-for-tests-only",
		RefreshSecret: "refresh-secret-for-tests-only",
		AccessTTL:     time.Hour,
		Issuer:        "someone-else",
	})
	require.NoError(t, err)
	foreignToken, err := foreign.WithClock(func() time.Time { return fixedNow }).IssueAccessToken(testSubject())
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": "user-1", "role": "super_admin", "iss": "wafya", "aud": "wafya-users",
		"exp": fixedNow.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	if tampered == token {
		tampered = token[:len(token)-4] + "BBBB"
	}

	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{"empty", "", sec.ErrTokenMalformed},
		{"garbage", "not.a.jwt", sec.ErrTokenMalformed},
		{"tampered signature", tampered, sec.ErrTokenInvalid},
		{"foreign issuer", foreignToken, sec.ErrTokenInvalid},
		{"alg none", unsigned, sec.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

/*
TestAccessToken_UnknownRole rejects a correctly signed token whose role is outside the set.
*/
func TestAccessToken_UnknownRole(t *testing.T) {
	service := newTokenService(t)
	subject := testSubject()
	subject.Role = sec.Role("janitor")

	token, err := service.IssueAccessToken(subject)
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}
