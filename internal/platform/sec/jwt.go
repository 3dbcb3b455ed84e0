// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing, TOTP)
// from the domain logic. It has no knowledge of storage or HTTP and is
// injected into the application layer through constructors.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/wafya/internal/platform/constants"
)

// # Token Errors

var (
	// ErrTokenExpired means the signature is valid but exp has passed.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid covers bad signatures, issuers, audiences and claim values.
	ErrTokenInvalid = errors.New("sec: token invalid")

	// ErrTokenMalformed means the token is empty or not a JWT at all.
	ErrTokenMalformed = errors.New("sec: token malformed")
)

// # Claim Sets

// AccessClaims is the payload of an access token.
//
// It carries role and facility so clients can render without a round trip,
// but the server always reloads the account before trusting them.
type AccessClaims struct {
	UserID     string  `json:"id"`
	Email      string  `json:"email"`
	Role       Role    `json:"role"`
	FacilityID *string `json:"facilityId"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. It only identifies the account.
type RefreshClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// AccessSubject is the account snapshot an access token is minted from.
type AccessSubject struct {
	ID         string
	Email      string
	Role       Role
	FacilityID *string
}

// TokenPair is what login and refresh hand back to clients.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// # Token Service

// TokenConfig holds the signing material and lifetimes for [TokenService].
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	Issuer        string
}

// TokenService issues and verifies HS256 access and refresh tokens.
//
// Access and refresh tokens use distinct secrets AND distinct audiences, so
// neither can be replayed in place of the other.
type TokenService struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessTTL       time.Duration
	refreshTTL      time.Duration
	issuer          string
	accessAudience  string
	refreshAudience string
	now             func() time.Time
}

// NewTokenService validates cfg and builds a [TokenService].
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("sec: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("sec: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("sec: access token ttl must be positive")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("sec: issuer is required")
	}

	return &TokenService{
		accessSecret:    []byte(cfg.AccessSecret),
		refreshSecret:   []byte(cfg.RefreshSecret),
		accessTTL:       cfg.AccessTTL,
		refreshTTL:      constants.RefreshTokenTTL,
		issuer:          cfg.Issuer,
		accessAudience:  cfg.Issuer + constants.AccessAudienceSuffix,
		refreshAudience: cfg.Issuer + constants.RefreshAudienceSuffix,
		now:             time.Now,
	}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *service
	clone.now = now
	return &clone
}

// AccessTTL returns the configured access token lifetime.
func (service *TokenService) AccessTTL() time.Duration {
	return service.accessTTL
}

// IssueAccessToken signs an access token for subject with the access secret.
func (service *TokenService) IssueAccessToken(subject AccessSubject) (string, error) {
	issuedAt := service.now()
	claims := AccessClaims{
		UserID:     subject.ID,
		Email:      subject.Email,
		Role:       subject.Role,
		FacilityID: subject.FacilityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			Audience:  jwt.ClaimStrings{service.accessAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(service.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs an identity-only refresh token with the refresh secret.
func (service *TokenService) IssueRefreshToken(id string) (string, error) {
	issuedAt := service.now()
	claims := RefreshClaims{
		UserID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			Audience:  jwt.ClaimStrings{service.refreshAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(service.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// IssuePair mints a fresh access and refresh token for subject.
func (service *TokenService) IssuePair(subject AccessSubject) (*TokenPair, error) {
	accessToken, err := service.IssueAccessToken(subject)
	if err != nil {
		return nil, err
	}

	refreshToken, err := service.IssueRefreshToken(subject.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccessToken checks signature, issuer, audience and expiry of an access token.
//
// # Returns
//   - [ErrTokenExpired], [ErrTokenInvalid] or [ErrTokenMalformed] on failure.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := service.parse(tokenString, claims, service.accessSecret, service.accessAudience); err != nil {
		return nil, err
	}

	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefreshToken checks signature, issuer, audience and expiry of a refresh token.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := service.parse(tokenString, claims, service.refreshSecret, service.refreshAudience); err != nil {
		return nil, err
	}

	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// parse runs the shared jwt validation and classifies failures.
func (service *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte, audience string) error {
	if tokenString == "" {
		return ErrTokenMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(service.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})

	switch {
	case err == nil && token.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenInvalid
	}
}
