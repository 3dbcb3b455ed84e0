// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// # TOTP Parameters

const (
	// totpSecretSize is 20 bytes, i.e. 160 bits of entropy.
	totpSecretSize = 20

	// totpPeriod is the RFC 6238 time step in seconds.
	totpPeriod = 30

	// totpSkew accepts this many steps on each side of the current one (about 60s).
	totpSkew = 2
)

// TOTPSecret is a freshly generated enrolment secret.
type TOTPSecret struct {
	// Secret is the base32 shared secret, stored once enrolment is confirmed.
	Secret string `json:"secret"`
	// URI is the otpauth:// provisioning URI rendered as a QR code by clients.
	URI string `json:"otpauthUrl"`
}

// TOTP generates and verifies RFC 6238 one-time passwords.
type TOTP struct {
	issuer string
	now    func() time.Time
}

// NewTOTP builds a TOTP engine that labels enrolments with issuer.
func NewTOTP(issuer string) (*TOTP, error) {
	if issuer == "" {
		return nil, errors.New("sec: totp issuer is required")
	}
	return &TOTP{issuer: issuer, now: time.Now}, nil
}

// WithClock returns a copy of the engine that reads time from now.
func (engine *TOTP) WithClock(now func() time.Time) *TOTP {
	clone := *engine
	clone.now = now
	return &clone
}

// GenerateSecret creates a random secret and its provisioning URI for label.
//
// # Parameters
//   - label: The account name shown in authenticator apps (usually the email).
func (engine *TOTP) GenerateSecret(label string) (*TOTPSecret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      engine.issuer,
		AccountName: label,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("sec: failed to generate totp secret: %w", err)
	}

	return &TOTPSecret{Secret: key.Secret(), URI: key.URL()}, nil
}

// Verify checks code against the current time step and the two steps on either side.
func (engine *TOTP) Verify(secret, code string) bool {
	return engine.VerifyAt(secret, code, engine.now())
}

// VerifyAt is [TOTP.Verify] evaluated at an explicit instant.
//
// Malformed codes and secrets fail verification instead of returning an error.
func (engine *TOTP) VerifyAt(secret, code string, at time.Time) bool {
	if secret == "" || code == "" {
		return false
	}

	valid, err := totp.ValidateCustom(code, secret, at, validateOpts())
	if err != nil {
		return false
	}
	return valid
}

// CodeAt returns the code for secret at the given instant.
//
// It is used by tests and by operational tooling that seeds authenticators.
func (engine *TOTP) CodeAt(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, validateOpts())
}

func validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
