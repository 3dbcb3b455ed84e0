// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/wafya/internal/platform/sec"
)

/*
TestIdentityPatch_Validate keeps two-factor state consistent across updates.
*/
func TestIdentityPatch_Validate(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"

	tests := []struct {
		name    string
		patch   IdentityPatch
		wantErr bool
	}{
		{"empty", IdentityPatch{}, false},
		{"enable with secret", IdentityPatch{TwoFactorEnabled: Set(true), TwoFactorSecret: Set(&secret)}, false},
		{"disable clearing secret", IdentityPatch{TwoFactorEnabled: Set(false), TwoFactorSecret: Set[*string](nil)}, false},
		{"enable without secret", IdentityPatch{TwoFactorEnabled: Set(true)}, true},
		{"enable with nil secret", IdentityPatch{TwoFactorEnabled: Set(true), TwoFactorSecret: Set[*string](nil)}, true},
		{"disable keeping secret", IdentityPatch{TwoFactorEnabled: Set(false), TwoFactorSecret: Set(&secret)}, true},
		{"secret alone", IdentityPatch{TwoFactorSecret: Set(&secret)}, true},
		{"empty password hash", IdentityPatch{PasswordHash: Set("")}, true},
		{"unknown role", IdentityPatch{Role: Set(sec.Role("janitor"))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

/*
TestIdentityPatch_Apply only touches assigned fields.
*/
func TestIdentityPatch_Apply(t *testing.T) {
	lockedUntil := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	identity := &Identity{
		FirstName:           "Ada",
		FailedLoginAttempts: 4,
		LockedUntil:         &lockedUntil,
		IsVerified:          false,
	}

	patch := IdentityPatch{IsVerified: Set(true)}
	clearLockout(&patch)
	patch.Apply(identity)

	assert.Equal(t, "Ada", identity.FirstName)
	assert.True(t, identity.IsVerified)
	assert.Zero(t, identity.FailedLoginAttempts)
	assert.Nil(t, identity.LockedUntil)
	assert.False(t, patch.Empty())
	assert.True(t, IdentityPatch{}.Empty())
}

/*
TestIdentity_JSONHidesCredentials never serializes secrets or digests.
*/
func TestIdentity_JSONHidesCredentials(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	digest := "reset-digest"
	identity := &Identity{
		ID:               "u1",
		Email:            "a@wafya.test",
		PasswordHash:     "$2a$04$hash",
		Role:             sec.RolePatient,
		TwoFactorEnabled: true,
		TwoFactorSecret:  &secret,
		BackupCodeHashes: []string{"code-digest"},
		ResetTokenHash:   &digest,
	}

	raw, err := json.Marshal(identity)
	require.NoError(t, err)

	body := string(raw)
	for _, leaked := range []string{"$2a$04$hash", secret, "code-digest", digest} {
		assert.NotContains(t, body, leaked)
	}
	assert.Contains(t, body, `"twoFactorEnabled":true`)
}

/*
TestIdentity_Principal projects only request-safe fields.
*/
func TestIdentity_Principal(t *testing.T) {
	facility := "f1"
	identity := &Identity{ID: "u1", Email: "a@wafya.test", Role: sec.RoleNurse, FacilityID: &facility, IsVerified: true}

	principal := identity.Principal()

	assert.Equal(t, "u1", principal.ID)
	assert.Equal(t, sec.RoleNurse, principal.Role)
	assert.True(t, principal.InFacility(&facility))
	assert.True(t, principal.IsVerified)
}
