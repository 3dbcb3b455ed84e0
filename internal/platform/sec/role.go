// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "fmt"

// # User Roles

// Role is the closed set of account roles known to the platform.
//
// Values outside the set are rejected at every boundary (token parsing,
// storage scans, registration input) through [ParseRole].
type Role string

const (
	// Platform operator, bypasses facility scoping.
	RoleSuperAdmin Role = "super_admin"

	// Administers a single facility and its staff.
	RoleFacilityAdmin Role = "facility_admin"

	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePharmacist Role = "pharmacist"

	// Default role for self-registered accounts.
	RolePatient Role = "patient"

	// Non-clinical facility personnel (reception, billing).
	RoleStaff Role = "staff"
)

// allRoles lists every role in a stable order.
var allRoles = []Role{
	RoleSuperAdmin,
	RoleFacilityAdmin,
	RoleDoctor,
	RoleNurse,
	RolePharmacist,
	RolePatient,
	RoleStaff,
}

// selfRegistrableRoles may be chosen on the public registration endpoint.
var selfRegistrableRoles = []Role{
	RolePatient,
	RoleDoctor,
	RoleNurse,
	RolePharmacist,
	RoleStaff,
}

// AllRoles returns a copy of the full role set.
func AllRoles() []Role {
	return append([]Role(nil), allRoles...)
}

// SelfRegistrableRoles returns the roles accepted at public registration.
func SelfRegistrableRoles() []Role {
	return append([]Role(nil), selfRegistrableRoles...)
}

// ParseRole converts a raw string into a [Role].
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("sec: unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// In reports whether r is one of the given roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// String implements [fmt.Stringer].
func (r Role) String() string {
	return string(r)
}
