// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Principal is the authenticated identity attached to a request context.
//
// It is built from the live account record after token verification, never
// from token claims alone, and it never carries credential material.
type Principal struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Role       Role    `json:"role"`
	FacilityID *string `json:"facilityId,omitempty"`
	IsVerified bool    `json:"isVerified"`
}

// HasFacility reports whether the principal is linked to a facility.
func (p *Principal) HasFacility() bool {
	return p.FacilityID != nil && *p.FacilityID != ""
}

// InFacility reports whether the principal belongs to the given facility.
//
// A nil facility never matches, even when the principal has none either.
func (p *Principal) InFacility(facilityID *string) bool {
	if !p.HasFacility() || facilityID == nil || *facilityID == "" {
		return false
	}
	return *p.FacilityID == *facilityID
}
