// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"time"

	"github.com/taibuivan/wafya/internal/platform/apperr"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

/*
CanAccessPatient decides whether principal may read the patient's records.

Description: Access is granted to the patient's own account, to super admins,
to the assigned primary doctor, and to any account linked to the patient's
primary facility.

The switch covers every role; an unknown role is denied.
*/
func CanAccessPatient(principal *sec.Principal, patient *Patient) bool {
	if principal == nil || patient == nil {
		return false
	}

	if principal.ID == patient.UserID {
		return true
	}

	switch principal.Role {
	case sec.RoleSuperAdmin:
		return true

	case sec.RoleDoctor:
		if patient.PrimaryDoctorID != nil && *patient.PrimaryDoctorID == principal.ID {
			return true
		}
		return principal.InFacility(patient.PrimaryFacilityID)

	case sec.RoleFacilityAdmin, sec.RoleNurse, sec.RolePharmacist, sec.RoleStaff, sec.RolePatient:
		return principal.InFacility(patient.PrimaryFacilityID)

	default:
		return false
	}
}

/*
CheckSubscription evaluates a facility's subscription at now.

Returns:
  - bool: true when the subscription has lapsed and must be persisted as expired
  - error: SUBSCRIPTION_REQUIRED (+subscriptionStatus) or SUBSCRIPTION_EXPIRED (+expiresAt)
*/
func CheckSubscription(facility *Facility, now time.Time) (bool, *apperr.AppError) {
	if !facility.SubscriptionStatus.Usable() {
		return false, ErrSubscriptionRequired.WithExtra("subscriptionStatus", string(facility.SubscriptionStatus))
	}

	if facility.SubscriptionExpiresAt != nil && facility.SubscriptionExpiresAt.Before(now) {
		return true, ErrSubscriptionExpired.WithExtra("expiresAt", facility.SubscriptionExpiresAt.UTC().Format(time.RFC3339))
	}

	return false, nil
}
