// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"net/http"

	"github.com/taibuivan/wafya/internal/platform/apperr"
)

// # Authorization Errors

var (
	ErrInsufficientPermissions = apperr.New(http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions")

	// Facility membership
	ErrNoFacilityAssociation = apperr.New(http.StatusForbidden, "NO_FACILITY_ASSOCIATION", "User is not associated with a facility")
	ErrFacilityInactive      = apperr.New(http.StatusForbidden, "FACILITY_INACTIVE", "Facility is inactive or not found")

	// Patient records
	ErrPatientIDRequired   = apperr.New(http.StatusBadRequest, "PATIENT_ID_REQUIRED", "Patient ID required")
	ErrPatientNotFound     = apperr.New(http.StatusNotFound, "PATIENT_NOT_FOUND", "Patient not found")
	ErrPatientAccessDenied = apperr.New(http.StatusForbidden, "PATIENT_ACCESS_DENIED", "Access to this patient's data is not allowed")

	// Subscription
	ErrNoFacility           = apperr.New(http.StatusForbidden, "NO_FACILITY", "No facility associated")
	ErrFacilityNotFound     = apperr.New(http.StatusNotFound, "FACILITY_NOT_FOUND", "Facility not found")
	ErrSubscriptionRequired = apperr.New(http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED", "Subscription required")
	ErrSubscriptionExpired  = apperr.New(http.StatusPaymentRequired, "SUBSCRIPTION_EXPIRED", "Subscription expired")
)
