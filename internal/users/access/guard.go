// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/wafya/internal/platform/audit"
	"github.com/taibuivan/wafya/internal/platform/ctxutil"
	"github.com/taibuivan/wafya/internal/platform/request"
	"github.com/taibuivan/wafya/internal/platform/respond"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

/*
Guard provides authorization middleware for routes that already passed authentication.

Every guard answers AUTH_REQUIRED when no principal is present, so a guard
mounted without an authenticator fails closed.
*/
type Guard struct {
	facilities FacilityRepository
	patients   PatientRepository
	audit      *audit.Logger
	now        func() time.Time
}

// NewGuard wires the guard to its repositories.
func NewGuard(facilities FacilityRepository, patients PatientRepository, auditor *audit.Logger) *Guard {
	return &Guard{
		facilities: facilities,
		patients:   patients,
		audit:      auditor,
		now:        time.Now,
	}
}

// WithClock returns a copy of the guard that reads time from now.
func (guard *Guard) WithClock(now func() time.Time) *Guard {
	clone := *guard
	clone.now = now
	return &clone
}

// # Role

/*
RequireRole admits principals holding one of roles.

Returns:
  - INSUFFICIENT_PERMISSIONS (403) carrying the required list and the current role
*/
func (guard *Guard) RequireRole(roles ...sec.Role) func(http.Handler) http.Handler {
	required := make([]string, len(roles))
	for index, role := range roles {
		required[index] = role.String()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			principal, err := request.RequiredPrincipal(req)
			if err != nil {
				respond.Error(writer, req, err)
				return
			}

			if !principal.Role.In(roles...) {
				guard.audit.Security(req.Context(), audit.EventInsufficientPermissions,
					slog.String("user_id", principal.ID),
					slog.String("role", principal.Role.String()),
					slog.Any("required_roles", required),
					slog.String("endpoint", req.URL.Path),
					slog.String("method", req.Method),
				)
				respond.Error(writer, req, ErrInsufficientPermissions.
					WithExtra("required", required).
					WithExtra("current", principal.Role.String()))
				return
			}

			next.ServeHTTP(writer, req)
		})
	}
}

// # Facility

// RequireFacility admits principals whose facility exists and is active, and attaches it.
func (guard *Guard) RequireFacility() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			principal, err := request.RequiredPrincipal(req)
			if err != nil {
				respond.Error(writer, req, err)
				return
			}

			if !principal.HasFacility() {
				respond.Error(writer, req, ErrNoFacilityAssociation)
				return
			}

			facility, err := guard.facilities.FindByID(req.Context(), *principal.FacilityID)
			switch {
			case errors.Is(err, ErrFacilityNotFound):
				facility = nil
			case err != nil:
				respond.Error(writer, req, err)
				return
			}

			if facility == nil || !facility.IsActive {
				guard.audit.Security(req.Context(), audit.EventFacilityInactive,
					slog.String("user_id", principal.ID),
					slog.String("facility_id", *principal.FacilityID),
				)
				respond.Error(writer, req, ErrFacilityInactive)
				return
			}

			next.ServeHTTP(writer, req.WithContext(WithFacility(req.Context(), facility)))
		})
	}
}

// # Patient

/*
RequirePatientAccess loads the patient named by the URL parameter and applies [CanAccessPatient].

Returns:
  - PATIENT_ID_REQUIRED (400), PATIENT_NOT_FOUND (404) or PATIENT_ACCESS_DENIED (403)
*/
func (guard *Guard) RequirePatientAccess(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			principal, err := request.RequiredPrincipal(req)
			if err != nil {
				respond.Error(writer, req, err)
				return
			}

			patientID := request.Param(req, param)
			if patientID == "" {
				respond.Error(writer, req, ErrPatientIDRequired)
				return
			}

			patient, err := guard.patients.FindByID(req.Context(), patientID)
			if err != nil {
				respond.Error(writer, req, err)
				return
			}

			if !CanAccessPatient(principal, patient) {
				guard.audit.Security(req.Context(), audit.EventPatientAccessDenied,
					slog.String("user_id", principal.ID),
					slog.String("role", principal.Role.String()),
					slog.String("patient_id", patient.ID),
				)
				respond.Error(writer, req, ErrPatientAccessDenied)
				return
			}

			next.ServeHTTP(writer, req.WithContext(WithPatient(req.Context(), patient)))
		})
	}
}

// # Subscription

/*
RequireActiveSubscription admits principals whose facility holds an active or trial subscription.

Description: Super admins bypass the check. A subscription found past its
expiry is persisted as expired before the request is refused, so later
reads see the settled status.
*/
func (guard *Guard) RequireActiveSubscription() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			principal, err := request.RequiredPrincipal(req)
			if err != nil {
				respond.Error(writer, req, err)
				return
			}

			if principal.Role == sec.RoleSuperAdmin {
				next.ServeHTTP(writer, req)
				return
			}

			if !principal.HasFacility() {
				respond.Error(writer, req, ErrNoFacility)
				return
			}

			facility, err := guard.facilities.FindByID(req.Context(), *principal.FacilityID)
			if err != nil {
				respond.Error(writer, req, err)
				return
			}

			lapsed, denial := CheckSubscription(facility, guard.now())
			if lapsed {
				if err := guard.facilities.ExpireSubscription(req.Context(), facility.ID, guard.now()); err != nil {
					ctxutil.GetLogger(req.Context()).Error("subscription_expiry_persist_failed",
						slog.String("facility_id", facility.ID),
						slog.Any("error", err),
					)
				}
				guard.audit.Security(req.Context(), audit.EventSubscriptionExpired,
					slog.String("user_id", principal.ID),
					slog.String("facility_id", facility.ID),
				)
			}
			if denial != nil {
				respond.Error(writer, req, denial)
				return
			}

			next.ServeHTTP(writer, req.WithContext(WithFacility(req.Context(), facility)))
		})
	}
}
