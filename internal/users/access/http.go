// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/wafya/internal/platform/respond"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

// Handler exposes the records guarded by this package.
type Handler struct {
	guard        *Guard
	authenticate func(http.Handler) http.Handler
}

// NewHandler constructs a [Handler]. authenticate must attach a principal or reject the request.
func NewHandler(guard *Guard, authenticate func(http.Handler) http.Handler) *Handler {
	return &Handler{guard: guard, authenticate: authenticate}
}

// FacilityRoutes returns the facility endpoints.
//
// # Endpoints
//   - GET /current (staff roles, active facility, usable subscription)
func (handler *Handler) FacilityRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.authenticate)

	router.With(
		handler.guard.RequireRole(sec.RoleFacilityAdmin, sec.RoleDoctor, sec.RoleNurse, sec.RolePharmacist, sec.RoleStaff),
		handler.guard.RequireFacility(),
		handler.guard.RequireActiveSubscription(),
	).Get("/current", handler.currentFacility)

	return router
}

// PatientRoutes returns the patient endpoints.
//
// # Endpoints
//   - GET /{patientID}
func (handler *Handler) PatientRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.authenticate)

	router.With(handler.guard.RequirePatientAccess("patientID")).Get("/{patientID}", handler.getPatient)

	return router
}

func (handler *Handler) currentFacility(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, FacilityFromContext(request.Context()))
}

func (handler *Handler) getPatient(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, PatientFromContext(request.Context()))
}
