// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access centralizes authorization decisions for clinical resources.

Every predicate lives here as a pure function over a [sec.Principal] and the
target record, so each rule can be tested on its own. The HTTP guards only
load records, call the predicates and translate the outcome into responses.

# Architecture

  - Entities: Facility, Patient.
  - Policy: CanAccessPatient, CheckSubscription (pure, no I/O).
  - Guard: chi middleware composing the policy with the repositories.
*/
package access

import (
	"context"
	"time"

	"github.com/taibuivan/wafya/internal/platform/ctxkey"
)

// # Domain Entities

// SubscriptionStatus is the billing state of a facility.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// Usable reports whether the status grants access to paid features.
func (s SubscriptionStatus) Usable() bool {
	return s == SubscriptionActive || s == SubscriptionTrial
}

// Facility is a healthcare organization that staff accounts belong to.
type Facility struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	IsActive              bool               `json:"isActive"`
	SubscriptionStatus    SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time         `json:"subscriptionExpiresAt,omitempty"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// Patient is the clinical profile attached to a patient account.
type Patient struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	PrimaryDoctorID   *string   `json:"primaryDoctorId,omitempty"`
	PrimaryFacilityID *string   `json:"primaryFacilityId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// # Repository Contracts

// FacilityRepository defines the persistence contract for facilities.
type FacilityRepository interface {
	// FindByID returns [ErrFacilityNotFound] when no row matches.
	FindByID(ctx context.Context, id string) (*Facility, error)

	/*
		ExpireSubscription moves a lapsed subscription to expired.

		The write is a single conditional UPDATE, so concurrent requests that
		observe the same lapse do not race.
	*/
	ExpireSubscription(ctx context.Context, id string, now time.Time) error
}

// PatientRepository defines the persistence contract for patient profiles.
type PatientRepository interface {
	// FindByID returns [ErrPatientNotFound] when no row matches.
	FindByID(ctx context.Context, id string) (*Patient, error)

	// CreateForUser provisions the profile of a newly registered patient account.
	CreateForUser(ctx context.Context, userID string, facilityID *string) error
}

// # Context Helpers

// WithFacility attaches the facility loaded by a guard.
func WithFacility(ctx context.Context, facility *Facility) context.Context {
	return context.WithValue(ctx, ctxkey.KeyFacility, facility)
}

// FacilityFromContext returns the facility loaded by a guard, or nil.
func FacilityFromContext(ctx context.Context) *Facility {
	facility, _ := ctx.Value(ctxkey.KeyFacility).(*Facility)
	return facility
}

// WithPatient attaches the patient loaded by a guard.
func WithPatient(ctx context.Context, patient *Patient) context.Context {
	return context.WithValue(ctx, ctxkey.KeyPatient, patient)
}

// PatientFromContext returns the patient loaded by a guard, or nil.
func PatientFromContext(ctx context.Context) *Patient {
	patient, _ := ctx.Value(ctxkey.KeyPatient).(*Patient)
	return patient
}
