// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/wafya/internal/platform/database/schema"
	"github.com/taibuivan/wafya/internal/platform/postgres"
	"github.com/taibuivan/wafya/pkg/uuid"
)

// # Facility Repository

// PostgresFacilityRepository implements [FacilityRepository] over care.facility.
type PostgresFacilityRepository struct {
	db postgres.Querier
}

// NewFacilityRepository creates a new PostgreSQL implementation of the FacilityRepository.
func NewFacilityRepository(db postgres.Querier) *PostgresFacilityRepository {
	return &PostgresFacilityRepository{db: db}
}

// FindByID retrieves a facility by primary key.
func (repository *PostgresFacilityRepository) FindByID(ctx context.Context, id string) (*Facility, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		strings.Join(schema.CareFacility.Columns(), ", "),
		schema.CareFacility.Table,
		schema.CareFacility.ID,
	)

	facility := &Facility{}
	var status string

	err := repository.db.QueryRow(ctx, query, id).Scan(
		&facility.ID,
		&facility.Name,
		&facility.IsActive,
		&status,
		&facility.SubscriptionExpiresAt,
		&facility.CreatedAt,
		&facility.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("postgres_facility_repo_find_by_id_failed: %w", err)
	}

	facility.SubscriptionStatus = SubscriptionStatus(status)
	return facility, nil
}

// ExpireSubscription flips a usable but lapsed subscription to expired.
func (repository *PostgresFacilityRepository) ExpireSubscription(ctx context.Context, id string, now time.Time) error {
	const query = `
		UPDATE care.facility
		SET subscriptionstatus = 'expired', updatedat = $2
		WHERE id = $1
		  AND subscriptionstatus IN ('active', 'trial')
		  AND subscriptionexpiresat < $2`

	if _, err := repository.db.Exec(ctx, query, id, now); err != nil {
		return fmt.Errorf("postgres_facility_repo_expire_subscription_failed: %w", err)
	}
	return nil
}

// # Patient Repository

// PostgresPatientRepository implements [PatientRepository] over care.patient.
type PostgresPatientRepository struct {
	db postgres.Querier
}

// NewPatientRepository creates a new PostgreSQL implementation of the PatientRepository.
func NewPatientRepository(db postgres.Querier) *PostgresPatientRepository {
	return &PostgresPatientRepository{db: db}
}

// FindByID retrieves a patient profile by primary key.
func (repository *PostgresPatientRepository) FindByID(ctx context.Context, id string) (*Patient, error) {
	if !uuid.Valid(id) {
		return nil, ErrPatientNotFound
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		strings.Join(schema.CarePatient.Columns(), ", "),
		schema.CarePatient.Table,
		schema.CarePatient.ID,
	)

	patient := &Patient{}
	err := repository.db.QueryRow(ctx, query, id).Scan(
		&patient.ID,
		&patient.UserID,
		&patient.PrimaryDoctorID,
		&patient.PrimaryFacilityID,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("postgres_patient_repo_find_by_id_failed: %w", err)
	}

	return patient, nil
}

/*
CreateForUser inserts the patient profile for a freshly registered account.

An existing profile for the same account is left untouched.
*/
func (repository *PostgresPatientRepository) CreateForUser(ctx context.Context, userID string, facilityID *string) error {
	const query = `
		INSERT INTO care.patient (id, userid, primaryfacilityid, createdat, updatedat)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (userid) DO NOTHING`

	if _, err := repository.db.Exec(ctx, query, uuid.New(), userID, facilityID); err != nil {
		return fmt.Errorf("postgres_patient_repo_create_for_user_failed: %w", err)
	}
	return nil
}
