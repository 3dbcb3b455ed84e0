// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CarePatientTable represents the 'care.patient' table
type CarePatientTable struct {
	Table             string
	ID                string
	UserID            string
	PrimaryDoctorID   string
	PrimaryFacilityID string
	CreatedAt         string
	UpdatedAt         string
}

// CarePatient is the schema definition for care.patient
var CarePatient = CarePatientTable{
	Table:             "care.patient",
	ID:                "id",
	UserID:            "userid",
	PrimaryDoctorID:   "primarydoctorid",
	PrimaryFacilityID: "primaryfacilityid",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

// Columns returns all column names in scan order
func (t CarePatientTable) Columns() []string {
	return []string{t.ID, t.UserID, t.PrimaryDoctorID, t.PrimaryFacilityID, t.CreatedAt, t.UpdatedAt}
}
