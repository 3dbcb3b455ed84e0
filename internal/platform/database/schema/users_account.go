// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns repositories project, so SQL
// built in different packages stays aligned with the migrations.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table string
	ID    string
	Email string

	Password   string
	Role       string
	FirstName  string
	LastName   string
	Phone      string
	IsActive   string
	IsVerified string
	FacilityID string

	FailedLoginAttempts string
	LockedUntil         string
	LastLoginAt         string
	LastLoginIP         string

	TwoFactorEnabled string
	TwoFactorSecret  string
	BackupCodes      string

	VerificationTokenHash string
	VerificationExpiresAt string
	ResetTokenHash        string
	ResetExpiresAt        string

	CreatedAt string
	UpdatedAt string
	DeletedAt string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:                 "users.account",
	ID:                    "id",
	Email:                 "email",
	Password:              "passwordhash",
	Role:                  "role",
	FirstName:             "firstname",
	LastName:              "lastname",
	Phone:                 "phone",
	IsActive:              "isactive",
	IsVerified:            "isverified",
	FacilityID:            "facilityid",
	FailedLoginAttempts:   "failedloginattempts",
	LockedUntil:           "lockeduntil",
	LastLoginAt:           "lastloginat",
	LastLoginIP:           "lastloginip",
	TwoFactorEnabled:      "twofactorenabled",
	TwoFactorSecret:       "twofactorsecret",
	BackupCodes:           "backupcodes",
	VerificationTokenHash: "verificationtokenhash",
	VerificationExpiresAt: "verificationexpiresat",
	ResetTokenHash:        "resettokenhash",
	ResetExpiresAt:        "resetexpiresat",
	CreatedAt:             "createdat",
	UpdatedAt:             "updatedat",
	DeletedAt:             "deletedat",
}

// Columns returns all column names in scan order
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.Role, t.FirstName, t.LastName, t.Phone,
		t.IsActive, t.IsVerified, t.FacilityID,
		t.FailedLoginAttempts, t.LockedUntil, t.LastLoginAt, t.LastLoginIP,
		t.TwoFactorEnabled, t.TwoFactorSecret, t.BackupCodes,
		t.VerificationTokenHash, t.VerificationExpiresAt, t.ResetTokenHash, t.ResetExpiresAt,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
