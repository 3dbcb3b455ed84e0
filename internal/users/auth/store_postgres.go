// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/wafya/internal/platform/database/schema"
	"github.com/taibuivan/wafya/internal/platform/dberr"
	"github.com/taibuivan/wafya/internal/platform/postgres"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

// identityColumns is the canonical projection of users.account, in scan order.
var identityColumns = "\n\t" + strings.Join(schema.UserAccount.Columns(), ", ")

// # Identity Repository

// PostgresIdentityRepository implements [IdentityRepository] using pgx.
type PostgresIdentityRepository struct {
	db postgres.Querier
}

// NewIdentityRepository creates a new PostgreSQL implementation of the IdentityRepository.
func NewIdentityRepository(db postgres.Querier) *PostgresIdentityRepository {
	return &PostgresIdentityRepository{db: db}
}

/*
Create persists a new account into the users.account table.

Returns:
  - error: ErrEmailAlreadyExists on the lower(email) unique index, otherwise database errors
*/
func (repository *PostgresIdentityRepository) Create(ctx context.Context, identity *Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO users.account (` + identityColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	_, err := repository.db.Exec(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		string(identity.Role),
		identity.FirstName,
		identity.LastName,
		identity.Phone,
		identity.IsActive,
		identity.IsVerified,
		identity.FacilityID,
		identity.FailedLoginAttempts,
		identity.LockedUntil,
		identity.LastLoginAt,
		identity.LastLoginIP,
		identity.TwoFactorEnabled,
		identity.TwoFactorSecret,
		identity.BackupCodeHashes,
		identity.VerificationTokenHash,
		identity.VerificationExpiresAt,
		identity.ResetTokenHash,
		identity.ResetExpiresAt,
		identity.CreatedAt,
		identity.UpdatedAt,
		identity.DeletedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrEmailAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("postgres_identity_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves an account by case-insensitive email.

Soft-deleted rows are only returned when includeDeleted is set.
*/
func (repository *PostgresIdentityRepository) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM users.account
		WHERE lower(email) = lower($1) AND ($2 OR deletedat IS NULL)`

	return repository.queryOne(ctx, "find_by_email", query, email, includeDeleted)
}

// FindByID retrieves a live account by primary key.
func (repository *PostgresIdentityRepository) FindByID(ctx context.Context, id string) (*Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	return repository.queryOne(ctx, "find_by_id", query, id)
}

// FindByVerificationToken resolves an unexpired email verification token digest.
func (repository *PostgresIdentityRepository) FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM users.account
		WHERE verificationtokenhash = $1 AND verificationexpiresat > $2 AND deletedat IS NULL`

	return repository.queryOne(ctx, "find_by_verification_token", query, tokenHash, now)
}

// FindByResetToken resolves an unexpired password reset token digest.
func (repository *PostgresIdentityRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM users.account
		WHERE resettokenhash = $1 AND resetexpiresat > $2 AND deletedat IS NULL`

	return repository.queryOne(ctx, "find_by_reset_token", query, tokenHash, now)
}

/*
Update writes every assigned patch field plus updatedat in one statement.

Description: The statement is built from the patch, so columns that were not
assigned are never overwritten with zero values.
*/
func (repository *PostgresIdentityRepository) Update(ctx context.Context, id string, patch IdentityPatch) (*Identity, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	assignments := patch.assignments()
	setClauses := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+2)

	for _, assignment := range assignments {
		args = append(args, assignment.value)
		setClauses = append(setClauses, assignment.column+" = $"+strconv.Itoa(len(args)))
	}

	args = append(args, time.Now().UTC())
	setClauses = append(setClauses, "updatedat = $"+strconv.Itoa(len(args)))
	args = append(args, id)

	query := `
		UPDATE users.account
		SET ` + strings.Join(setClauses, ", ") + `
		WHERE id = $` + strconv.Itoa(len(args)) + ` AND deletedat IS NULL
		RETURNING ` + identityColumns

	return repository.queryOne(ctx, "update", query, args...)
}

/*
IncrementFailedLogins records one failed attempt without a read-modify-write race.

Description: The counter is incremented in SQL and the lock is set in the
same statement when the new value reaches maxAttempts.
*/
func (repository *PostgresIdentityRepository) IncrementFailedLogins(ctx context.Context, id string, maxAttempts int, lockedUntil time.Time) (*Identity, error) {
	query := `
		UPDATE users.account
		SET failedloginattempts = failedloginattempts + 1,
		    lockeduntil = CASE WHEN failedloginattempts + 1 >= $2 THEN $3 ELSE lockeduntil END,
		    updatedat = now()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING ` + identityColumns

	return repository.queryOne(ctx, "increment_failed_logins", query, id, maxAttempts, lockedUntil)
}

// ConsumeBackupCode removes a recovery code digest, reporting whether it was present.
func (repository *PostgresIdentityRepository) ConsumeBackupCode(ctx context.Context, id, codeHash string) (bool, error) {
	const query = `
		UPDATE users.account
		SET backupcodes = array_remove(backupcodes, $2), updatedat = now()
		WHERE id = $1 AND deletedat IS NULL AND $2 = ANY(backupcodes)`

	tag, err := repository.db.Exec(ctx, query, id, codeHash)
	if err != nil {
		return false, fmt.Errorf("postgres_identity_repo_consume_backup_code_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// # Scanning

func (repository *PostgresIdentityRepository) queryOne(ctx context.Context, operation, query string, args ...any) (*Identity, error) {
	identity, err := scanIdentity(repository.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("postgres_identity_repo_%s_failed: %w", operation, err)
	}
	return identity, nil
}

// scanIdentity hydrates an Identity from a row projected with identityColumns.
func scanIdentity(row pgx.Row) (*Identity, error) {
	identity := &Identity{}
	var role string

	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&role,
		&identity.FirstName,
		&identity.LastName,
		&identity.Phone,
		&identity.IsActive,
		&identity.IsVerified,
		&identity.FacilityID,
		&identity.FailedLoginAttempts,
		&identity.LockedUntil,
		&identity.LastLoginAt,
		&identity.LastLoginIP,
		&identity.TwoFactorEnabled,
		&identity.TwoFactorSecret,
		&identity.BackupCodeHashes,
		&identity.VerificationTokenHash,
		&identity.VerificationExpiresAt,
		&identity.ResetTokenHash,
		&identity.ResetExpiresAt,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&identity.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := sec.ParseRole(role)
	if err != nil {
		return nil, err
	}
	identity.Role = parsed

	return identity, nil
}
