// Package repository implements data persistence for identity entities.
//
// Provides PostgreSQL and MySQL implementations with transaction support via database.GetTx().
// PostgreSQL uses native UUID types, MySQL uses CHAR(36) types.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// PostgreSQLPrincipalRepository implements Principal persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLPrincipalRepository struct {
	db *sql.DB
}

// Create inserts a new Principal into the PostgreSQL database.
// Returns ErrDuplicateIdentity if a principal with the same name already exists.
func (p *PostgreSQLPrincipalRepository) Create(
	ctx context.Context,
	principal *identityDomain.Principal,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO principals
			  (id, name, role, elevated_authority, is_active, failed_attempts, locked_until, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		principal.ID,
		principal.Name,
		string(principal.Role),
		principal.ElevatedAuthority,
		principal.IsActive,
		principal.FailedAttempts,
		principal.LockedUntil,
		principal.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return identityDomain.ErrDuplicateIdentity
		}
		return apperrors.Wrap(err, "failed to create principal")
	}
	return nil
}

// Update modifies an existing Principal in the PostgreSQL database.
func (p *PostgreSQLPrincipalRepository) Update(
	ctx context.Context,
	principal *identityDomain.Principal,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET name = $1,
				  role = $2,
				  elevated_authority = $3,
				  is_active = $4,
				  failed_attempts = $5,
				  locked_until = $6
			  WHERE id = $7`

	_, err := querier.ExecContext(
		ctx,
		query,
		principal.Name,
		string(principal.Role),
		principal.ElevatedAuthority,
		principal.IsActive,
		principal.FailedAttempts,
		principal.LockedUntil,
		principal.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal")
	}
	return nil
}

// Get retrieves a Principal by ID from the PostgreSQL database.
func (p *PostgreSQLPrincipalRepository) Get(
	ctx context.Context,
	principalID uuid.UUID,
) (*identityDomain.Principal, error) {
	return p.getByQuery(
		ctx,
		`SELECT id, name, role, elevated_authority, is_active, failed_attempts, locked_until, created_at
		 FROM principals WHERE id = $1`,
		principalID,
	)
}

// GetByName retrieves a Principal by its identifying name from the PostgreSQL database.
func (p *PostgreSQLPrincipalRepository) GetByName(
	ctx context.Context,
	name string,
) (*identityDomain.Principal, error) {
	return p.getByQuery(
		ctx,
		`SELECT id, name, role, elevated_authority, is_active, failed_attempts, locked_until, created_at
		 FROM principals WHERE name = $1`,
		name,
	)
}

func (p *PostgreSQLPrincipalRepository) getByQuery(
	ctx context.Context,
	query string,
	arg any,
) (*identityDomain.Principal, error) {
	querier := database.GetTx(ctx, p.db)

	var principal identityDomain.Principal
	var role string

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&principal.ID,
		&principal.Name,
		&role,
		&principal.ElevatedAuthority,
		&principal.IsActive,
		&principal.FailedAttempts,
		&principal.LockedUntil,
		&principal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrPrincipalNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get principal")
	}

	principal.Role = identityDomain.Role(role)
	return &principal, nil
}

// RegisterFailedAttempt atomically increments the failed-attempt counter and,
// when the counter reaches the threshold, sets locked_until. The increment and
// the lock decision happen in a single statement so concurrent failures for the
// same principal never under-count.
func (p *PostgreSQLPrincipalRepository) RegisterFailedAttempt(
	ctx context.Context,
	principalID uuid.UUID,
	threshold int,
	lockedUntil time.Time,
) (attempts int, locked bool, err error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET failed_attempts = failed_attempts + 1,
				  locked_until = CASE
					  WHEN failed_attempts + 1 >= $2 THEN $3
					  ELSE locked_until
				  END
			  WHERE id = $1
			  RETURNING failed_attempts, locked_until IS NOT NULL AND locked_until > NOW()`

	err = querier.QueryRowContext(ctx, query, principalID, threshold, lockedUntil).
		Scan(&attempts, &locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, identityDomain.ErrPrincipalNotFound
		}
		return 0, false, apperrors.Wrap(err, "failed to register failed attempt")
	}

	return attempts, locked, nil
}

// ResetLockout clears the failed-attempt counter and any lock timestamp.
// Called on successful authentication and on administrative unlock.
func (p *PostgreSQLPrincipalRepository) ResetLockout(
	ctx context.Context,
	principalID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals SET failed_attempts = 0, locked_until = NULL WHERE id = $1`

	_, err := querier.ExecContext(ctx, query, principalID)
	if err != nil {
		return apperrors.Wrap(err, "failed to reset lockout")
	}
	return nil
}

// NewPostgreSQLPrincipalRepository creates a new PostgreSQL Principal repository.
func NewPostgreSQLPrincipalRepository(db *sql.DB) *PostgreSQLPrincipalRepository {
	return &PostgreSQLPrincipalRepository{db: db}
}
