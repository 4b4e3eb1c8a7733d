package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// mysqlDuplicateEntry is the MySQL error number for unique constraint violations.
const mysqlDuplicateEntry = 1062

// MySQLPrincipalRepository implements Principal persistence for MySQL.
// Uses CHAR(36) UUID columns with transaction support via database.GetTx().
type MySQLPrincipalRepository struct {
	db *sql.DB
}

// Create inserts a new Principal into the MySQL database.
// Returns ErrDuplicateIdentity if a principal with the same name already exists.
func (m *MySQLPrincipalRepository) Create(
	ctx context.Context,
	principal *identityDomain.Principal,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO principals
			  (id, name, role, elevated_authority, is_active, failed_attempts, locked_until, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		principal.ID.String(),
		principal.Name,
		string(principal.Role),
		principal.ElevatedAuthority,
		principal.IsActive,
		principal.FailedAttempts,
		principal.LockedUntil,
		principal.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return identityDomain.ErrDuplicateIdentity
		}
		return apperrors.Wrap(err, "failed to create principal")
	}
	return nil
}

// Update modifies an existing Principal in the MySQL database.
func (m *MySQLPrincipalRepository) Update(
	ctx context.Context,
	principal *identityDomain.Principal,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE principals
			  SET name = ?,
				  role = ?,
				  elevated_authority = ?,
				  is_active = ?,
				  failed_attempts = ?,
				  locked_until = ?
			  WHERE id = ?`

	_, err := querier.ExecContext(
		ctx,
		query,
		principal.Name,
		string(principal.Role),
		principal.ElevatedAuthority,
		principal.IsActive,
		principal.FailedAttempts,
		principal.LockedUntil,
		principal.ID.String(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal")
	}
	return nil
}

// Get retrieves a Principal by ID from the MySQL database.
func (m *MySQLPrincipalRepository) Get(
	ctx context.Context,
	principalID uuid.UUID,
) (*identityDomain.Principal, error) {
	return m.getByQuery(
		ctx,
		`SELECT id, name, role, elevated_authority, is_active, failed_attempts, locked_until, created_at
		 FROM principals WHERE id = ?`,
		principalID.String(),
	)
}

// GetByName retrieves a Principal by its identifying name from the MySQL database.
func (m *MySQLPrincipalRepository) GetByName(
	ctx context.Context,
	name string,
) (*identityDomain.Principal, error) {
	return m.getByQuery(
		ctx,
		`SELECT id, name, role, elevated_authority, is_active, failed_attempts, locked_until, created_at
		 FROM principals WHERE name = ?`,
		name,
	)
}

func (m *MySQLPrincipalRepository) getByQuery(
	ctx context.Context,
	query string,
	arg any,
) (*identityDomain.Principal, error) {
	querier := database.GetTx(ctx, m.db)

	var principal identityDomain.Principal
	var id, role string

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&id,
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

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse principal id")
	}
	principal.ID = parsed
	principal.Role = identityDomain.Role(role)

	return &principal, nil
}

// RegisterFailedAttempt atomically increments the failed-attempt counter and,
// when the counter reaches the threshold, sets locked_until. MySQL has no
// RETURNING clause, so the update and the follow-up read must run inside the
// same transaction (the authentication engine wraps this call in WithTx).
func (m *MySQLPrincipalRepository) RegisterFailedAttempt(
	ctx context.Context,
	principalID uuid.UUID,
	threshold int,
	lockedUntil time.Time,
) (attempts int, locked bool, err error) {
	querier := database.GetTx(ctx, m.db)

	update := `UPDATE principals
			   SET failed_attempts = failed_attempts + 1,
				   locked_until = IF(failed_attempts >= ?, ?, locked_until)
			   WHERE id = ?`

	// failed_attempts has already been incremented when IF evaluates in MySQL,
	// so the threshold compares against the pre-increment value plus one.
	result, err := querier.ExecContext(ctx, update, threshold, lockedUntil, principalID.String())
	if err != nil {
		return 0, false, apperrors.Wrap(err, "failed to register failed attempt")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return 0, false, identityDomain.ErrPrincipalNotFound
	}

	read := `SELECT failed_attempts, locked_until IS NOT NULL AND locked_until > NOW()
			 FROM principals WHERE id = ?`

	err = querier.QueryRowContext(ctx, read, principalID.String()).Scan(&attempts, &locked)
	if err != nil {
		return 0, false, apperrors.Wrap(err, "failed to read lockout state")
	}

	return attempts, locked, nil
}

// ResetLockout clears the failed-attempt counter and any lock timestamp.
func (m *MySQLPrincipalRepository) ResetLockout(
	ctx context.Context,
	principalID uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE principals SET failed_attempts = 0, locked_until = NULL WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, principalID.String())
	if err != nil {
		return apperrors.Wrap(err, "failed to reset lockout")
	}
	return nil
}

// NewMySQLPrincipalRepository creates a new MySQL Principal repository.
func NewMySQLPrincipalRepository(db *sql.DB) *MySQLPrincipalRepository {
	return &MySQLPrincipalRepository{db: db}
}
