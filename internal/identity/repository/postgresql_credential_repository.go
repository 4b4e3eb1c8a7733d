package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// PostgreSQLCredentialRepository implements Credential persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// Upsert stores a credential, replacing any existing credential for the same
// (principal, method) pair in a single statement. The unique constraint on
// (principal_id, method) guarantees at most one active credential per method.
func (p *PostgreSQLCredentialRepository) Upsert(
	ctx context.Context,
	credential *identityDomain.Credential,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO credentials (id, principal_id, method, secret_hash, verified, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (principal_id, method) DO UPDATE
			  SET id = EXCLUDED.id,
				  secret_hash = EXCLUDED.secret_hash,
				  verified = EXCLUDED.verified,
				  created_at = EXCLUDED.created_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.PrincipalID,
		string(credential.Method),
		credential.SecretHash,
		credential.Verified,
		credential.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert credential")
	}
	return nil
}

// GetByPrincipalAndMethod retrieves the credential enrolled for a method.
func (p *PostgreSQLCredentialRepository) GetByPrincipalAndMethod(
	ctx context.Context,
	principalID uuid.UUID,
	method identityDomain.Method,
) (*identityDomain.Credential, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, principal_id, method, secret_hash, verified, created_at
			  FROM credentials
			  WHERE principal_id = $1 AND method = $2`

	var credential identityDomain.Credential
	var methodStr string

	err := querier.QueryRowContext(ctx, query, principalID, string(method)).Scan(
		&credential.ID,
		&credential.PrincipalID,
		&methodStr,
		&credential.SecretHash,
		&credential.Verified,
		&credential.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}

	credential.Method = identityDomain.Method(methodStr)
	return &credential, nil
}

// ListMethods returns the methods a principal has enrolled credentials for.
func (p *PostgreSQLCredentialRepository) ListMethods(
	ctx context.Context,
	principalID uuid.UUID,
) ([]identityDomain.Method, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT method FROM credentials WHERE principal_id = $1 ORDER BY method`

	rows, err := querier.QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list credential methods")
	}
	defer func() {
		_ = rows.Close()
	}()

	methods := make([]identityDomain.Method, 0)
	for rows.Next() {
		var method string
		if err := rows.Scan(&method); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential method")
		}
		methods = append(methods, identityDomain.Method(method))
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate credential methods")
	}

	return methods, nil
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQL Credential repository.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}
