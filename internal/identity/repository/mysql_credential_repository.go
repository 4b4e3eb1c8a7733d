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

// MySQLCredentialRepository implements Credential persistence for MySQL.
// Uses CHAR(36) UUID columns with transaction support via database.GetTx().
type MySQLCredentialRepository struct {
	db *sql.DB
}

// Upsert stores a credential, replacing any existing credential for the same
// (principal, method) pair via ON DUPLICATE KEY UPDATE.
func (m *MySQLCredentialRepository) Upsert(
	ctx context.Context,
	credential *identityDomain.Credential,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO credentials (id, principal_id, method, secret_hash, verified, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  id = VALUES(id),
			  secret_hash = VALUES(secret_hash),
			  verified = VALUES(verified),
			  created_at = VALUES(created_at)`

	_, err := querier.ExecContext(
		ctx,
		query,
		credential.ID.String(),
		credential.PrincipalID.String(),
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
func (m *MySQLCredentialRepository) GetByPrincipalAndMethod(
	ctx context.Context,
	principalID uuid.UUID,
	method identityDomain.Method,
) (*identityDomain.Credential, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, principal_id, method, secret_hash, verified, created_at
			  FROM credentials
			  WHERE principal_id = ? AND method = ?`

	var credential identityDomain.Credential
	var id, pid, methodStr string

	err := querier.QueryRowContext(ctx, query, principalID.String(), string(method)).Scan(
		&id,
		&pid,
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

	credentialID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse credential id")
	}
	principalUUID, err := uuid.Parse(pid)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse principal id")
	}

	credential.ID = credentialID
	credential.PrincipalID = principalUUID
	credential.Method = identityDomain.Method(methodStr)

	return &credential, nil
}

// ListMethods returns the methods a principal has enrolled credentials for.
func (m *MySQLCredentialRepository) ListMethods(
	ctx context.Context,
	principalID uuid.UUID,
) ([]identityDomain.Method, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT method FROM credentials WHERE principal_id = ? ORDER BY method`

	rows, err := querier.QueryContext(ctx, query, principalID.String())
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

// NewMySQLCredentialRepository creates a new MySQL Credential repository.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}
