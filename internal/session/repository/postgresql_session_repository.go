// Package repository implements session persistence.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(), plus a Redis implementation that leans on native key TTLs
// instead of a sweeper.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
)

// PostgreSQLSessionRepository implements session persistence for PostgreSQL.
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// Create stores a new session snapshot.
func (p *PostgreSQLSessionRepository) Create(ctx context.Context, session *sessionDomain.Session) error {
	querier := database.GetTx(ctx, p.db)

	methodsJSON, err := marshalMethods(session.VerifiedMethods)
	if err != nil {
		return err
	}

	query := `INSERT INTO sessions
			  (id, principal_id, token_hash, role, elevated_authority, verified_methods,
			   consensus_verified, origin_ip, origin_user_agent, created_at, expires_at, revoked_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = querier.ExecContext(
		ctx,
		query,
		session.ID,
		session.PrincipalID,
		session.TokenHash,
		string(session.Role),
		session.ElevatedAuthority,
		methodsJSON,
		session.ConsensusVerified,
		session.OriginIP,
		session.OriginUserAgent,
		session.CreatedAt,
		session.ExpiresAt,
		session.RevokedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}

	return nil
}

// GetByTokenHash retrieves a session by its token hash.
// Returns ErrSessionNotFound if no session matches.
func (p *PostgreSQLSessionRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*sessionDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, principal_id, token_hash, role, elevated_authority, verified_methods,
			  consensus_verified, origin_ip, origin_user_agent, created_at, expires_at, revoked_at
			  FROM sessions
			  WHERE token_hash = $1`

	session, err := scanSession(querier.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, sessionDomain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	return session, nil
}

// Revoke marks the session as invalidated. The row is kept until expiry so the
// token cannot be replayed.
func (p *PostgreSQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	revokedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET revoked_at = $2 WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, sessionID, revokedAt); err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}

	return nil
}

// Delete removes the session row.
func (p *PostgreSQLSessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM sessions WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}

	return nil
}

// DeleteExpired removes sessions whose lifetime has passed. Returns the number
// of sessions removed.
func (p *PostgreSQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM sessions WHERE expires_at <= $1`

	result, err := querier.ExecContext(ctx, query, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired sessions")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted sessions")
	}

	return deleted, nil
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL session repository.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}

func marshalMethods(methods []identityDomain.Method) ([]byte, error) {
	methodsJSON, err := json.Marshal(methods)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal verified methods")
	}
	return methodsJSON, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(scanner rowScanner) (*sessionDomain.Session, error) {
	var session sessionDomain.Session
	var role string
	var methodsJSON []byte
	var revokedAt sql.NullTime

	err := scanner.Scan(
		&session.ID,
		&session.PrincipalID,
		&session.TokenHash,
		&role,
		&session.ElevatedAuthority,
		&methodsJSON,
		&session.ConsensusVerified,
		&session.OriginIP,
		&session.OriginUserAgent,
		&session.CreatedAt,
		&session.ExpiresAt,
		&revokedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Role = identityDomain.Role(role)
	if revokedAt.Valid {
		session.RevokedAt = &revokedAt.Time
	}
	if methodsJSON != nil {
		if err := json.Unmarshal(methodsJSON, &session.VerifiedMethods); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal verified methods")
		}
	}

	return &session, nil
}
