package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
)

// MySQLSessionRepository implements session persistence for MySQL.
// UUIDs are stored as CHAR(36) strings and verified methods as a JSON column.
type MySQLSessionRepository struct {
	db *sql.DB
}

// Create stores a new session snapshot.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *sessionDomain.Session) error {
	querier := database.GetTx(ctx, m.db)

	methodsJSON, err := marshalMethods(session.VerifiedMethods)
	if err != nil {
		return err
	}

	query := `INSERT INTO sessions
			  (id, principal_id, token_hash, role, elevated_authority, verified_methods,
			   consensus_verified, origin_ip, origin_user_agent, created_at, expires_at, revoked_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		session.ID.String(),
		session.PrincipalID.String(),
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
func (m *MySQLSessionRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*sessionDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, principal_id, token_hash, role, elevated_authority, verified_methods,
			  consensus_verified, origin_ip, origin_user_agent, created_at, expires_at, revoked_at
			  FROM sessions
			  WHERE token_hash = ?`

	session, err := scanSession(querier.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, sessionDomain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	return session, nil
}

// Revoke marks the session as invalidated.
func (m *MySQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	revokedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE sessions SET revoked_at = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, revokedAt, sessionID.String()); err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}

	return nil
}

// Delete removes the session row.
func (m *MySQLSessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, sessionID.String()); err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}

	return nil
}

// DeleteExpired removes sessions whose lifetime has passed.
func (m *MySQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE expires_at <= ?`

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

// NewMySQLSessionRepository creates a new MySQL session repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
