// Package usecase defines business logic interfaces for session management.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
)

// SessionRepository defines persistence operations for sessions.
// SQL implementations support transaction-aware operations via context
// propagation; the Redis implementation relies on native key TTLs.
type SessionRepository interface {
	// Create stores a new session snapshot.
	Create(ctx context.Context, session *sessionDomain.Session) error

	// GetByTokenHash retrieves a session by its token hash.
	// Returns ErrSessionNotFound if no session matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*sessionDomain.Session, error)

	// Revoke marks the session as invalidated, keeping it until expiry so the
	// token cannot be replayed.
	Revoke(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error

	// Delete removes the session.
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// DeleteExpired removes sessions whose lifetime has passed and returns how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UseCase defines business logic operations for session management.
type UseCase interface {
	// Create issues a session snapshot for the principal, freezing its role
	// and authority flags at issuance. Returns the session and the plain
	// bearer token; the token is not recoverable afterwards.
	Create(
		ctx context.Context,
		principal *identityDomain.Principal,
		verifiedMethods []identityDomain.Method,
		originIP string,
		originUserAgent string,
	) (*sessionDomain.Session, string, error)

	// Validate resolves a plain token to its live session. Returns
	// ErrSessionNotFound for unknown or revoked tokens and ErrSessionExpired
	// for expired ones; expired sessions are purged on the way out.
	Validate(ctx context.Context, plainToken string) (*sessionDomain.Session, error)

	// Invalidate revokes the session identified by the plain token.
	// Idempotent: revoking an already revoked session succeeds.
	Invalidate(ctx context.Context, plainToken string) error

	// DeleteExpired removes expired sessions in bulk. Used by the background
	// sweeper and the cleanup command.
	DeleteExpired(ctx context.Context) (int64, error)
}
