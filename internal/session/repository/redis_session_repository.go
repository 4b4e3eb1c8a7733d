package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
)

// RedisSessionRepository implements session persistence on Redis.
//
// Each session is stored twice: the full snapshot under its token hash and an
// id-to-hash pointer so Revoke and Delete can work from the session ID. Both
// keys carry the session's remaining lifetime as their TTL, so expired
// sessions vanish on their own and DeleteExpired is a no-op.
type RedisSessionRepository struct {
	client *redis.Client
}

// Create stores a new session snapshot with a TTL matching its lifetime.
func (r *RedisSessionRepository) Create(ctx context.Context, session *sessionDomain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "session already expired")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKey(session.TokenHash), payload, ttl)
	pipe.Set(ctx, idKey(session.ID), session.TokenHash, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}

	return nil
}

// GetByTokenHash retrieves a session by its token hash.
// Returns ErrSessionNotFound if the key is missing or already expired.
func (r *RedisSessionRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*sessionDomain.Session, error) {
	payload, err := r.client.Get(ctx, tokenKey(tokenHash)).Bytes()
	if err != nil {
		if apperrors.Is(err, redis.Nil) {
			return nil, sessionDomain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	var session sessionDomain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session")
	}

	return &session, nil
}

// Revoke marks the session as invalidated while keeping the keys until expiry,
// so a revoked token cannot be replayed as a fresh one.
func (r *RedisSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	revokedAt time.Time,
) error {
	tokenHash, err := r.client.Get(ctx, idKey(sessionID)).Result()
	if err != nil {
		if apperrors.Is(err, redis.Nil) {
			return sessionDomain.ErrSessionNotFound
		}
		return apperrors.Wrap(err, "failed to resolve session")
	}

	session, err := r.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return err
	}

	session.RevokedAt = &revokedAt

	payload, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}

	if err := r.client.Set(ctx, tokenKey(tokenHash), payload, redis.KeepTTL).Err(); err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}

	return nil
}

// Delete removes the session keys.
func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	tokenHash, err := r.client.Get(ctx, idKey(sessionID)).Result()
	if err != nil {
		if apperrors.Is(err, redis.Nil) {
			return nil
		}
		return apperrors.Wrap(err, "failed to resolve session")
	}

	if err := r.client.Del(ctx, tokenKey(tokenHash), idKey(sessionID)).Err(); err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}

	return nil
}

// DeleteExpired is a no-op: Redis evicts expired sessions through key TTLs.
func (r *RedisSessionRepository) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// NewRedisSessionRepository creates a new Redis session repository.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func tokenKey(tokenHash string) string {
	return "gatekeeper:session:" + tokenHash
}

func idKey(sessionID uuid.UUID) string {
	return "gatekeeper:session-id:" + sessionID.String()
}
