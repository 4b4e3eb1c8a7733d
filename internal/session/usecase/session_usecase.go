// Package usecase implements business logic orchestration for session management.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
)

// sessionUseCase implements UseCase.
type sessionUseCase struct {
	sessionRepo  SessionRepository
	tokenService authService.TokenService
	auditLog     auditUseCase.UseCase
	ttl          time.Duration
}

// Create issues a session snapshot for the principal.
//
// ConsensusVerified is derived from the verified methods: a community
// verification factor at login marks the whole session, so consensus-gated
// access checks pass for its entire lifetime.
func (s *sessionUseCase) Create(
	ctx context.Context,
	principal *identityDomain.Principal,
	verifiedMethods []identityDomain.Method,
	originIP string,
	originUserAgent string,
) (*sessionDomain.Session, string, error) {
	plainToken, tokenHash, err := s.tokenService.GenerateToken()
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	session := &sessionDomain.Session{
		ID:                uuid.Must(uuid.NewV7()),
		PrincipalID:       principal.ID,
		TokenHash:         tokenHash,
		Role:              principal.Role,
		ElevatedAuthority: principal.ElevatedAuthority,
		VerifiedMethods:   verifiedMethods,
		ConsensusVerified: containsMethod(verifiedMethods, identityDomain.CommunityVerificationMethod),
		OriginIP:          originIP,
		OriginUserAgent:   originUserAgent,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.ttl),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", err
	}

	return session, plainToken, nil
}

// Validate resolves a plain token to its live session, purging it lazily when
// the lifetime has passed.
func (s *sessionUseCase) Validate(
	ctx context.Context,
	plainToken string,
) (*sessionDomain.Session, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, s.tokenService.HashToken(plainToken))
	if err != nil {
		return nil, err
	}

	if session.Revoked() {
		return nil, sessionDomain.ErrSessionNotFound
	}

	if session.Expired(time.Now().UTC()) {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, sessionDomain.ErrSessionExpired
	}

	return session, nil
}

// Invalidate revokes the session identified by the plain token and records the
// revocation in the audit trail.
func (s *sessionUseCase) Invalidate(ctx context.Context, plainToken string) error {
	session, err := s.sessionRepo.GetByTokenHash(ctx, s.tokenService.HashToken(plainToken))
	if err != nil {
		return err
	}

	if session.Revoked() {
		return nil
	}

	if err := s.sessionRepo.Revoke(ctx, session.ID, time.Now().UTC()); err != nil {
		return err
	}

	return s.auditLog.Record(ctx, &auditDomain.Entry{
		PrincipalID: session.PrincipalID,
		Outcome:     auditDomain.SessionRevokedOutcome,
		Metadata: map[string]any{
			"session_id": session.ID.String(),
		},
	})
}

// DeleteExpired removes expired sessions in bulk.
func (s *sessionUseCase) DeleteExpired(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, time.Now().UTC())
}

func containsMethod(methods []identityDomain.Method, target identityDomain.Method) bool {
	for _, m := range methods {
		if m == target {
			return true
		}
	}
	return false
}

// NewSessionUseCase creates a new session UseCase with the provided dependencies.
func NewSessionUseCase(
	sessionRepo SessionRepository,
	tokenService authService.TokenService,
	auditLog auditUseCase.UseCase,
	ttl time.Duration,
) UseCase {
	return &sessionUseCase{
		sessionRepo:  sessionRepo,
		tokenService: tokenService,
		auditLog:     auditLog,
		ttl:          ttl,
	}
}
