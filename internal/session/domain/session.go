// Package domain defines session domain models.
package domain

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// Session is an immutable snapshot of a principal's authentication state,
// captured at issuance. Role and authority flags are frozen: later changes to
// the principal do not propagate to sessions already issued.
//
// Only TokenHash is persisted; the plain bearer token is returned exactly once
// at creation and cannot be recovered afterwards.
type Session struct {
	ID                uuid.UUID               `json:"id"`
	PrincipalID       uuid.UUID               `json:"principal_id"`
	TokenHash         string                  `json:"token_hash"`
	Role              identityDomain.Role     `json:"role"`
	ElevatedAuthority bool                    `json:"elevated_authority"`
	VerifiedMethods   []identityDomain.Method `json:"verified_methods"`
	ConsensusVerified bool                    `json:"consensus_verified"`
	OriginIP          string                  `json:"origin_ip"`
	OriginUserAgent   string                  `json:"origin_user_agent"`
	CreatedAt         time.Time               `json:"created_at"`
	ExpiresAt         time.Time               `json:"expires_at"`
	RevokedAt         *time.Time              `json:"revoked_at"`
}

// Expired reports whether the session's lifetime has passed.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Revoked reports whether the session was explicitly invalidated.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// HasVerifiedMethod reports whether the method was verified when the session
// was issued.
func (s *Session) HasVerifiedMethod(method identityDomain.Method) bool {
	for _, m := range s.VerifiedMethods {
		if m == method {
			return true
		}
	}
	return false
}
