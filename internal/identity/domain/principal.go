package domain

import (
	"time"

	"github.com/google/uuid"
)

// Principal represents an identity that can authenticate and be authorized.
// Principals are never physically deleted; deactivation sets IsActive to false.
type Principal struct {
	ID                uuid.UUID  // Unique identifier (UUIDv7)
	Name              string     // Identifying name, unique among principals
	Role              Role       // Position in the role hierarchy
	ElevatedAuthority bool       // Capability flag consumed by elevated-approval gates
	IsActive          bool       // Whether the principal can authenticate
	FailedAttempts    int        // Consecutive failed primary-credential attempts
	LockedUntil       *time.Time // Time until which the principal is locked (nil if not locked)
	CreatedAt         time.Time
}

// IsLocked reports whether the principal is locked at the given instant.
// A lock that has already elapsed no longer counts; the Locked to Active
// transition happens implicitly once LockedUntil passes.
func (p *Principal) IsLocked(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}

// RegisterPrincipalInput contains the parameters for registering a new principal.
type RegisterPrincipalInput struct {
	Name              string // Identifying name, must be unique
	Role              Role   // Role assigned at registration
	ElevatedAuthority bool   // Whether the principal carries elevated authority
}

// RegisterPrincipalOutput contains the result of registering a principal.
type RegisterPrincipalOutput struct {
	ID uuid.UUID // Unique identifier for the registered principal (UUIDv7)
}
