// Package domain defines the append-only audit log models.
//
// Every authentication attempt and every access decision is recorded before
// the call returns. Entries are never updated or deleted through the
// application; retention cleanup is a separate administrative command.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies what an audit entry records.
type Outcome string

const (
	// AuthSuccessOutcome records a fully verified authentication.
	AuthSuccessOutcome Outcome = "auth_success"

	// AuthFailureOutcome records a failed authentication attempt.
	AuthFailureOutcome Outcome = "auth_failure"

	// AccountLockedOutcome records the transition into the locked state.
	AccountLockedOutcome Outcome = "account_locked"

	// AccessGrantedOutcome records a granted access decision.
	AccessGrantedOutcome Outcome = "access_granted"

	// AccessDeniedOutcome records a denied access decision.
	AccessDeniedOutcome Outcome = "access_denied"

	// SessionRevokedOutcome records an explicit logout.
	SessionRevokedOutcome Outcome = "session_revoked"

	// PrincipalRegisteredOutcome records administrative principal registration.
	PrincipalRegisteredOutcome Outcome = "principal_registered"

	// CredentialEnrolledOutcome records credential enrollment or rotation.
	CredentialEnrolledOutcome Outcome = "credential_enrolled"

	// PrincipalUnlockedOutcome records an administrative unlock.
	PrincipalUnlockedOutcome Outcome = "principal_unlocked"
)

// IsValid reports whether the outcome is one of the known outcomes.
func (o Outcome) IsValid() bool {
	switch o {
	case AuthSuccessOutcome, AuthFailureOutcome, AccountLockedOutcome,
		AccessGrantedOutcome, AccessDeniedOutcome, SessionRevokedOutcome,
		PrincipalRegisteredOutcome, CredentialEnrolledOutcome, PrincipalUnlockedOutcome:
		return true
	}
	return false
}

// Entry is one append-only audit record. Seq is assigned by the store and is
// monotonically increasing, which gives per-principal ordering for lockout
// reconstruction. Secret material must never appear in an entry.
type Entry struct {
	ID           uuid.UUID // Unique identifier (UUIDv7)
	Seq          int64     // Store-assigned monotonic sequence number
	RequestID    string    // Request correlation id (empty outside HTTP)
	PrincipalID  uuid.UUID // Subject principal (uuid.Nil when unresolved)
	ResourceType string    // Resource type for access decisions (empty for auth events)
	Permissions  []string  // Requested permissions for access decisions
	Outcome      Outcome
	Reason       string // Machine-readable reason code
	Metadata     map[string]any
	CreatedAt    time.Time
}
