package domain

import (
	"github.com/google/uuid"
)

// ReasonCode explains an access decision. Exactly one reason accompanies every
// decision, including grants.
type ReasonCode string

const (
	GrantedReason                   ReasonCode = "granted"
	InvalidSessionReason            ReasonCode = "invalid_session"
	SessionExpiredReason            ReasonCode = "session_expired"
	NoPolicyReason                  ReasonCode = "no_policy"
	InsufficientRoleReason          ReasonCode = "insufficient_role"
	MissingPermissionsReason        ReasonCode = "missing_permissions"
	ConsensusApprovalRequiredReason ReasonCode = "consensus_approval_required"
	ElevatedApprovalRequiredReason  ReasonCode = "elevated_approval_required"
)

// Decision is the outcome of an access check. Denials are decisions, not
// errors: only infrastructure faults surface as errors, and those fail closed.
type Decision struct {
	Allowed bool
	Reason  ReasonCode

	// SensitivityLevel carries the rule's sensitivity on a grant; zero otherwise.
	SensitivityLevel int

	// MissingPermissions lists the permissions the request did not cover when
	// the reason is missing_permissions.
	MissingPermissions []string

	// PrincipalID identifies the session's principal when the session resolved.
	PrincipalID uuid.UUID
}

// Granted creates an allowing decision carrying the rule's sensitivity level.
func Granted(principalID uuid.UUID, sensitivityLevel int) *Decision {
	return &Decision{
		Allowed:          true,
		Reason:           GrantedReason,
		SensitivityLevel: sensitivityLevel,
		PrincipalID:      principalID,
	}
}

// Denied creates a denying decision with the given reason.
func Denied(principalID uuid.UUID, reason ReasonCode) *Decision {
	return &Decision{
		Allowed:     false,
		Reason:      reason,
		PrincipalID: principalID,
	}
}
