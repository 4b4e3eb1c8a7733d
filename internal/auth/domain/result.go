// Package domain defines authentication domain models.
//
// Authentication outcomes are typed: failures are sentinel-wrapped errors the
// caller branches on with errors.Is, while success and the needs-more-factors
// case are AuthResult values. No generic error ever crosses the module
// boundary for an expected outcome.
package domain

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// Status classifies a non-failure authentication outcome.
type Status string

const (
	// SuccessStatus means every enrolled factor was verified and a session was issued.
	SuccessStatus Status = "success"

	// MFARequiredStatus means the primary credential was verified but one or
	// more enrolled factors were not supplied. Not counted as a failed attempt.
	MFARequiredStatus Status = "mfa_required"
)

// Origin carries request metadata captured into the session snapshot.
type Origin struct {
	IP        string
	UserAgent string
}

// AuthenticateInput contains the parameters for an authentication attempt.
// Factors maps enrolled methods to their proofs (one-time codes, token
// responses, voucher codes).
type AuthenticateInput struct {
	Identifier    string
	PrimarySecret string
	Factors       map[identityDomain.Method]string
	Origin        Origin
}

// AuthResult is the outcome of a non-failed authentication attempt.
//
// For SuccessStatus the session fields are set and PlainSessionToken is
// returned exactly once. For MFARequiredStatus only MissingMethods is set.
type AuthResult struct {
	Status            Status
	SessionID         uuid.UUID
	PlainSessionToken string
	ExpiresAt         time.Time
	MissingMethods    []identityDomain.Method
}
