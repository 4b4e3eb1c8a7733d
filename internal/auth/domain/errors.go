package domain

import (
	"github.com/allisson/gatekeeper/internal/errors"
)

// Authentication errors.
var (
	// ErrInvalidCredential indicates the identifier or primary secret was wrong.
	// Unknown identifiers surface identically to wrong passwords so callers
	// cannot enumerate principals; the audit trail records the real reason.
	ErrInvalidCredential = errors.Wrap(errors.ErrUnauthorized, "invalid credential")

	// ErrInvalidFactor indicates a supplied additional factor failed verification.
	// The whole attempt aborts; there is no partial credit.
	ErrInvalidFactor = errors.Wrap(errors.ErrUnauthorized, "invalid factor")

	// ErrAccountLocked indicates the principal is locked after too many failed attempts.
	ErrAccountLocked = errors.Wrap(errors.ErrLocked, "account locked")

	// ErrFactorVerifierTimeout indicates an external factor verifier did not
	// answer in time. Distinct from ErrInvalidFactor so it is never counted
	// toward the lockout counter.
	ErrFactorVerifierTimeout = errors.Wrap(errors.ErrUnavailable, "factor verifier timeout")
)
