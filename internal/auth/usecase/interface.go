// Package usecase defines business logic interfaces for authentication.
package usecase

import (
	"context"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

// UseCase defines the authentication engine.
type UseCase interface {
	// Authenticate verifies the primary credential and every enrolled
	// additional factor, then issues a session.
	//
	// Expected failures are typed: ErrInvalidCredential for an unknown
	// identifier or wrong primary secret (indistinguishable on purpose),
	// ErrAccountLocked while the lockout cooldown runs, ErrInvalidFactor for a
	// mismatched additional factor, and ErrFactorVerifierTimeout when an
	// external verifier does not answer. Missing factors are not a failure:
	// the result carries MFARequiredStatus and the methods still owed.
	Authenticate(
		ctx context.Context,
		input *authDomain.AuthenticateInput,
	) (*authDomain.AuthResult, error)
}
