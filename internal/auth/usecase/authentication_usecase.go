// Package usecase implements the authentication engine.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	identityUseCase "github.com/allisson/gatekeeper/internal/identity/usecase"
	sessionUseCase "github.com/allisson/gatekeeper/internal/session/usecase"
)

// Audit reasons for failed attempts. The client never sees these: externally
// an unknown identifier, an inactive principal, and a wrong password all
// surface as ErrInvalidCredential so principals cannot be enumerated.
const (
	reasonIdentityNotFound    = "identity_not_found"
	reasonPrincipalInactive   = "principal_inactive"
	reasonAccountLocked       = "account_locked"
	reasonPasswordNotEnrolled = "password_not_enrolled"
	reasonInvalidPassword     = "invalid_password"
	reasonInvalidFactor       = "invalid_factor"
)

// authenticationUseCase implements UseCase.
type authenticationUseCase struct {
	txManager        database.TxManager
	principalRepo    identityUseCase.PrincipalRepository
	credentialRepo   identityUseCase.CredentialRepository
	verifierRegistry authService.VerifierRegistry
	sessions         sessionUseCase.UseCase
	auditLog         auditUseCase.UseCase
	lockoutThreshold int
	lockoutCooldown  time.Duration
}

// Authenticate runs the full authentication sequence: resolve the principal,
// check the lockout state, verify the primary credential, verify every
// enrolled additional factor, then reset the failed-attempt counter and issue
// a session snapshot.
//
// Only primary-credential mismatches count toward lockout. Invalid factors,
// missing factors, and verifier timeouts leave the counter untouched.
func (a *authenticationUseCase) Authenticate(
	ctx context.Context,
	input *authDomain.AuthenticateInput,
) (*authDomain.AuthResult, error) {
	principal, err := a.principalRepo.GetByName(ctx, input.Identifier)
	if err != nil {
		if apperrors.Is(err, identityDomain.ErrPrincipalNotFound) {
			if err := a.recordRejection(ctx, nil, reasonIdentityNotFound, map[string]any{
				"identifier": input.Identifier,
			}); err != nil {
				return nil, err
			}
			return nil, authDomain.ErrInvalidCredential
		}
		return nil, err
	}

	if !principal.IsActive {
		if err := a.recordRejection(ctx, principal, reasonPrincipalInactive, nil); err != nil {
			return nil, err
		}
		return nil, authDomain.ErrInvalidCredential
	}

	// A locked principal is rejected before any credential check, and the
	// failed-attempt counter stays where it is.
	if principal.IsLocked(time.Now().UTC()) {
		if err := a.recordRejection(ctx, principal, reasonAccountLocked, nil); err != nil {
			return nil, err
		}
		return nil, authDomain.ErrAccountLocked
	}

	ok, err := a.verifyPrimary(ctx, principal, input.PrimarySecret)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := a.registerFailedAttempt(ctx, principal); err != nil {
			return nil, err
		}
		return nil, authDomain.ErrInvalidCredential
	}

	verifiedMethods, missingMethods, err := a.verifyFactors(ctx, principal, input.Factors)
	if err != nil {
		return nil, err
	}
	if len(missingMethods) > 0 {
		return &authDomain.AuthResult{
			Status:         authDomain.MFARequiredStatus,
			MissingMethods: missingMethods,
		}, nil
	}

	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if principal.FailedAttempts > 0 || principal.LockedUntil != nil {
			if err := a.principalRepo.ResetLockout(ctx, principal.ID); err != nil {
				return err
			}
		}
		return a.auditLog.Record(ctx, &auditDomain.Entry{
			PrincipalID: principal.ID,
			Outcome:     auditDomain.AuthSuccessOutcome,
			Metadata: map[string]any{
				"verified_methods": methodNames(verifiedMethods),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	session, plainToken, err := a.sessions.Create(
		ctx, principal, verifiedMethods, input.Origin.IP, input.Origin.UserAgent,
	)
	if err != nil {
		return nil, err
	}

	return &authDomain.AuthResult{
		Status:            authDomain.SuccessStatus,
		SessionID:         session.ID,
		PlainSessionToken: plainToken,
		ExpiresAt:         session.ExpiresAt,
	}, nil
}

// verifyPrimary checks the password against the enrolled primary credential.
// A principal without a password credential is rejected like a wrong password,
// but the attempt is not counted: there is nothing to brute-force.
func (a *authenticationUseCase) verifyPrimary(
	ctx context.Context,
	principal *identityDomain.Principal,
	primarySecret string,
) (bool, error) {
	credential, err := a.credentialRepo.GetByPrincipalAndMethod(
		ctx, principal.ID, identityDomain.PasswordMethod,
	)
	if err != nil {
		if apperrors.Is(err, identityDomain.ErrCredentialNotFound) {
			if err := a.recordRejection(ctx, principal, reasonPasswordNotEnrolled, nil); err != nil {
				return false, err
			}
			return false, authDomain.ErrInvalidCredential
		}
		return false, err
	}

	verifier, ok := a.verifierRegistry.Get(identityDomain.PasswordMethod)
	if !ok {
		return false, apperrors.New("no verifier registered for password method")
	}

	return verifier.Verify(ctx, credential.SecretHash, primarySecret)
}

// verifyFactors checks every enrolled non-password factor for which a proof
// was supplied and collects the ones still owed. A single mismatched proof
// aborts the whole attempt; there is no partial credit.
func (a *authenticationUseCase) verifyFactors(
	ctx context.Context,
	principal *identityDomain.Principal,
	proofs map[identityDomain.Method]string,
) (verified []identityDomain.Method, missing []identityDomain.Method, err error) {
	enrolled, err := a.credentialRepo.ListMethods(ctx, principal.ID)
	if err != nil {
		return nil, nil, err
	}

	verified = []identityDomain.Method{identityDomain.PasswordMethod}

	for _, method := range enrolled {
		if method == identityDomain.PasswordMethod {
			continue
		}

		proof, supplied := proofs[method]
		if !supplied {
			missing = append(missing, method)
			continue
		}

		credential, err := a.credentialRepo.GetByPrincipalAndMethod(ctx, principal.ID, method)
		if err != nil {
			return nil, nil, err
		}

		verifier, ok := a.verifierRegistry.Get(method)
		if !ok {
			return nil, nil, apperrors.Wrap(
				identityDomain.ErrUnsupportedMethod, "no verifier registered for "+string(method),
			)
		}

		ok, err = verifier.Verify(ctx, credential.SecretHash, proof)
		if err != nil {
			if apperrors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, nil, authDomain.ErrFactorVerifierTimeout
			}
			return nil, nil, err
		}
		if !ok {
			if err := a.recordRejection(ctx, principal, reasonInvalidFactor, map[string]any{
				"method": string(method),
			}); err != nil {
				return nil, nil, err
			}
			return nil, nil, authDomain.ErrInvalidFactor
		}

		verified = append(verified, method)
	}

	return verified, missing, nil
}

// registerFailedAttempt counts a primary-credential mismatch, locking the
// principal when the threshold is reached. The counter update and the audit
// record commit atomically, so a cancelled request cannot count an attempt
// without its audit entry or vice versa.
func (a *authenticationUseCase) registerFailedAttempt(
	ctx context.Context,
	principal *identityDomain.Principal,
) error {
	lockedUntil := time.Now().UTC().Add(a.lockoutCooldown)

	return a.txManager.WithTx(ctx, func(ctx context.Context) error {
		attempts, locked, err := a.principalRepo.RegisterFailedAttempt(
			ctx, principal.ID, a.lockoutThreshold, lockedUntil,
		)
		if err != nil {
			return err
		}

		outcome := auditDomain.AuthFailureOutcome
		if locked {
			outcome = auditDomain.AccountLockedOutcome
		}

		return a.auditLog.Record(ctx, &auditDomain.Entry{
			PrincipalID: principal.ID,
			Outcome:     outcome,
			Reason:      reasonInvalidPassword,
			Metadata: map[string]any{
				"failed_attempts": attempts,
			},
		})
	})
}

// recordRejection audits a rejected attempt that does not touch the lockout
// counter. The audit write must land before the rejection is returned.
func (a *authenticationUseCase) recordRejection(
	ctx context.Context,
	principal *identityDomain.Principal,
	reason string,
	metadata map[string]any,
) error {
	entry := &auditDomain.Entry{
		Outcome:  auditDomain.AuthFailureOutcome,
		Reason:   reason,
		Metadata: metadata,
	}
	if principal != nil {
		entry.PrincipalID = principal.ID
	}

	return a.auditLog.Record(ctx, entry)
}

func methodNames(methods []identityDomain.Method) []string {
	names := make([]string, 0, len(methods))
	for _, method := range methods {
		names = append(names, string(method))
	}
	return names
}

// NewAuthenticationUseCase creates the authentication engine with the provided
// dependencies.
func NewAuthenticationUseCase(
	txManager database.TxManager,
	principalRepo identityUseCase.PrincipalRepository,
	credentialRepo identityUseCase.CredentialRepository,
	verifierRegistry authService.VerifierRegistry,
	sessions sessionUseCase.UseCase,
	auditLog auditUseCase.UseCase,
	lockoutThreshold int,
	lockoutCooldown time.Duration,
) UseCase {
	return &authenticationUseCase{
		txManager:        txManager,
		principalRepo:    principalRepo,
		credentialRepo:   credentialRepo,
		verifierRegistry: verifierRegistry,
		sessions:         sessions,
		auditLog:         auditLog,
		lockoutThreshold: lockoutThreshold,
		lockoutCooldown:  lockoutCooldown,
	}
}
