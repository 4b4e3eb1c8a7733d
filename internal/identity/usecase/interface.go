// Package usecase defines business logic interfaces for identity operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// PrincipalRepository defines persistence operations for principals.
// Implementations must support transaction-aware operations via context propagation.
type PrincipalRepository interface {
	// Create stores a new principal. Returns ErrDuplicateIdentity on name collision.
	Create(ctx context.Context, principal *identityDomain.Principal) error

	// Update modifies an existing principal.
	Update(ctx context.Context, principal *identityDomain.Principal) error

	// Get retrieves a principal by ID. Returns ErrPrincipalNotFound if not found.
	Get(ctx context.Context, principalID uuid.UUID) (*identityDomain.Principal, error)

	// GetByName retrieves a principal by its identifying name.
	GetByName(ctx context.Context, name string) (*identityDomain.Principal, error)

	// RegisterFailedAttempt atomically increments the failed-attempt counter
	// and locks the principal when the threshold is reached. Returns the
	// post-increment counter and whether the principal is now locked.
	RegisterFailedAttempt(
		ctx context.Context,
		principalID uuid.UUID,
		threshold int,
		lockedUntil time.Time,
	) (attempts int, locked bool, err error)

	// ResetLockout clears the failed-attempt counter and the lock timestamp.
	ResetLockout(ctx context.Context, principalID uuid.UUID) error
}

// CredentialRepository defines persistence operations for credentials.
// Implementations must support transaction-aware operations via context propagation.
type CredentialRepository interface {
	// Upsert stores a credential, atomically replacing any existing
	// credential for the same (principal, method) pair.
	Upsert(ctx context.Context, credential *identityDomain.Credential) error

	// GetByPrincipalAndMethod retrieves the credential enrolled for a method.
	// Returns ErrCredentialNotFound if the method is not enrolled.
	GetByPrincipalAndMethod(
		ctx context.Context,
		principalID uuid.UUID,
		method identityDomain.Method,
	) (*identityDomain.Credential, error)

	// ListMethods returns the methods the principal has enrolled.
	ListMethods(ctx context.Context, principalID uuid.UUID) ([]identityDomain.Method, error)
}

// SecretHasher hashes and verifies primary-credential secret material.
// The authentication service provides the argon2id implementation.
type SecretHasher interface {
	// HashSecret hashes plaintext secret material for storage.
	HashSecret(plainSecret string) (hashedSecret string, err error)
}

// PrincipalUseCase defines business logic operations for principal lifecycle.
type PrincipalUseCase interface {
	// Register creates a new principal. Fails with ErrDuplicateIdentity when
	// the identifying name is taken and ErrInvalidRole for unknown roles.
	Register(
		ctx context.Context,
		input *identityDomain.RegisterPrincipalInput,
	) (*identityDomain.RegisterPrincipalOutput, error)

	// Get retrieves a principal by ID.
	Get(ctx context.Context, principalID uuid.UUID) (*identityDomain.Principal, error)

	// Deactivate performs a soft delete by setting IsActive to false.
	// The principal record is preserved for the audit trail.
	Deactivate(ctx context.Context, principalID uuid.UUID) error

	// Unlock administratively transitions a locked principal back to active,
	// clearing the failed-attempt counter.
	Unlock(ctx context.Context, principalID uuid.UUID) error
}

// CredentialUseCase defines business logic operations for credential enrollment.
type CredentialUseCase interface {
	// Enroll stores a credential for the principal, replacing any existing
	// credential of the same method. Fails with ErrUnsupportedMethod when the
	// method is not enabled for the principal's role.
	Enroll(
		ctx context.Context,
		input *identityDomain.EnrollCredentialInput,
	) (*identityDomain.EnrollCredentialOutput, error)

	// EnabledMethods returns the methods the principal's role may enroll.
	EnabledMethods(role identityDomain.Role) []identityDomain.Method
}
