package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credential stores the secret material a principal enrolled for one method.
// At most one active credential exists per (principal, method); enrolling a
// method again replaces the previous credential atomically. Secret material
// never leaves the authentication engine.
type Credential struct {
	ID          uuid.UUID
	PrincipalID uuid.UUID
	Method      Method
	SecretHash  string // Hashed or provider-opaque secret material, never plaintext
	Verified    bool   // Whether enrollment was confirmed (e.g. first TOTP code seen)
	CreatedAt   time.Time
}

// EnrollCredentialInput contains the parameters for enrolling a credential.
type EnrollCredentialInput struct {
	PrincipalID    uuid.UUID
	Method         Method
	SecretMaterial string // Plaintext secret, hashed before storage
}

// EnrollCredentialOutput contains the result of enrolling a credential.
type EnrollCredentialOutput struct {
	ID uuid.UUID // Unique identifier for the enrolled credential (UUIDv7)
}
