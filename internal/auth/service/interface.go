// Package service provides technical services for authentication operations.
//
// This package implements reusable services for secret hashing, session token
// generation, and per-method factor verification using industry-standard
// cryptographic practices.
package service

import (
	"context"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// SecretService defines operations for primary-credential secret hashing and
// validation. Implementations must use industry-standard password hashing
// algorithms (e.g., bcrypt, argon2).
type SecretService interface {
	// HashSecret hashes a plain text secret using a secure hashing algorithm.
	HashSecret(plainSecret string) (hashedSecret string, error error)

	// CompareSecret compares a plain text secret against a hashed secret.
	// Returns true if the plain secret matches the hash, false otherwise.
	// This is constant-time to prevent timing attacks.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// TokenService defines operations for session token generation and hashing.
// Implementations must use cryptographically secure random generation and
// fast hashing algorithms suitable for opaque bearer tokens (e.g., SHA-256).
type TokenService interface {
	// GenerateToken creates a new cryptographically secure random token.
	// Returns both the plain text token (to be shared with the caller exactly
	// once) and the hashed version (to be stored).
	GenerateToken() (plainToken string, tokenHash string, error error)

	// HashToken hashes a plain text token using SHA-256.
	// Used for token validation by comparing hashes.
	HashToken(plainToken string) string
}

// Verifier checks a proof against the secret material enrolled for one
// authentication method.
//
// The boolean result reports whether the proof matched; the error is reserved
// for infrastructure faults (unreachable provider, timeout). A mismatched
// proof is (false, nil), never an error.
type Verifier interface {
	Verify(ctx context.Context, secretMaterial string, proof string) (bool, error)
}

// RemoteFactorProvider verifies factor proofs through an external system, such
// as an SMS gateway checking a delivered one-time code or a device attestation
// service checking a biometric assertion.
type RemoteFactorProvider interface {
	VerifyProof(ctx context.Context, enrolledMaterial string, proof string) (bool, error)
}

// VerifierRegistry dispatches factor verification to the Verifier registered
// for each method.
type VerifierRegistry interface {
	// Get returns the verifier for the method, or false if none is registered.
	Get(method identityDomain.Method) (Verifier, bool)
}
