package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// secretService hashes credential secrets with Argon2id. The same service
// covers every enrollable method: passwords, TOTP seeds, and provider
// references are all stored as hashes or opaque digests, never as plaintext.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// HashSecret derives an Argon2id hash from the plain secret material.
func (s *secretService) HashSecret(plainSecret string) (string, error) {
	hashed, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashed, nil
}

// CompareSecret verifies the plain secret against a stored hash in constant
// time. Any verification error counts as a mismatch.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

// NewSecretService creates a SecretService with the Moderate Argon2id policy,
// balancing verification latency on the login path against hardening.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// Only reachable with an invalid policy constant.
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}
