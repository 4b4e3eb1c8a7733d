package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// sessionTokenBytes is the entropy of a bearer session token before encoding.
const sessionTokenBytes = 32

// tokenService issues session bearer tokens and their storable lookup hashes.
type tokenService struct{}

// GenerateToken creates a cryptographically random session token. The plain
// token is base64 URL-encoded and handed to the client exactly once; only the
// SHA-256 hash is persisted, so a leaked session table cannot be replayed.
func (t *tokenService) GenerateToken() (string, string, error) {
	randomBytes := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken := base64.URLEncoding.EncodeToString(randomBytes)

	return plainToken, t.HashToken(plainToken), nil
}

// HashToken maps a plain token to its hex-encoded SHA-256 lookup hash.
func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// NewTokenService creates a new TokenService.
func NewTokenService() TokenService {
	return &tokenService{}
}
