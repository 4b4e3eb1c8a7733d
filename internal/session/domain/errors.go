package domain

import (
	"github.com/allisson/gatekeeper/internal/errors"
)

// Session errors.
var (
	// ErrSessionNotFound indicates the token does not match a live session.
	// Revoked sessions surface the same way, so a caller cannot distinguish a
	// revoked token from one that never existed.
	ErrSessionNotFound = errors.Wrap(errors.ErrUnauthorized, "session not found")

	// ErrSessionExpired indicates the session's lifetime has passed.
	ErrSessionExpired = errors.Wrap(errors.ErrUnauthorized, "session expired")
)
