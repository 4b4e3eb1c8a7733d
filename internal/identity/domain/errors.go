package domain

import (
	"github.com/allisson/gatekeeper/internal/errors"
)

// Identity errors.
var (
	// ErrPrincipalNotFound indicates a principal with the specified ID or name was not found.
	ErrPrincipalNotFound = errors.Wrap(errors.ErrNotFound, "principal not found")

	// ErrCredentialNotFound indicates no credential exists for the (principal, method) pair.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")

	// ErrDuplicateIdentity indicates a principal with the same identifying name already exists.
	ErrDuplicateIdentity = errors.Wrap(errors.ErrConflict, "duplicate identity")

	// ErrUnsupportedMethod indicates the authentication method is not enabled for the principal's role.
	ErrUnsupportedMethod = errors.Wrap(errors.ErrInvalidInput, "unsupported authentication method")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")
)
