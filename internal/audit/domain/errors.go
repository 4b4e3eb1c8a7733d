package domain

import (
	"github.com/allisson/gatekeeper/internal/errors"
)

// Audit errors.
var (
	// ErrInvalidOutcome indicates an unknown outcome value.
	ErrInvalidOutcome = errors.Wrap(errors.ErrInvalidInput, "invalid audit outcome")
)
