package domain

import (
	"github.com/allisson/gatekeeper/internal/errors"
)

// Policy errors.
var (
	// ErrRuleNotFound indicates no access rule exists for the resource type.
	ErrRuleNotFound = errors.Wrap(errors.ErrNotFound, "access rule not found")
)
