// Package domain defines policy domain models.
package domain

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// AccessRule binds a resource type to the requirements for accessing it.
// At most one rule exists per resource type; a resource type without a rule is
// always denied.
type AccessRule struct {
	ID                        uuid.UUID
	ResourceType              string
	MinimumRole               identityDomain.Role
	RequiredPermissions       []string
	RequiresConsensusApproval bool
	RequiresElevatedApproval  bool
	SensitivityLevel          int
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// UpsertAccessRuleInput contains the parameters for creating or replacing the
// rule for a resource type.
type UpsertAccessRuleInput struct {
	ResourceType              string
	MinimumRole               identityDomain.Role
	RequiredPermissions       []string
	RequiresConsensusApproval bool
	RequiresElevatedApproval  bool
	SensitivityLevel          int
}

// UpsertAccessRuleOutput contains the result of an upsert.
type UpsertAccessRuleOutput struct {
	ID uuid.UUID
}
