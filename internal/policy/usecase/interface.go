// Package usecase defines business logic interfaces for policy evaluation.
package usecase

import (
	"context"

	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
)

// AccessRuleRepository defines persistence operations for access rules.
// Implementations must support transaction-aware operations via context propagation.
type AccessRuleRepository interface {
	// Upsert creates the rule for a resource type or replaces the existing one.
	Upsert(ctx context.Context, rule *policyDomain.AccessRule) error

	// GetByResourceType retrieves the rule for a resource type.
	// Returns ErrRuleNotFound if none exists.
	GetByResourceType(ctx context.Context, resourceType string) (*policyDomain.AccessRule, error)

	// List retrieves rules ordered by resource type with pagination.
	List(ctx context.Context, offset, limit int) ([]*policyDomain.AccessRule, error)

	// Delete removes the rule for a resource type.
	Delete(ctx context.Context, resourceType string) error
}

// UseCase defines the policy engine.
type UseCase interface {
	// CheckAccess evaluates whether the session behind the token may act on
	// the resource type with the requested permissions.
	//
	// Denials are decisions, not errors; the error return is reserved for
	// infrastructure faults, which the caller must treat as a deny. Every
	// decision is durable in the audit log before it is returned.
	CheckAccess(
		ctx context.Context,
		plainToken string,
		resourceType string,
		requestedPermissions []string,
	) (*policyDomain.Decision, error)
}

// AccessRuleUseCase defines rule administration operations.
type AccessRuleUseCase interface {
	// Upsert creates or replaces the rule for a resource type.
	Upsert(
		ctx context.Context,
		input *policyDomain.UpsertAccessRuleInput,
	) (*policyDomain.UpsertAccessRuleOutput, error)

	// Get retrieves the rule for a resource type.
	Get(ctx context.Context, resourceType string) (*policyDomain.AccessRule, error)

	// List retrieves rules with pagination.
	List(ctx context.Context, offset, limit int) ([]*policyDomain.AccessRule, error)

	// Delete removes the rule for a resource type, restoring the fail-closed
	// default for that resource.
	Delete(ctx context.Context, resourceType string) error
}
