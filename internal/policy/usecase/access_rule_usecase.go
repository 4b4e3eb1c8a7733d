package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
)

// accessRuleUseCase implements AccessRuleUseCase.
type accessRuleUseCase struct {
	ruleRepo AccessRuleRepository
}

// Upsert creates or replaces the rule for a resource type. The upsert is
// atomic at the store level, so concurrent writers cannot produce two rules
// for the same resource.
func (a *accessRuleUseCase) Upsert(
	ctx context.Context,
	input *policyDomain.UpsertAccessRuleInput,
) (*policyDomain.UpsertAccessRuleOutput, error) {
	resourceType := strings.TrimSpace(input.ResourceType)
	if resourceType == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "resource type is required")
	}
	if !input.MinimumRole.IsValid() {
		return nil, identityDomain.ErrInvalidRole
	}

	now := time.Now().UTC()
	rule := &policyDomain.AccessRule{
		ID:                        uuid.Must(uuid.NewV7()),
		ResourceType:              resourceType,
		MinimumRole:               input.MinimumRole,
		RequiredPermissions:       input.RequiredPermissions,
		RequiresConsensusApproval: input.RequiresConsensusApproval,
		RequiresElevatedApproval:  input.RequiresElevatedApproval,
		SensitivityLevel:          input.SensitivityLevel,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := a.ruleRepo.Upsert(ctx, rule); err != nil {
		return nil, err
	}

	return &policyDomain.UpsertAccessRuleOutput{ID: rule.ID}, nil
}

// Get retrieves the rule for a resource type.
func (a *accessRuleUseCase) Get(
	ctx context.Context,
	resourceType string,
) (*policyDomain.AccessRule, error) {
	return a.ruleRepo.GetByResourceType(ctx, resourceType)
}

// List retrieves rules with pagination.
func (a *accessRuleUseCase) List(
	ctx context.Context,
	offset, limit int,
) ([]*policyDomain.AccessRule, error) {
	return a.ruleRepo.List(ctx, offset, limit)
}

// Delete removes the rule for a resource type.
func (a *accessRuleUseCase) Delete(ctx context.Context, resourceType string) error {
	return a.ruleRepo.Delete(ctx, resourceType)
}

// NewAccessRuleUseCase creates a new AccessRuleUseCase with the provided dependencies.
func NewAccessRuleUseCase(ruleRepo AccessRuleRepository) AccessRuleUseCase {
	return &accessRuleUseCase{ruleRepo: ruleRepo}
}
