// Package usecase implements the policy engine.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
	sessionUseCase "github.com/allisson/gatekeeper/internal/session/usecase"
)

// policyUseCase implements UseCase.
type policyUseCase struct {
	ruleRepo AccessRuleRepository
	sessions sessionUseCase.UseCase
	auditLog auditUseCase.UseCase
}

// CheckAccess evaluates the access request with ordered short-circuit checks:
// session validity, rule existence, role rank, permission coverage, consensus
// gate, elevated gate. The first failed check decides; later checks never run.
//
// The decision — grant or deny — is appended to the audit log before it is
// returned. If the audit write fails, the call fails closed.
func (p *policyUseCase) CheckAccess(
	ctx context.Context,
	plainToken string,
	resourceType string,
	requestedPermissions []string,
) (*policyDomain.Decision, error) {
	session, err := p.sessions.Validate(ctx, plainToken)
	if err != nil {
		switch {
		case apperrors.Is(err, sessionDomain.ErrSessionExpired):
			return p.record(ctx, resourceType, requestedPermissions,
				policyDomain.Denied(uuid.Nil, policyDomain.SessionExpiredReason))
		case apperrors.Is(err, sessionDomain.ErrSessionNotFound):
			return p.record(ctx, resourceType, requestedPermissions,
				policyDomain.Denied(uuid.Nil, policyDomain.InvalidSessionReason))
		default:
			return nil, err
		}
	}

	rule, err := p.ruleRepo.GetByResourceType(ctx, resourceType)
	if err != nil {
		if apperrors.Is(err, policyDomain.ErrRuleNotFound) {
			// No rule means deny, never allow-by-default.
			return p.record(ctx, resourceType, requestedPermissions,
				policyDomain.Denied(session.PrincipalID, policyDomain.NoPolicyReason))
		}
		return nil, err
	}

	if session.Role.Rank() < rule.MinimumRole.Rank() {
		return p.record(ctx, resourceType, requestedPermissions,
			policyDomain.Denied(session.PrincipalID, policyDomain.InsufficientRoleReason))
	}

	if missing := missingPermissions(rule.RequiredPermissions, requestedPermissions); len(missing) > 0 {
		decision := policyDomain.Denied(session.PrincipalID, policyDomain.MissingPermissionsReason)
		decision.MissingPermissions = missing
		return p.record(ctx, resourceType, requestedPermissions, decision)
	}

	if rule.RequiresConsensusApproval && !session.ConsensusVerified {
		return p.record(ctx, resourceType, requestedPermissions,
			policyDomain.Denied(session.PrincipalID, policyDomain.ConsensusApprovalRequiredReason))
	}

	if rule.RequiresElevatedApproval && !session.ElevatedAuthority {
		return p.record(ctx, resourceType, requestedPermissions,
			policyDomain.Denied(session.PrincipalID, policyDomain.ElevatedApprovalRequiredReason))
	}

	return p.record(ctx, resourceType, requestedPermissions,
		policyDomain.Granted(session.PrincipalID, rule.SensitivityLevel))
}

// record appends the decision to the audit log and returns it. An audit write
// failure surfaces as an error, which callers treat as a deny.
func (p *policyUseCase) record(
	ctx context.Context,
	resourceType string,
	requestedPermissions []string,
	decision *policyDomain.Decision,
) (*policyDomain.Decision, error) {
	outcome := auditDomain.AccessDeniedOutcome
	if decision.Allowed {
		outcome = auditDomain.AccessGrantedOutcome
	}

	entry := &auditDomain.Entry{
		PrincipalID:  decision.PrincipalID,
		ResourceType: resourceType,
		Permissions:  requestedPermissions,
		Outcome:      outcome,
		Reason:       string(decision.Reason),
	}
	if len(decision.MissingPermissions) > 0 {
		entry.Metadata = map[string]any{
			"missing_permissions": decision.MissingPermissions,
		}
	}

	if err := p.auditLog.Record(ctx, entry); err != nil {
		return nil, err
	}

	return decision, nil
}

// missingPermissions returns the rule permissions the request did not cover.
// Order follows the rule's permission list so decisions stay deterministic.
func missingPermissions(required, requested []string) []string {
	requestedSet := make(map[string]struct{}, len(requested))
	for _, permission := range requested {
		requestedSet[permission] = struct{}{}
	}

	var missing []string
	for _, permission := range required {
		if _, ok := requestedSet[permission]; !ok {
			missing = append(missing, permission)
		}
	}
	return missing
}

// NewPolicyUseCase creates the policy engine with the provided dependencies.
func NewPolicyUseCase(
	ruleRepo AccessRuleRepository,
	sessions sessionUseCase.UseCase,
	auditLog auditUseCase.UseCase,
) UseCase {
	return &policyUseCase{
		ruleRepo: ruleRepo,
		sessions: sessions,
		auditLog: auditLog,
	}
}
