package usecase

import (
	"context"
	"time"

	"github.com/allisson/gatekeeper/internal/metrics"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
)

// useCaseWithMetrics decorates the policy engine with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps the policy engine with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CheckAccess records metrics for access checks. Denials are decisions, not
// errors, so they count as "success" with the reason as a separate label
// through the denied counter below.
func (u *useCaseWithMetrics) CheckAccess(
	ctx context.Context,
	plainToken string,
	resourceType string,
	requestedPermissions []string,
) (*policyDomain.Decision, error) {
	start := time.Now()
	decision, err := u.next.CheckAccess(ctx, plainToken, resourceType, requestedPermissions)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "policy", "check_access", status)
	u.metrics.RecordDuration(ctx, "policy", "check_access", time.Since(start), status)

	if err == nil && !decision.Allowed {
		u.metrics.RecordOperation(ctx, "policy", "check_access_denied", string(decision.Reason))
	}

	return decision, err
}
