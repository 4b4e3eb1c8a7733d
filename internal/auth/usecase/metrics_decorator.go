package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/metrics"
)

// useCaseWithMetrics decorates UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps the authentication engine with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Authenticate records metrics for authentication attempts. Typed rejections
// (wrong credential, locked account, invalid factor) count as "error" like
// infrastructure faults; the audit log carries the distinction.
func (u *useCaseWithMetrics) Authenticate(
	ctx context.Context,
	input *authDomain.AuthenticateInput,
) (*authDomain.AuthResult, error) {
	start := time.Now()
	result, err := u.next.Authenticate(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "auth", "authenticate", status)
	u.metrics.RecordDuration(ctx, "auth", "authenticate", time.Since(start), status)

	return result, err
}
