// Package usecase implements business logic orchestration for the audit log.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditRepository "github.com/allisson/gatekeeper/internal/audit/repository"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// auditLogUseCase implements UseCase for recording and querying audit entries.
type auditLogUseCase struct {
	entryRepo EntryRepository
}

// Record appends one audit entry. Generates a UUIDv7 identifier and UTC
// timestamp; rejects unknown outcomes so malformed events never reach the store.
func (a *auditLogUseCase) Record(ctx context.Context, input *auditDomain.Entry) error {
	if !input.Outcome.IsValid() {
		return auditDomain.ErrInvalidOutcome
	}

	input.ID = uuid.Must(uuid.NewV7())
	input.CreatedAt = time.Now().UTC()
	if input.RequestID == "" {
		input.RequestID = RequestIDFromContext(ctx)
	}

	if err := a.entryRepo.Create(ctx, input); err != nil {
		return apperrors.Wrap(err, "failed to record audit entry")
	}

	return nil
}

// List retrieves audit entries ordered newest-first with pagination and
// optional principal/outcome/time filters. Returns an empty slice when no
// entries match.
func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	filter auditRepository.ListFilter,
) ([]*auditDomain.Entry, error) {
	entries, err := a.entryRepo.List(ctx, offset, limit, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}

	return entries, nil
}

// NewAuditLogUseCase creates a new audit log UseCase with the provided dependencies.
func NewAuditLogUseCase(entryRepo EntryRepository) UseCase {
	return &auditLogUseCase{
		entryRepo: entryRepo,
	}
}
