// Package usecase defines business logic interfaces for the audit log.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditRepository "github.com/allisson/gatekeeper/internal/audit/repository"
)

// EntryRepository defines append-only persistence for audit entries.
// Implementations must support transaction-aware operations via context propagation.
type EntryRepository interface {
	// Create appends a new entry and assigns its sequence number.
	Create(ctx context.Context, entry *auditDomain.Entry) error

	// List retrieves entries newest-first with pagination and optional filters.
	List(
		ctx context.Context,
		offset, limit int,
		filter auditRepository.ListFilter,
	) ([]*auditDomain.Entry, error)
}

// UseCase records and queries audit entries.
//
// Record is invoked synchronously by the authentication and policy engines
// before their calls return, so every decision is durable before the caller
// observes it.
type UseCase interface {
	// Record appends one entry. The entry's identifier and timestamp are
	// assigned here; callers provide everything else.
	Record(ctx context.Context, input *auditDomain.Entry) error

	// List retrieves entries for the read-only reporting interface.
	List(
		ctx context.Context,
		offset, limit int,
		filter auditRepository.ListFilter,
	) ([]*auditDomain.Entry, error)
}
