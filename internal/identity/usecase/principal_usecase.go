// Package usecase implements business logic orchestration for identity operations.
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	"github.com/allisson/gatekeeper/internal/database"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// principalUseCase implements PrincipalUseCase.
type principalUseCase struct {
	txManager     database.TxManager
	principalRepo PrincipalRepository
	auditLog      auditUseCase.UseCase
}

// Register creates a new principal with an empty lockout state.
// Registration and its audit record commit atomically.
func (p *principalUseCase) Register(
	ctx context.Context,
	input *identityDomain.RegisterPrincipalInput,
) (*identityDomain.RegisterPrincipalOutput, error) {
	if !input.Role.IsValid() {
		return nil, identityDomain.ErrInvalidRole
	}

	principal := &identityDomain.Principal{
		ID:                uuid.Must(uuid.NewV7()),
		Name:              strings.TrimSpace(input.Name),
		Role:              input.Role,
		ElevatedAuthority: input.ElevatedAuthority,
		IsActive:          true,
		FailedAttempts:    0,
		LockedUntil:       nil,
		CreatedAt:         time.Now().UTC(),
	}

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := p.principalRepo.Create(ctx, principal); err != nil {
			return err
		}
		return p.auditLog.Record(ctx, &auditDomain.Entry{
			PrincipalID: principal.ID,
			Outcome:     auditDomain.PrincipalRegisteredOutcome,
			Metadata: map[string]any{
				"role":               string(principal.Role),
				"elevated_authority": principal.ElevatedAuthority,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return &identityDomain.RegisterPrincipalOutput{ID: principal.ID}, nil
}

// Get retrieves a principal by ID.
func (p *principalUseCase) Get(
	ctx context.Context,
	principalID uuid.UUID,
) (*identityDomain.Principal, error) {
	return p.principalRepo.Get(ctx, principalID)
}

// Deactivate performs a soft delete by setting IsActive to false, preventing
// authentication while preserving the record. Existing sessions are immutable
// snapshots and are unaffected until they expire.
func (p *principalUseCase) Deactivate(ctx context.Context, principalID uuid.UUID) error {
	principal, err := p.principalRepo.Get(ctx, principalID)
	if err != nil {
		return err
	}

	principal.IsActive = false
	return p.principalRepo.Update(ctx, principal)
}

// Unlock administratively clears the lockout state. This is the only manual
// Locked to Active transition; the automatic one happens when LockedUntil passes.
func (p *principalUseCase) Unlock(ctx context.Context, principalID uuid.UUID) error {
	principal, err := p.principalRepo.Get(ctx, principalID)
	if err != nil {
		return err
	}

	return p.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := p.principalRepo.ResetLockout(ctx, principal.ID); err != nil {
			return err
		}
		return p.auditLog.Record(ctx, &auditDomain.Entry{
			PrincipalID: principal.ID,
			Outcome:     auditDomain.PrincipalUnlockedOutcome,
		})
	})
}

// NewPrincipalUseCase creates a new PrincipalUseCase with the provided dependencies.
func NewPrincipalUseCase(
	txManager database.TxManager,
	principalRepo PrincipalRepository,
	auditLog auditUseCase.UseCase,
) PrincipalUseCase {
	return &principalUseCase{
		txManager:     txManager,
		principalRepo: principalRepo,
		auditLog:      auditLog,
	}
}
