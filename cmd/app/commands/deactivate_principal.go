package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

// RunDeactivatePrincipal deactivates a principal (soft delete). The record is
// preserved for the audit trail; only the active flag flips.
//
// Requirements: Database must be migrated and accessible.
func RunDeactivatePrincipal(ctx context.Context, principalIDStr string) error {
	principalID, err := uuid.Parse(principalIDStr)
	if err != nil {
		return fmt.Errorf("invalid principal id: %w", err)
	}

	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	principalUseCase, err := container.PrincipalUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize principal use case: %w", err)
	}

	if err := principalUseCase.Deactivate(ctx, principalID); err != nil {
		return fmt.Errorf("failed to deactivate principal: %w", err)
	}

	logger.Info("principal deactivated", slog.String("principal_id", principalID.String()))

	fmt.Printf("Principal deactivated: %s\n", principalID.String())
	return nil
}
