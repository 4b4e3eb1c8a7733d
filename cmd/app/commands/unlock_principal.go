package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

// RunUnlockPrincipal administratively unlocks a locked principal, clearing the
// failed-attempt counter.
//
// Requirements: Database must be migrated and accessible.
func RunUnlockPrincipal(ctx context.Context, principalIDStr string) error {
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

	if err := principalUseCase.Unlock(ctx, principalID); err != nil {
		return fmt.Errorf("failed to unlock principal: %w", err)
	}

	logger.Info("principal unlocked", slog.String("principal_id", principalID.String()))

	fmt.Printf("Principal unlocked: %s\n", principalID.String())
	return nil
}
