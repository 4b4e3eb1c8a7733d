package commands

import (
	"context"
	"fmt"
	"log/slog"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"

	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

// RunCreatePrincipal registers a new principal from the command line.
// Prints the assigned principal ID on success.
//
// Requirements: Database must be migrated and accessible.
func RunCreatePrincipal(ctx context.Context, name, roleName string, elevated bool) error {
	role, ok := identityDomain.ParseRole(roleName)
	if !ok {
		return fmt.Errorf("invalid role: %s (valid options: guest, member, senior, council, admin)", roleName)
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

	output, err := principalUseCase.Register(ctx, &identityDomain.RegisterPrincipalInput{
		Name:              name,
		Role:              role,
		ElevatedAuthority: elevated,
	})
	if err != nil {
		return fmt.Errorf("failed to register principal: %w", err)
	}

	logger.Info("principal registered",
		slog.String("principal_id", output.ID.String()),
		slog.String("role", string(role)),
		slog.Bool("elevated_authority", elevated),
	)

	fmt.Printf("Principal registered: %s\n", output.ID.String())
	return nil
}
