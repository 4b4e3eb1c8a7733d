package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

// RunCleanExpiredSessions deletes expired sessions from the session store.
// The server runs the same purge periodically through the sweeper; this
// command exists for manual or cron-driven cleanup.
//
// Requirements: The session store must be accessible.
func RunCleanExpiredSessions(ctx context.Context) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	sessionUseCase, err := container.SessionUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize session use case: %w", err)
	}

	deleted, err := sessionUseCase.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	logger.Info("expired sessions deleted", slog.Int64("count", deleted))

	fmt.Printf("Deleted %d expired session(s)\n", deleted)
	return nil
}
