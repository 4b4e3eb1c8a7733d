package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

// RunCleanAuditLogs deletes audit logs older than the specified number of days.
// The application treats the audit log as append-only, so retention cleanup
// runs raw SQL here instead of going through the repositories. Supports
// dry-run mode to preview the deletion count.
//
// Requirements: Database must be migrated and accessible.
func RunCleanAuditLogs(ctx context.Context, days int, dryRun bool) error {
	// Validate days parameter
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("cleaning audit logs",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	db, err := container.DB()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var count int64
	if dryRun {
		countQuery := "SELECT COUNT(*) FROM audit_logs WHERE created_at < $1"
		if cfg.DBDriver == "mysql" {
			countQuery = "SELECT COUNT(*) FROM audit_logs WHERE created_at < ?"
		}
		if err := db.QueryRowContext(ctx, countQuery, cutoff).Scan(&count); err != nil {
			return fmt.Errorf("failed to count audit logs: %w", err)
		}
		fmt.Printf("Dry-run mode: Would delete %d audit log(s) older than %d day(s)\n", count, days)
	} else {
		deleteQuery := "DELETE FROM audit_logs WHERE created_at < $1"
		if cfg.DBDriver == "mysql" {
			deleteQuery = "DELETE FROM audit_logs WHERE created_at < ?"
		}
		result, err := db.ExecContext(ctx, deleteQuery, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete audit logs: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count deleted audit logs: %w", err)
		}
		fmt.Printf("Successfully deleted %d audit log(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}
