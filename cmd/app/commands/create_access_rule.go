package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"

	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

// RunCreateAccessRule creates or replaces the access rule for a resource type
// from the command line.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAccessRule(
	ctx context.Context,
	resourceType string,
	minimumRoleName string,
	permissionsCSV string,
	requiresConsensus bool,
	requiresElevated bool,
	sensitivityLevel int,
) error {
	minimumRole, ok := identityDomain.ParseRole(minimumRoleName)
	if !ok {
		return fmt.Errorf(
			"invalid minimum role: %s (valid options: guest, member, senior, council, admin)",
			minimumRoleName,
		)
	}

	permissions := parsePermissions(permissionsCSV)

	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	accessRuleUseCase, err := container.AccessRuleUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize access rule use case: %w", err)
	}

	output, err := accessRuleUseCase.Upsert(ctx, &policyDomain.UpsertAccessRuleInput{
		ResourceType:              resourceType,
		MinimumRole:               minimumRole,
		RequiredPermissions:       permissions,
		RequiresConsensusApproval: requiresConsensus,
		RequiresElevatedApproval:  requiresElevated,
		SensitivityLevel:          sensitivityLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert access rule: %w", err)
	}

	logger.Info("access rule upserted",
		slog.String("rule_id", output.ID.String()),
		slog.String("resource_type", resourceType),
		slog.String("minimum_role", string(minimumRole)),
	)

	fmt.Printf("Access rule upserted: %s\n", output.ID.String())
	return nil
}

// parsePermissions splits a comma-separated permission list and trims whitespace.
func parsePermissions(permissionsCSV string) []string {
	if permissionsCSV == "" {
		return nil
	}

	parts := strings.Split(permissionsCSV, ",")
	permissions := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			permissions = append(permissions, trimmed)
		}
	}

	return permissions
}
