// Package repository implements access rule persistence.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). The resource_type column is unique, so Upsert enforces the
// at-most-one-rule-per-resource invariant at the store level.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
)

// PostgreSQLAccessRuleRepository implements access rule persistence for PostgreSQL.
type PostgreSQLAccessRuleRepository struct {
	db *sql.DB
}

// Upsert creates the rule for a resource type or replaces the existing one.
func (p *PostgreSQLAccessRuleRepository) Upsert(ctx context.Context, rule *policyDomain.AccessRule) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := marshalPermissions(rule.RequiredPermissions)
	if err != nil {
		return err
	}

	query := `INSERT INTO access_rules
			  (id, resource_type, minimum_role, required_permissions,
			   requires_consensus_approval, requires_elevated_approval, sensitivity_level,
			   created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (resource_type) DO UPDATE SET
			      minimum_role = EXCLUDED.minimum_role,
			      required_permissions = EXCLUDED.required_permissions,
			      requires_consensus_approval = EXCLUDED.requires_consensus_approval,
			      requires_elevated_approval = EXCLUDED.requires_elevated_approval,
			      sensitivity_level = EXCLUDED.sensitivity_level,
			      updated_at = EXCLUDED.updated_at`

	_, err = querier.ExecContext(
		ctx,
		query,
		rule.ID,
		rule.ResourceType,
		string(rule.MinimumRole),
		permissionsJSON,
		rule.RequiresConsensusApproval,
		rule.RequiresElevatedApproval,
		rule.SensitivityLevel,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert access rule")
	}

	return nil
}

// GetByResourceType retrieves the rule for a resource type.
// Returns ErrRuleNotFound if none exists.
func (p *PostgreSQLAccessRuleRepository) GetByResourceType(
	ctx context.Context,
	resourceType string,
) (*policyDomain.AccessRule, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, resource_type, minimum_role, required_permissions,
			  requires_consensus_approval, requires_elevated_approval, sensitivity_level,
			  created_at, updated_at
			  FROM access_rules
			  WHERE resource_type = $1`

	rule, err := scanRule(querier.QueryRowContext(ctx, query, resourceType))
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, policyDomain.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get access rule")
	}

	return rule, nil
}

// List retrieves rules ordered by resource type with pagination.
func (p *PostgreSQLAccessRuleRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*policyDomain.AccessRule, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, resource_type, minimum_role, required_permissions,
			  requires_consensus_approval, requires_elevated_approval, sensitivity_level,
			  created_at, updated_at
			  FROM access_rules
			  ORDER BY resource_type
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access rules")
	}
	defer func() {
		_ = rows.Close()
	}()

	rules := make([]*policyDomain.AccessRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access rule")
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate access rules")
	}

	return rules, nil
}

// Delete removes the rule for a resource type, returning the store to the
// fail-closed default for that resource.
func (p *PostgreSQLAccessRuleRepository) Delete(ctx context.Context, resourceType string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM access_rules WHERE resource_type = $1`

	result, err := querier.ExecContext(ctx, query, resourceType)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete access rule")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to count deleted access rules")
	}
	if affected == 0 {
		return policyDomain.ErrRuleNotFound
	}

	return nil
}

// NewPostgreSQLAccessRuleRepository creates a new PostgreSQL access rule repository.
func NewPostgreSQLAccessRuleRepository(db *sql.DB) *PostgreSQLAccessRuleRepository {
	return &PostgreSQLAccessRuleRepository{db: db}
}

func marshalPermissions(permissions []string) ([]byte, error) {
	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal required permissions")
	}
	return permissionsJSON, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(scanner rowScanner) (*policyDomain.AccessRule, error) {
	var rule policyDomain.AccessRule
	var minimumRole string
	var permissionsJSON []byte

	err := scanner.Scan(
		&rule.ID,
		&rule.ResourceType,
		&minimumRole,
		&permissionsJSON,
		&rule.RequiresConsensusApproval,
		&rule.RequiresElevatedApproval,
		&rule.SensitivityLevel,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.MinimumRole = identityDomain.Role(minimumRole)
	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &rule.RequiredPermissions); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal required permissions")
		}
	}

	return &rule, nil
}
