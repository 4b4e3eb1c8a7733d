package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
)

// MySQLAccessRuleRepository implements access rule persistence for MySQL.
// UUIDs are stored as CHAR(36) strings and permissions as a JSON column.
type MySQLAccessRuleRepository struct {
	db *sql.DB
}

// Upsert creates the rule for a resource type or replaces the existing one.
func (m *MySQLAccessRuleRepository) Upsert(ctx context.Context, rule *policyDomain.AccessRule) error {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := marshalPermissions(rule.RequiredPermissions)
	if err != nil {
		return err
	}

	query := `INSERT INTO access_rules
			  (id, resource_type, minimum_role, required_permissions,
			   requires_consensus_approval, requires_elevated_approval, sensitivity_level,
			   created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			      minimum_role = VALUES(minimum_role),
			      required_permissions = VALUES(required_permissions),
			      requires_consensus_approval = VALUES(requires_consensus_approval),
			      requires_elevated_approval = VALUES(requires_elevated_approval),
			      sensitivity_level = VALUES(sensitivity_level),
			      updated_at = VALUES(updated_at)`

	_, err = querier.ExecContext(
		ctx,
		query,
		rule.ID.String(),
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
func (m *MySQLAccessRuleRepository) GetByResourceType(
	ctx context.Context,
	resourceType string,
) (*policyDomain.AccessRule, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, resource_type, minimum_role, required_permissions,
			  requires_consensus_approval, requires_elevated_approval, sensitivity_level,
			  created_at, updated_at
			  FROM access_rules
			  WHERE resource_type = ?`

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
func (m *MySQLAccessRuleRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*policyDomain.AccessRule, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, resource_type, minimum_role, required_permissions,
			  requires_consensus_approval, requires_elevated_approval, sensitivity_level,
			  created_at, updated_at
			  FROM access_rules
			  ORDER BY resource_type
			  LIMIT ? OFFSET ?`

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

// Delete removes the rule for a resource type.
func (m *MySQLAccessRuleRepository) Delete(ctx context.Context, resourceType string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM access_rules WHERE resource_type = ?`

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

// NewMySQLAccessRuleRepository creates a new MySQL access rule repository.
func NewMySQLAccessRuleRepository(db *sql.DB) *MySQLAccessRuleRepository {
	return &MySQLAccessRuleRepository{db: db}
}
