// Package repository implements append-only persistence for audit entries.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). The repositories expose Create and read queries only;
// there is no update or delete API (retention cleanup runs raw SQL through
// the clean-audit-logs command).
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// ListFilter narrows audit queries for the read-only reporting interface.
// Nil/zero fields mean "no filter". Time boundaries are inclusive.
type ListFilter struct {
	PrincipalID   *uuid.UUID
	Outcome       auditDomain.Outcome
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// PostgreSQLAuditLogRepository implements audit Entry persistence for PostgreSQL.
// The seq column is a BIGSERIAL, so sequence numbers increase monotonically.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// Create appends a new Entry. The store assigns Seq; it is written back to the entry.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}
	permissionsJSON, err := json.Marshal(entry.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit permissions")
	}

	query := `INSERT INTO audit_logs
			  (id, request_id, principal_id, resource_type, permissions, outcome, reason, metadata, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING seq`

	err = querier.QueryRowContext(
		ctx,
		query,
		entry.ID,
		entry.RequestID,
		nullableUUID(entry.PrincipalID),
		entry.ResourceType,
		permissionsJSON,
		string(entry.Outcome),
		entry.Reason,
		metadataJSON,
		entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// List retrieves audit entries ordered by seq descending (newest first) with
// pagination and optional principal/outcome/time filters.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter ListFilter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any

	appendCondition := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, strings.Replace(condition, "?", placeholder(len(args)), 1))
	}

	if filter.PrincipalID != nil {
		appendCondition("principal_id = ?", *filter.PrincipalID)
	}
	if filter.Outcome != "" {
		appendCondition("outcome = ?", string(filter.Outcome))
	}
	if filter.CreatedAtFrom != nil {
		appendCondition("created_at >= ?", *filter.CreatedAtFrom)
	}
	if filter.CreatedAtTo != nil {
		appendCondition("created_at <= ?", *filter.CreatedAtTo)
	}

	query := `SELECT id, seq, request_id, principal_id, resource_type, permissions, outcome, reason, metadata, created_at
			  FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += " ORDER BY seq DESC LIMIT " + placeholder(len(args))
	args = append(args, offset)
	query += " OFFSET " + placeholder(len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return entries, nil
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL audit log repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// placeholder returns the PostgreSQL positional placeholder for the nth argument.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// marshalMetadata handles nil metadata as database NULL.
func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log metadata")
	}
	return metadataJSON, nil
}

// nullableUUID maps uuid.Nil to database NULL.
func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(scanner rowScanner) (*auditDomain.Entry, error) {
	var entry auditDomain.Entry
	var principalID sql.Null[uuid.UUID]
	var permissionsJSON, metadataJSON []byte
	var outcome string

	err := scanner.Scan(
		&entry.ID,
		&entry.Seq,
		&entry.RequestID,
		&principalID,
		&entry.ResourceType,
		&permissionsJSON,
		&outcome,
		&entry.Reason,
		&metadataJSON,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit log")
	}

	if principalID.Valid {
		entry.PrincipalID = principalID.V
	}
	entry.Outcome = auditDomain.Outcome(outcome)

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &entry.Permissions); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit permissions")
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log metadata")
		}
	}

	return &entry, nil
}
