package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// MySQLAuditLogRepository implements audit Entry persistence for MySQL.
// The seq column is AUTO_INCREMENT, so sequence numbers increase monotonically.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// Create appends a new Entry. The store assigns Seq; it is written back to the entry.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}
	permissionsJSON, err := json.Marshal(entry.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit permissions")
	}

	var principalID any
	if entry.PrincipalID != uuid.Nil {
		principalID = entry.PrincipalID.String()
	}

	query := `INSERT INTO audit_logs
			  (id, request_id, principal_id, resource_type, permissions, outcome, reason, metadata, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.ID.String(),
		entry.RequestID,
		principalID,
		entry.ResourceType,
		permissionsJSON,
		string(entry.Outcome),
		entry.Reason,
		metadataJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read audit log sequence")
	}
	entry.Seq = seq

	return nil
}

// List retrieves audit entries ordered by seq descending (newest first) with
// pagination and optional principal/outcome/time filters.
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter ListFilter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any

	if filter.PrincipalID != nil {
		conditions = append(conditions, "principal_id = ?")
		args = append(args, filter.PrincipalID.String())
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.CreatedAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.CreatedAtFrom)
	}
	if filter.CreatedAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.CreatedAtTo)
	}

	query := `SELECT id, seq, request_id, principal_id, resource_type, permissions, outcome, reason, metadata, created_at
			  FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanMySQLEntry(rows)
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

// NewMySQLAuditLogRepository creates a new MySQL audit log repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

func scanMySQLEntry(scanner rowScanner) (*auditDomain.Entry, error) {
	var entry auditDomain.Entry
	var id string
	var principalID sql.NullString
	var permissionsJSON, metadataJSON []byte
	var outcome string

	err := scanner.Scan(
		&id,
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

	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse audit log id")
	}
	entry.ID = entryID

	if principalID.Valid {
		parsed, err := uuid.Parse(principalID.String)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit principal id")
		}
		entry.PrincipalID = parsed
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
