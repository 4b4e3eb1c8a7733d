package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func storedEntry() *auditDomain.Entry {
	return &auditDomain.Entry{
		ID:           uuid.Must(uuid.NewV7()),
		RequestID:    "req-0199",
		PrincipalID:  uuid.Must(uuid.NewV7()),
		ResourceType: "archive",
		Permissions:  []string{"read"},
		Outcome:      auditDomain.AccessGrantedOutcome,
		Reason:       "granted",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestPostgreSQLAuditLogRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_StoreAssignsSeq", func(t *testing.T) {
		db, mock := newMockDB(t)
		entry := storedEntry()

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs")).
			WithArgs(
				entry.ID,
				entry.RequestID,
				entry.PrincipalID,
				entry.ResourceType,
				[]byte(`["read"]`),
				string(entry.Outcome),
				entry.Reason,
				nil,
				entry.CreatedAt,
			).
			WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(41)))

		repo := NewPostgreSQLAuditLogRepository(db)
		err := repo.Create(ctx, entry)

		assert.NoError(t, err)
		assert.Equal(t, int64(41), entry.Seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NilPrincipalStoredAsNull", func(t *testing.T) {
		db, mock := newMockDB(t)
		entry := storedEntry()
		entry.PrincipalID = uuid.Nil
		entry.Outcome = auditDomain.AuthFailureOutcome
		entry.Reason = "identity_not_found"

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs")).
			WithArgs(
				entry.ID,
				entry.RequestID,
				nil,
				entry.ResourceType,
				[]byte(`["read"]`),
				string(entry.Outcome),
				entry.Reason,
				nil,
				entry.CreatedAt,
			).
			WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(42)))

		repo := NewPostgreSQLAuditLogRepository(db)
		err := repo.Create(ctx, entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_MetadataStoredAsJSON", func(t *testing.T) {
		db, mock := newMockDB(t)
		entry := storedEntry()
		entry.Metadata = map[string]any{"attempts": 3}

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs")).
			WithArgs(
				entry.ID,
				entry.RequestID,
				entry.PrincipalID,
				entry.ResourceType,
				[]byte(`["read"]`),
				string(entry.Outcome),
				entry.Reason,
				[]byte(`{"attempts":3}`),
				entry.CreatedAt,
			).
			WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(43)))

		repo := NewPostgreSQLAuditLogRepository(db)
		err := repo.Create(ctx, entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DatabaseFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectedErr := errors.New("connection refused")

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs")).
			WillReturnError(expectedErr)

		repo := NewPostgreSQLAuditLogRepository(db)
		err := repo.Create(ctx, storedEntry())

		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLAuditLogRepository_List(t *testing.T) {
	ctx := context.Background()
	columns := []string{
		"id", "seq", "request_id", "principal_id", "resource_type",
		"permissions", "outcome", "reason", "metadata", "created_at",
	}

	addRow := func(rows *sqlmock.Rows, entry *auditDomain.Entry) *sqlmock.Rows {
		return rows.AddRow(
			entry.ID.String(),
			entry.Seq,
			entry.RequestID,
			entry.PrincipalID.String(),
			entry.ResourceType,
			[]byte(`["read"]`),
			string(entry.Outcome),
			entry.Reason,
			nil,
			entry.CreatedAt,
		)
	}

	t.Run("Success_UnfilteredNewestFirst", func(t *testing.T) {
		db, mock := newMockDB(t)
		newer := storedEntry()
		newer.Seq = 2
		older := storedEntry()
		older.Seq = 1

		rows := sqlmock.NewRows(columns)
		rows = addRow(rows, newer)
		rows = addRow(rows, older)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC LIMIT $1 OFFSET $2")).
			WithArgs(50, 0).
			WillReturnRows(rows)

		repo := NewPostgreSQLAuditLogRepository(db)
		entries, err := repo.List(ctx, 0, 50, ListFilter{})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(2), entries[0].Seq)
		assert.Equal(t, int64(1), entries[1].Seq)
		assert.Equal(t, []string{"read"}, entries[0].Permissions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_FilterPlaceholdersAreNumbered", func(t *testing.T) {
		db, mock := newMockDB(t)
		entry := storedEntry()
		entry.Seq = 7
		from := entry.CreatedAt.Add(-time.Hour)

		filter := ListFilter{
			PrincipalID:   &entry.PrincipalID,
			Outcome:       auditDomain.AccessGrantedOutcome,
			CreatedAtFrom: &from,
		}

		expectedQuery := "WHERE principal_id = $1 AND outcome = $2 AND created_at >= $3 " +
			"ORDER BY seq DESC LIMIT $4 OFFSET $5"
		mock.ExpectQuery(regexp.QuoteMeta(expectedQuery)).
			WithArgs(entry.PrincipalID, string(auditDomain.AccessGrantedOutcome), from, 20, 10).
			WillReturnRows(addRow(sqlmock.NewRows(columns), entry))

		repo := NewPostgreSQLAuditLogRepository(db)
		entries, err := repo.List(ctx, 10, 20, filter)

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(7), entries[0].Seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NullPrincipalScansToNilUUID", func(t *testing.T) {
		db, mock := newMockDB(t)
		entry := storedEntry()
		entry.Seq = 3

		rows := sqlmock.NewRows(columns).AddRow(
			entry.ID.String(),
			entry.Seq,
			entry.RequestID,
			nil,
			entry.ResourceType,
			[]byte(`["read"]`),
			string(entry.Outcome),
			entry.Reason,
			[]byte(`{"attempts":3}`),
			entry.CreatedAt,
		)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC LIMIT $1 OFFSET $2")).
			WithArgs(50, 0).
			WillReturnRows(rows)

		repo := NewPostgreSQLAuditLogRepository(db)
		entries, err := repo.List(ctx, 0, 50, ListFilter{})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, uuid.Nil, entries[0].PrincipalID)
		assert.Equal(t, map[string]any{"attempts": float64(3)}, entries[0].Metadata)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DatabaseFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectedErr := errors.New("connection refused")

		mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs")).
			WillReturnError(expectedErr)

		repo := NewPostgreSQLAuditLogRepository(db)
		entries, err := repo.List(ctx, 0, 50, ListFilter{})

		assert.Nil(t, entries)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
