package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditRepository "github.com/allisson/gatekeeper/internal/audit/repository"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// mockAuditUseCase is a mock implementation of the audit use case for testing.
type mockAuditUseCase struct {
	mock.Mock
}

func (m *mockAuditUseCase) Record(ctx context.Context, input *auditDomain.Entry) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockAuditUseCase) List(
	ctx context.Context,
	offset, limit int,
	filter auditRepository.ListFilter,
) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, offset, limit, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestLogger creates a test logger that discards output.
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupAuditRouter(auditLog *mockAuditUseCase) *gin.Engine {
	handler := NewAuditLogHandler(auditLog, createTestLogger())

	router := gin.New()
	router.GET("/v1/audit-logs", handler.ListHandler)

	return router
}

func grantedEntry() *auditDomain.Entry {
	return &auditDomain.Entry{
		ID:           uuid.Must(uuid.NewV7()),
		Seq:          41,
		RequestID:    "req-0199",
		PrincipalID:  uuid.Must(uuid.NewV7()),
		ResourceType: "archive",
		Permissions:  []string{"read"},
		Outcome:      auditDomain.AccessGrantedOutcome,
		Reason:       "granted",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestAuditLogHandler_ListHandler(t *testing.T) {
	t.Run("Success_UnfilteredList", func(t *testing.T) {
		// Setup mocks
		mockAuditLog := &mockAuditUseCase{}
		entry := grantedEntry()

		// Setup expectations
		mockAuditLog.On("List", mock.Anything, 0, 50, auditRepository.ListFilter{}).
			Return([]*auditDomain.Entry{entry}, nil).
			Once()

		// Execute
		router := setupAuditRouter(mockAuditLog)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs", nil)
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			AuditLogs []EntryResponse `json:"audit_logs"`
			Offset    int             `json:"offset"`
			Limit     int             `json:"limit"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.AuditLogs, 1)
		assert.Equal(t, entry.ID.String(), response.AuditLogs[0].ID)
		assert.Equal(t, int64(41), response.AuditLogs[0].Seq)
		assert.Equal(t, "access_granted", response.AuditLogs[0].Outcome)
		assert.Equal(t, 0, response.Offset)
		assert.Equal(t, 50, response.Limit)
		mockAuditLog.AssertExpectations(t)
	})

	t.Run("Success_FilteredList", func(t *testing.T) {
		// Setup mocks
		mockAuditLog := &mockAuditUseCase{}
		principalID := uuid.Must(uuid.NewV7())
		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		// Setup expectations
		mockAuditLog.On("List", mock.Anything, 10, 20, mock.MatchedBy(func(filter auditRepository.ListFilter) bool {
			return filter.PrincipalID != nil && *filter.PrincipalID == principalID &&
				filter.Outcome == auditDomain.AuthFailureOutcome &&
				filter.CreatedAtFrom != nil && filter.CreatedAtFrom.Equal(from)
		})).
			Return([]*auditDomain.Entry{}, nil).
			Once()

		// Execute
		router := setupAuditRouter(mockAuditLog)
		w := httptest.NewRecorder()
		query := url.Values{}
		query.Set("offset", "10")
		query.Set("limit", "20")
		query.Set("principal_id", principalID.String())
		query.Set("outcome", "auth_failure")
		query.Set("created_at_from", from.Format(time.RFC3339))
		req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs?"+query.Encode(), nil)
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
		mockAuditLog.AssertExpectations(t)
	})

	t.Run("Success_AnonymousEntryOmitsPrincipalID", func(t *testing.T) {
		// Setup mocks
		mockAuditLog := &mockAuditUseCase{}
		entry := grantedEntry()
		entry.PrincipalID = uuid.Nil
		entry.Outcome = auditDomain.AuthFailureOutcome
		entry.Reason = "identity_not_found"

		// Setup expectations
		mockAuditLog.On("List", mock.Anything, 0, 50, auditRepository.ListFilter{}).
			Return([]*auditDomain.Entry{entry}, nil).
			Once()

		// Execute
		router := setupAuditRouter(mockAuditLog)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs", nil)
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), `"principal_id"`)
		mockAuditLog.AssertExpectations(t)
	})

	t.Run("Error_InvalidPrincipalID", func(t *testing.T) {
		// Setup mocks
		mockAuditLog := &mockAuditUseCase{}

		// Execute
		router := setupAuditRouter(mockAuditLog)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs?principal_id=not-a-uuid", nil)
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockAuditLog.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_UnknownOutcome", func(t *testing.T) {
		// Setup mocks
		mockAuditLog := &mockAuditUseCase{}

		// Execute
		router := setupAuditRouter(mockAuditLog)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs?outcome=coffee_break", nil)
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockAuditLog.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidTimestamp", func(t *testing.T) {
		// Setup mocks
		mockAuditLog := &mockAuditUseCase{}

		// Execute
		router := setupAuditRouter(mockAuditLog)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs?created_at_from=yesterday", nil)
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockAuditLog.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		// Setup mocks
		mockAuditLog := &mockAuditUseCase{}

		// Setup expectations
		mockAuditLog.On("List", mock.Anything, 0, 50, auditRepository.ListFilter{}).
			Return(nil, apperrors.Wrap(apperrors.ErrUnavailable, "audit store unavailable")).
			Once()

		// Execute
		router := setupAuditRouter(mockAuditLog)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/audit-logs", nil)
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		mockAuditLog.AssertExpectations(t)
	})
}
