// Package http provides the read-only reporting interface over the audit log.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditRepository "github.com/allisson/gatekeeper/internal/audit/repository"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	"github.com/allisson/gatekeeper/internal/httputil"
)

// AuditLogHandler handles HTTP requests for audit log queries.
// The audit log has no write endpoints; entries only appear through the
// authentication and policy engines.
type AuditLogHandler struct {
	auditLog auditUseCase.UseCase
	logger   *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler.
func NewAuditLogHandler(auditLog auditUseCase.UseCase, logger *slog.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		auditLog: auditLog,
		logger:   logger,
	}
}

// EntryResponse represents an audit entry in API responses.
type EntryResponse struct {
	ID           string         `json:"id"`
	Seq          int64          `json:"seq"`
	RequestID    string         `json:"request_id,omitempty"`
	PrincipalID  string         `json:"principal_id,omitempty"`
	ResourceType string         `json:"resource_type,omitempty"`
	Permissions  []string       `json:"permissions,omitempty"`
	Outcome      string         `json:"outcome"`
	Reason       string         `json:"reason"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// mapEntryToResponse converts a domain audit entry to an API response.
func mapEntryToResponse(entry *auditDomain.Entry) EntryResponse {
	resp := EntryResponse{
		ID:           entry.ID.String(),
		Seq:          entry.Seq,
		RequestID:    entry.RequestID,
		ResourceType: entry.ResourceType,
		Permissions:  entry.Permissions,
		Outcome:      string(entry.Outcome),
		Reason:       entry.Reason,
		Metadata:     entry.Metadata,
		CreatedAt:    entry.CreatedAt,
	}
	if entry.PrincipalID != uuid.Nil {
		resp.PrincipalID = entry.PrincipalID.String()
	}
	return resp
}

// ListHandler retrieves audit entries newest-first with optional filters.
// GET /v1/audit-logs?principal_id=&outcome=&created_at_from=&created_at_to= - Admin only.
// Time boundaries are inclusive RFC 3339 timestamps.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	entries, err := h.auditLog.List(c.Request.Context(), offset, limit, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": responses,
		"offset":     offset,
		"limit":      limit,
	})
}

// parseListFilter builds the repository filter from query parameters.
func parseListFilter(c *gin.Context) (auditRepository.ListFilter, error) {
	var filter auditRepository.ListFilter

	if raw := c.Query("principal_id"); raw != "" {
		principalID, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid principal_id: %w", err)
		}
		filter.PrincipalID = &principalID
	}

	if raw := c.Query("outcome"); raw != "" {
		outcome := auditDomain.Outcome(raw)
		if !outcome.IsValid() {
			return filter, fmt.Errorf("invalid outcome: %s", raw)
		}
		filter.Outcome = outcome
	}

	if raw := c.Query("created_at_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid created_at_from: %w", err)
		}
		filter.CreatedAtFrom = &from
	}

	if raw := c.Query("created_at_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid created_at_to: %w", err)
		}
		filter.CreatedAtTo = &to
	}

	return filter, nil
}
