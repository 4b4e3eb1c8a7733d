// Package http provides HTTP handlers for principal and credential administration.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	identityUseCase "github.com/allisson/gatekeeper/internal/identity/usecase"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// PrincipalHandler handles HTTP requests for principal lifecycle operations.
type PrincipalHandler struct {
	principals identityUseCase.PrincipalUseCase
	logger     *slog.Logger
}

// NewPrincipalHandler creates a new principal handler.
func NewPrincipalHandler(principals identityUseCase.PrincipalUseCase, logger *slog.Logger) *PrincipalHandler {
	return &PrincipalHandler{
		principals: principals,
		logger:     logger,
	}
}

// RegisterPrincipalRequest contains the parameters for registering a principal.
type RegisterPrincipalRequest struct {
	Name              string `json:"name"`
	Role              string `json:"role"`
	ElevatedAuthority bool   `json:"elevated_authority"`
}

// Validate checks if the register request is valid.
func (r *RegisterPrincipalRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(3, 255),
		),
		validation.Field(&r.Role,
			validation.Required,
			validation.In(
				string(identityDomain.GuestRole),
				string(identityDomain.MemberRole),
				string(identityDomain.SeniorRole),
				string(identityDomain.CouncilRole),
				string(identityDomain.AdminRole),
			),
		),
	)
}

// PrincipalResponse represents a principal in API responses.
type PrincipalResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Role              string     `json:"role"`
	ElevatedAuthority bool       `json:"elevated_authority"`
	IsActive          bool       `json:"is_active"`
	FailedAttempts    int        `json:"failed_attempts"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// mapPrincipalToResponse converts a domain principal to an API response.
func mapPrincipalToResponse(principal *identityDomain.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:                principal.ID.String(),
		Name:              principal.Name,
		Role:              string(principal.Role),
		ElevatedAuthority: principal.ElevatedAuthority,
		IsActive:          principal.IsActive,
		FailedAttempts:    principal.FailedAttempts,
		LockedUntil:       principal.LockedUntil,
		CreatedAt:         principal.CreatedAt,
	}
}

// RegisterHandler registers a new principal.
// POST /v1/principals - Admin only.
func (h *PrincipalHandler) RegisterHandler(c *gin.Context) {
	var req RegisterPrincipalRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	role, ok := identityDomain.ParseRole(req.Role)
	if !ok {
		httputil.HandleValidationErrorGin(c, apperrors.ErrInvalidInput, h.logger)
		return
	}

	input := &identityDomain.RegisterPrincipalInput{
		Name:              req.Name,
		Role:              role,
		ElevatedAuthority: req.ElevatedAuthority,
	}

	output, err := h.principals.Register(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	principal, err := h.principals.Get(c.Request.Context(), output.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("principal registered",
		slog.String("principal_id", output.ID.String()),
		slog.String("role", string(role)))

	c.JSON(http.StatusCreated, mapPrincipalToResponse(principal))
}

// GetHandler retrieves a principal by ID.
// GET /v1/principals/:id - Admin only.
func (h *PrincipalHandler) GetHandler(c *gin.Context) {
	principalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	principal, err := h.principals.Get(c.Request.Context(), principalID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapPrincipalToResponse(principal))
}

// DeactivateHandler deactivates a principal (soft delete).
// DELETE /v1/principals/:id - Admin only.
// The record is preserved for the audit trail; only IsActive flips.
func (h *PrincipalHandler) DeactivateHandler(c *gin.Context) {
	principalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.principals.Deactivate(c.Request.Context(), principalID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("principal deactivated", slog.String("principal_id", principalID.String()))

	c.Data(http.StatusNoContent, "application/json", nil)
}

// UnlockHandler administratively unlocks a locked principal.
// POST /v1/principals/:id/unlock - Admin only.
func (h *PrincipalHandler) UnlockHandler(c *gin.Context) {
	principalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.principals.Unlock(c.Request.Context(), principalID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("principal unlocked", slog.String("principal_id", principalID.String()))

	principal, err := h.principals.Get(c.Request.Context(), principalID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapPrincipalToResponse(principal))
}
