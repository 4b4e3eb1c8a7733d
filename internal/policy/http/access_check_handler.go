// Package http provides HTTP handlers for access checks and rule administration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
	policyUseCase "github.com/allisson/gatekeeper/internal/policy/usecase"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// AccessCheckHandler handles HTTP requests for access decisions.
type AccessCheckHandler struct {
	policyEngine policyUseCase.UseCase
	logger       *slog.Logger
}

// NewAccessCheckHandler creates a new access check handler.
func NewAccessCheckHandler(policyEngine policyUseCase.UseCase, logger *slog.Logger) *AccessCheckHandler {
	return &AccessCheckHandler{
		policyEngine: policyEngine,
		logger:       logger,
	}
}

// CheckAccessRequest contains the parameters for an access check.
type CheckAccessRequest struct {
	ResourceType string   `json:"resource_type"`
	Permissions  []string `json:"permissions"`
}

// Validate checks if the access check request is valid.
func (r *CheckAccessRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ResourceType,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Permissions,
			validation.Each(validation.Required, validation.Length(1, 255)),
		),
	)
}

// DecisionResponse represents an access decision in API responses.
type DecisionResponse struct {
	Allowed            bool     `json:"allowed"`
	Reason             string   `json:"reason"`
	SensitivityLevel   int      `json:"sensitivity_level,omitempty"`
	MissingPermissions []string `json:"missing_permissions,omitempty"`
	PrincipalID        string   `json:"principal_id,omitempty"`
}

// mapDecisionToResponse converts a domain decision to an API response.
func mapDecisionToResponse(decision *policyDomain.Decision) DecisionResponse {
	resp := DecisionResponse{
		Allowed:            decision.Allowed,
		Reason:             string(decision.Reason),
		SensitivityLevel:   decision.SensitivityLevel,
		MissingPermissions: decision.MissingPermissions,
	}
	if decision.PrincipalID != [16]byte{} {
		resp.PrincipalID = decision.PrincipalID.String()
	}
	return resp
}

// CheckAccessHandler evaluates whether the presented session may act on a
// resource type with the requested permissions.
// POST /v1/access/check - Bearer token required; the policy engine resolves
// and audits the session itself, so this endpoint skips the session middleware.
//
// Denials come back as 200 with allowed=false; only infrastructure faults
// produce error statuses, and those mean deny.
func (h *AccessCheckHandler) CheckAccessHandler(c *gin.Context) {
	plainToken, ok := authHTTP.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req CheckAccessRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	decision, err := h.policyEngine.CheckAccess(
		c.Request.Context(),
		plainToken,
		req.ResourceType,
		req.Permissions,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapDecisionToResponse(decision))
}
