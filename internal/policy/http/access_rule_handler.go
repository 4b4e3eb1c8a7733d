package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	policyDomain "github.com/allisson/gatekeeper/internal/policy/domain"
	policyUseCase "github.com/allisson/gatekeeper/internal/policy/usecase"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// AccessRuleHandler handles HTTP requests for access rule administration.
type AccessRuleHandler struct {
	accessRules policyUseCase.AccessRuleUseCase
	logger      *slog.Logger
}

// NewAccessRuleHandler creates a new access rule handler.
func NewAccessRuleHandler(accessRules policyUseCase.AccessRuleUseCase, logger *slog.Logger) *AccessRuleHandler {
	return &AccessRuleHandler{
		accessRules: accessRules,
		logger:      logger,
	}
}

// UpsertAccessRuleRequest contains the parameters for creating or replacing
// the rule for a resource type.
type UpsertAccessRuleRequest struct {
	MinimumRole               string   `json:"minimum_role"`
	RequiredPermissions       []string `json:"required_permissions"`
	RequiresConsensusApproval bool     `json:"requires_consensus_approval"`
	RequiresElevatedApproval  bool     `json:"requires_elevated_approval"`
	SensitivityLevel          int      `json:"sensitivity_level"`
}

// Validate checks if the upsert request is valid.
func (r *UpsertAccessRuleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MinimumRole,
			validation.Required,
			validation.In(
				string(identityDomain.GuestRole),
				string(identityDomain.MemberRole),
				string(identityDomain.SeniorRole),
				string(identityDomain.CouncilRole),
				string(identityDomain.AdminRole),
			),
		),
		validation.Field(&r.RequiredPermissions,
			validation.Each(validation.Required, validation.Length(1, 255)),
		),
		validation.Field(&r.SensitivityLevel,
			validation.Min(0),
			validation.Max(10),
		),
	)
}

// AccessRuleResponse represents an access rule in API responses.
type AccessRuleResponse struct {
	ID                        string    `json:"id"`
	ResourceType              string    `json:"resource_type"`
	MinimumRole               string    `json:"minimum_role"`
	RequiredPermissions       []string  `json:"required_permissions"`
	RequiresConsensusApproval bool      `json:"requires_consensus_approval"`
	RequiresElevatedApproval  bool      `json:"requires_elevated_approval"`
	SensitivityLevel          int       `json:"sensitivity_level"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// mapRuleToResponse converts a domain access rule to an API response.
func mapRuleToResponse(rule *policyDomain.AccessRule) AccessRuleResponse {
	return AccessRuleResponse{
		ID:                        rule.ID.String(),
		ResourceType:              rule.ResourceType,
		MinimumRole:               string(rule.MinimumRole),
		RequiredPermissions:       rule.RequiredPermissions,
		RequiresConsensusApproval: rule.RequiresConsensusApproval,
		RequiresElevatedApproval:  rule.RequiresElevatedApproval,
		SensitivityLevel:          rule.SensitivityLevel,
		CreatedAt:                 rule.CreatedAt,
		UpdatedAt:                 rule.UpdatedAt,
	}
}

// UpsertHandler creates or replaces the rule for a resource type.
// PUT /v1/access-rules/:resource_type - Admin only.
func (h *AccessRuleHandler) UpsertHandler(c *gin.Context) {
	resourceType := c.Param("resource_type")

	var req UpsertAccessRuleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	role, ok := identityDomain.ParseRole(req.MinimumRole)
	if !ok {
		httputil.HandleValidationErrorGin(c, apperrors.ErrInvalidInput, h.logger)
		return
	}

	input := &policyDomain.UpsertAccessRuleInput{
		ResourceType:              resourceType,
		MinimumRole:               role,
		RequiredPermissions:       req.RequiredPermissions,
		RequiresConsensusApproval: req.RequiresConsensusApproval,
		RequiresElevatedApproval:  req.RequiresElevatedApproval,
		SensitivityLevel:          req.SensitivityLevel,
	}

	output, err := h.accessRules.Upsert(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	rule, err := h.accessRules.Get(c.Request.Context(), resourceType)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("access rule upserted",
		slog.String("rule_id", output.ID.String()),
		slog.String("resource_type", resourceType))

	c.JSON(http.StatusOK, mapRuleToResponse(rule))
}

// GetHandler retrieves the rule for a resource type.
// GET /v1/access-rules/:resource_type - Admin only.
func (h *AccessRuleHandler) GetHandler(c *gin.Context) {
	resourceType := c.Param("resource_type")

	rule, err := h.accessRules.Get(c.Request.Context(), resourceType)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapRuleToResponse(rule))
}

// ListHandler retrieves access rules with pagination.
// GET /v1/access-rules?offset=0&limit=50 - Admin only.
func (h *AccessRuleHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	rules, err := h.accessRules.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]AccessRuleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, mapRuleToResponse(rule))
	}

	c.JSON(http.StatusOK, gin.H{
		"access_rules": responses,
		"offset":       offset,
		"limit":        limit,
	})
}

// DeleteHandler removes the rule for a resource type, restoring the
// fail-closed default for that resource.
// DELETE /v1/access-rules/:resource_type - Admin only.
func (h *AccessRuleHandler) DeleteHandler(c *gin.Context) {
	resourceType := c.Param("resource_type")

	if err := h.accessRules.Delete(c.Request.Context(), resourceType); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("access rule deleted", slog.String("resource_type", resourceType))

	c.Data(http.StatusNoContent, "application/json", nil)
}
