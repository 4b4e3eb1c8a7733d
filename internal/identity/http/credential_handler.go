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

// CredentialHandler handles HTTP requests for credential enrollment.
type CredentialHandler struct {
	credentials identityUseCase.CredentialUseCase
	logger      *slog.Logger
}

// NewCredentialHandler creates a new credential handler.
func NewCredentialHandler(credentials identityUseCase.CredentialUseCase, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{
		credentials: credentials,
		logger:      logger,
	}
}

// EnrollCredentialRequest contains the parameters for enrolling a credential.
// SecretMaterial carries the method's plaintext secret: the password itself,
// a base32 TOTP seed, a phone number for SMS, or an opaque provider reference.
type EnrollCredentialRequest struct {
	Method         string `json:"method"`
	SecretMaterial string `json:"secret_material"`
}

// Validate checks if the enroll request is valid. Password material gets the
// strength rules on top of the generic ones.
func (r *EnrollCredentialRequest) Validate() error {
	secretRules := []validation.Rule{
		validation.Required,
		validation.Length(1, 1024),
	}
	if identityDomain.Method(r.Method) == identityDomain.PasswordMethod {
		secretRules = append(secretRules,
			validation.Length(12, 1024),
			customValidation.PasswordStrength{
				MinLength:      12,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		)
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Method,
			validation.Required,
			validation.In(
				string(identityDomain.PasswordMethod),
				string(identityDomain.TOTPMethod),
				string(identityDomain.SMSMethod),
				string(identityDomain.BiometricMethod),
				string(identityDomain.HardwareTokenMethod),
				string(identityDomain.CommunityVerificationMethod),
			),
		),
		validation.Field(&r.SecretMaterial, secretRules...),
	)
}

// EnrollCredentialResponse contains the result of a credential enrollment.
// Secret material is never echoed back.
type EnrollCredentialResponse struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	Method      string    `json:"method"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// EnrollHandler enrolls a credential for a principal, replacing any existing
// credential of the same method.
// POST /v1/principals/:id/credentials - Admin only.
func (h *CredentialHandler) EnrollHandler(c *gin.Context) {
	principalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req EnrollCredentialRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	method, ok := identityDomain.ParseMethod(req.Method)
	if !ok {
		httputil.HandleValidationErrorGin(c, apperrors.ErrInvalidInput, h.logger)
		return
	}

	input := &identityDomain.EnrollCredentialInput{
		PrincipalID:    principalID,
		Method:         method,
		SecretMaterial: req.SecretMaterial,
	}

	output, err := h.credentials.Enroll(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("credential enrolled",
		slog.String("credential_id", output.ID.String()),
		slog.String("principal_id", principalID.String()),
		slog.String("method", string(method)))

	c.JSON(http.StatusCreated, EnrollCredentialResponse{
		ID:          output.ID.String(),
		PrincipalID: principalID.String(),
		Method:      string(method),
		EnrolledAt:  time.Now().UTC(),
	})
}
