package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
	sessionUseCase "github.com/allisson/gatekeeper/internal/session/usecase"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// SessionHandler handles HTTP requests for authentication and session lifecycle.
type SessionHandler struct {
	authEngine authUseCase.UseCase
	sessions   sessionUseCase.UseCase
	logger     *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(
	authEngine authUseCase.UseCase,
	sessions sessionUseCase.UseCase,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		authEngine: authEngine,
		sessions:   sessions,
		logger:     logger,
	}
}

// AuthenticateRequest contains the parameters for an authentication attempt.
// Factors maps method names to their proofs (one-time codes, token responses,
// voucher codes).
type AuthenticateRequest struct {
	Identifier    string            `json:"identifier"`
	PrimarySecret string            `json:"primary_secret"`
	Factors       map[string]string `json:"factors"`
}

// Validate checks if the authenticate request is valid.
func (r *AuthenticateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identifier,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.PrimarySecret,
			validation.Required,
			validation.Length(1, 1024),
		),
	)
}

// parseFactors maps the request's factor names onto method enums.
func (r *AuthenticateRequest) parseFactors() (map[identityDomain.Method]string, error) {
	factors := make(map[identityDomain.Method]string, len(r.Factors))
	for methodName, proof := range r.Factors {
		method, ok := identityDomain.ParseMethod(methodName)
		if !ok {
			return nil, fmt.Errorf("unknown authentication method: %s", methodName)
		}
		factors[method] = proof
	}
	return factors, nil
}

// AuthenticateResponse contains the result of a successful authentication.
// SECURITY: The session token is only returned once and must be saved securely.
type AuthenticateResponse struct {
	Status         string    `json:"status"`
	SessionID      string    `json:"session_id,omitempty"`
	SessionToken   string    `json:"session_token,omitempty"`
	ExpiresAt      time.Time `json:"expires_at,omitzero"`
	MissingMethods []string  `json:"missing_methods,omitempty"`
}

// SessionResponse represents a session in API responses (excludes the token hash).
type SessionResponse struct {
	ID                string    `json:"id"`
	PrincipalID       string    `json:"principal_id"`
	Role              string    `json:"role"`
	ElevatedAuthority bool      `json:"elevated_authority"`
	VerifiedMethods   []string  `json:"verified_methods"`
	ConsensusVerified bool      `json:"consensus_verified"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// mapSessionToResponse converts a domain session to an API response.
func mapSessionToResponse(session *sessionDomain.Session) SessionResponse {
	methods := make([]string, 0, len(session.VerifiedMethods))
	for _, method := range session.VerifiedMethods {
		methods = append(methods, string(method))
	}

	return SessionResponse{
		ID:                session.ID.String(),
		PrincipalID:       session.PrincipalID.String(),
		Role:              string(session.Role),
		ElevatedAuthority: session.ElevatedAuthority,
		VerifiedMethods:   methods,
		ConsensusVerified: session.ConsensusVerified,
		CreatedAt:         session.CreatedAt,
		ExpiresAt:         session.ExpiresAt,
	}
}

// AuthenticateHandler authenticates a principal and issues a session.
// POST /v1/auth/sessions - Unauthenticated (rate limited by client IP).
// Returns 201 Created with the plain session token, or 200 OK with
// status "mfa_required" when enrolled factors are still owed.
func (h *SessionHandler) AuthenticateHandler(c *gin.Context) {
	var req AuthenticateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	factors, err := req.parseFactors()
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	input := &authDomain.AuthenticateInput{
		Identifier:    req.Identifier,
		PrimarySecret: req.PrimarySecret,
		Factors:       factors,
		Origin: authDomain.Origin{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		},
	}

	result, err := h.authEngine.Authenticate(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if result.Status == authDomain.MFARequiredStatus {
		missing := make([]string, 0, len(result.MissingMethods))
		for _, method := range result.MissingMethods {
			missing = append(missing, string(method))
		}
		c.JSON(http.StatusOK, AuthenticateResponse{
			Status:         string(result.Status),
			MissingMethods: missing,
		})
		return
	}

	c.JSON(http.StatusCreated, AuthenticateResponse{
		Status:       string(result.Status),
		SessionID:    result.SessionID.String(),
		SessionToken: result.PlainSessionToken,
		ExpiresAt:    result.ExpiresAt,
	})
}

// GetCurrentHandler returns the authenticated session's snapshot.
// GET /v1/auth/sessions/current - Requires a valid session.
func (h *SessionHandler) GetCurrentHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok || session == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapSessionToResponse(session))
}

// DeleteCurrentHandler revokes the authenticated session (logout).
// DELETE /v1/auth/sessions/current - Requires a valid session.
// Returns 204 No Content.
func (h *SessionHandler) DeleteCurrentHandler(c *gin.Context) {
	plainToken, ok := GetPlainToken(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.sessions.Invalidate(c.Request.Context(), plainToken); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
