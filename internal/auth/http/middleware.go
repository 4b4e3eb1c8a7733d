// Package http provides HTTP handlers and middleware for authentication.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	sessionUseCase "github.com/allisson/gatekeeper/internal/session/usecase"
)

// SessionMiddleware authenticates requests via Bearer token in the
// Authorization header.
//
// The middleware extracts the token, resolves it to a live session through
// sessionUseCase.Validate, and stores both the session snapshot and the plain
// token in the request context. Unknown, revoked, and expired tokens all
// surface as 401.
func SessionMiddleware(
	sessions sessionUseCase.UseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		plainToken, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		session, err := sessions.Validate(c.Request.Context(), plainToken)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithSession(c.Request.Context(), session)
		ctx = WithPlainToken(ctx, plainToken)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRoleMiddleware enforces a minimum role rank on the authenticated
// session. MUST be used after SessionMiddleware.
func RequireRoleMiddleware(
	minimumRole identityDomain.Role,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c.Request.Context())
		if !ok || session == nil {
			logger.Debug("authorization failed: no authenticated session in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if session.Role.Rank() < minimumRole.Rank() {
			logger.Debug("authorization failed: insufficient role",
				slog.String("principal_id", session.PrincipalID.String()),
				slog.String("role", string(session.Role)),
				slog.String("required_role", string(minimumRole)))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
// The "bearer" scheme match is case-insensitive.
func BearerToken(authHeader string) (string, bool) {
	const bearerPrefix = "bearer "
	if len(authHeader) < len(bearerPrefix) ||
		!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	plainToken := authHeader[len(bearerPrefix):]
	if plainToken == "" {
		return "", false
	}

	return plainToken, true
}
