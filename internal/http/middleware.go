// Package http provides the HTTP server, routing, and shared middleware.
package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
)

// CustomLoggerMiddleware logs HTTP requests with structured logging via slog.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// AuditContextMiddleware copies the request id into the request context so the
// authentication and policy engines can stamp it onto audit entries.
// MUST run after the requestid middleware.
func AuditContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rid := requestid.Get(c); rid != "" {
			ctx := auditUseCase.ContextWithRequestID(c.Request.Context(), rid)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
