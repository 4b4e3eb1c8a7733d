package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/allisson/gatekeeper/internal/audit/http"
	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	"github.com/allisson/gatekeeper/internal/config"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	identityHTTP "github.com/allisson/gatekeeper/internal/identity/http"
	"github.com/allisson/gatekeeper/internal/metrics"
	policyHTTP "github.com/allisson/gatekeeper/internal/policy/http"
	sessionUseCase "github.com/allisson/gatekeeper/internal/session/usecase"
)

// Handlers groups the HTTP handlers mounted on the server.
type Handlers struct {
	Session     *authHTTP.SessionHandler
	AccessCheck *policyHTTP.AccessCheckHandler
	AccessRule  *policyHTTP.AccessRuleHandler
	Principal   *identityHTTP.PrincipalHandler
	Credential  *identityHTTP.CredentialHandler
	AuditLog    *auditHTTP.AuditLogHandler
}

// Server represents the HTTP server.
type Server struct {
	server          *http.Server
	db              *sql.DB
	cfg             *config.Config
	handlers        Handlers
	sessions        sessionUseCase.UseCase
	metricsProvider *metrics.Provider
	logger          *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.Config,
	db *sql.DB,
	handlers Handlers,
	sessions sessionUseCase.UseCase,
	metricsProvider *metrics.Provider,
	logger *slog.Logger,
) *Server {
	server := &Server{
		db:              db,
		cfg:             cfg,
		handlers:        handlers,
		sessions:        sessions,
		metricsProvider: metricsProvider,
		logger:          logger,
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      server.setupRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// setupRouter builds the route tree with all middleware applied.
func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(s.cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	router.Use(AuditContextMiddleware())

	if corsMiddleware := createCORSMiddleware(
		s.cfg.CORSEnabled,
		s.cfg.CORSAllowOrigins,
		s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if s.metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			s.metricsProvider.MeterProvider(),
			s.cfg.MetricsNamespace,
		))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Authentication endpoint: unauthenticated, rate limited by client IP.
	authGroup := v1.Group("/auth")
	if s.cfg.RateLimitAuthEnabled {
		authGroup.Use(authHTTP.AuthRateLimitMiddleware(
			s.cfg.RateLimitAuthRequestsPerSec,
			s.cfg.RateLimitAuthBurst,
			s.logger,
		))
	}
	authGroup.POST("/sessions", s.handlers.Session.AuthenticateHandler)

	// Session endpoints: require a live session.
	sessionGroup := v1.Group("/auth/sessions")
	sessionGroup.Use(authHTTP.SessionMiddleware(s.sessions, s.logger))
	if s.cfg.RateLimitEnabled {
		sessionGroup.Use(authHTTP.RateLimitMiddleware(
			s.cfg.RateLimitRequestsPerSec,
			s.cfg.RateLimitBurst,
			s.logger,
		))
	}
	sessionGroup.GET("/current", s.handlers.Session.GetCurrentHandler)
	sessionGroup.DELETE("/current", s.handlers.Session.DeleteCurrentHandler)

	// Access check: the policy engine resolves and audits the presented token
	// itself, so the session middleware stays out of the way here.
	v1.POST("/access/check", s.handlers.AccessCheck.CheckAccessHandler)

	// Administrative endpoints: admin session required.
	adminGroup := v1.Group("")
	adminGroup.Use(authHTTP.SessionMiddleware(s.sessions, s.logger))
	adminGroup.Use(authHTTP.RequireRoleMiddleware(identityDomain.AdminRole, s.logger))
	if s.cfg.RateLimitEnabled {
		adminGroup.Use(authHTTP.RateLimitMiddleware(
			s.cfg.RateLimitRequestsPerSec,
			s.cfg.RateLimitBurst,
			s.logger,
		))
	}

	adminGroup.POST("/principals", s.handlers.Principal.RegisterHandler)
	adminGroup.GET("/principals/:id", s.handlers.Principal.GetHandler)
	adminGroup.DELETE("/principals/:id", s.handlers.Principal.DeactivateHandler)
	adminGroup.POST("/principals/:id/unlock", s.handlers.Principal.UnlockHandler)
	adminGroup.POST("/principals/:id/credentials", s.handlers.Credential.EnrollHandler)

	adminGroup.PUT("/access-rules/:resource_type", s.handlers.AccessRule.UpsertHandler)
	adminGroup.GET("/access-rules/:resource_type", s.handlers.AccessRule.GetHandler)
	adminGroup.GET("/access-rules", s.handlers.AccessRule.ListHandler)
	adminGroup.DELETE("/access-rules/:resource_type", s.handlers.AccessRule.DeleteHandler)

	adminGroup.GET("/audit-logs", s.handlers.AuditLog.ListHandler)

	return router
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness, checking the database connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
