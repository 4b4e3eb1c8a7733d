// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/http"

	auditHTTP "github.com/allisson/gatekeeper/internal/audit/http"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	identityHTTP "github.com/allisson/gatekeeper/internal/identity/http"
	identityUseCase "github.com/allisson/gatekeeper/internal/identity/usecase"
	"github.com/allisson/gatekeeper/internal/metrics"
	policyHTTP "github.com/allisson/gatekeeper/internal/policy/http"
	policyUseCase "github.com/allisson/gatekeeper/internal/policy/usecase"
	sessionUseCase "github.com/allisson/gatekeeper/internal/session/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	redisClient *redis.Client

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Services
	secretService    authService.SecretService
	tokenService     authService.TokenService
	verifierRegistry authService.VerifierRegistry

	// Repositories
	principalRepo  identityUseCase.PrincipalRepository
	credentialRepo identityUseCase.CredentialRepository
	sessionRepo    sessionUseCase.SessionRepository
	accessRuleRepo policyUseCase.AccessRuleRepository
	auditLogRepo   auditUseCase.EntryRepository

	// Use Cases
	auditLogUseCase   auditUseCase.UseCase
	sessionUseCase    sessionUseCase.UseCase
	authUseCase       authUseCase.UseCase
	policyUseCase     policyUseCase.UseCase
	accessRuleUseCase policyUseCase.AccessRuleUseCase
	principalUseCase  identityUseCase.PrincipalUseCase
	credentialUseCase identityUseCase.CredentialUseCase

	// HTTP Handlers
	sessionHandler     *authHTTP.SessionHandler
	accessCheckHandler *policyHTTP.AccessCheckHandler
	accessRuleHandler  *policyHTTP.AccessRuleHandler
	principalHandler   *identityHTTP.PrincipalHandler
	credentialHandler  *identityHTTP.CredentialHandler
	auditLogHandler    *auditHTTP.AuditLogHandler

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer
	sweeper       *sessionUseCase.Sweeper

	// Initialization flags and mutex for thread-safety
	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	redisClientInit        sync.Once
	txManagerInit          sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	secretServiceInit      sync.Once
	tokenServiceInit       sync.Once
	verifierRegistryInit   sync.Once
	principalRepoInit      sync.Once
	credentialRepoInit     sync.Once
	sessionRepoInit        sync.Once
	accessRuleRepoInit     sync.Once
	auditLogRepoInit       sync.Once
	auditLogUseCaseInit    sync.Once
	sessionUseCaseInit     sync.Once
	authUseCaseInit        sync.Once
	policyUseCaseInit      sync.Once
	accessRuleUseCaseInit  sync.Once
	principalUseCaseInit   sync.Once
	credentialUseCaseInit  sync.Once
	sessionHandlerInit     sync.Once
	accessCheckHandlerInit sync.Once
	accessRuleHandlerInit  sync.Once
	principalHandlerInit   sync.Once
	credentialHandlerInit  sync.Once
	auditLogHandlerInit    sync.Once
	httpServerInit         sync.Once
	metricsServerInit      sync.Once
	sweeperInit            sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the redis client used by the redis session store.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close redis client if initialized
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initRedisClient creates the redis client from the configured URL.
func (c *Container) initRedisClient() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for http server: %w", err)
	}

	sessionHandler, err := c.SessionHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get session handler for http server: %w", err)
	}

	accessCheckHandler, err := c.AccessCheckHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get access check handler for http server: %w", err)
	}

	accessRuleHandler, err := c.AccessRuleHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get access rule handler for http server: %w", err)
	}

	principalHandler, err := c.PrincipalHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal handler for http server: %w", err)
	}

	credentialHandler, err := c.CredentialHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential handler for http server: %w", err)
	}

	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}

	var metricsProvider *metrics.Provider
	if c.config.MetricsEnabled {
		metricsProvider, err = c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
	}

	handlers := http.Handlers{
		Session:     sessionHandler,
		AccessCheck: accessCheckHandler,
		AccessRule:  accessRuleHandler,
		Principal:   principalHandler,
		Credential:  credentialHandler,
		AuditLog:    auditLogHandler,
	}

	return http.NewServer(c.config, db, handlers, sessions, metricsProvider, logger), nil
}
