package app

import (
	"fmt"

	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
)

// SecretService returns the secret service for password hashing and comparison.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// TokenService returns the token service for session token generation and hashing.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// VerifierRegistry returns the method-to-verifier registry used by the
// authentication engine.
func (c *Container) VerifierRegistry() authService.VerifierRegistry {
	c.verifierRegistryInit.Do(func() {
		c.verifierRegistry = c.initVerifierRegistry()
	})
	return c.verifierRegistry
}

// AuthUseCase returns the authentication engine.
func (c *Container) AuthUseCase() (authUseCase.UseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// SessionHandler returns the HTTP handler for authentication and session lifecycle.
func (c *Container) SessionHandler() (*authHTTP.SessionHandler, error) {
	var err error
	c.sessionHandlerInit.Do(func() {
		c.sessionHandler, err = c.initSessionHandler()
		if err != nil {
			c.initErrors["sessionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionHandler"]; exists {
		return nil, storedErr
	}
	return c.sessionHandler, nil
}

// initVerifierRegistry creates the verifier registry. SMS and biometric proofs
// are verified through external HTTP gateways; everything else is local.
func (c *Container) initVerifierRegistry() authService.VerifierRegistry {
	smsProvider := authService.NewHTTPFactorProvider(c.config.SMSProviderURL)
	biometricProvider := authService.NewHTTPFactorProvider(c.config.BiometricProviderURL)

	return authService.NewVerifierRegistry(
		c.SecretService(),
		smsProvider,
		biometricProvider,
		c.config.FactorVerifierTimeout,
	)
}

// initAuthUseCase creates the authentication engine with all its dependencies.
func (c *Container) initAuthUseCase() (authUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for auth use case: %w", err)
	}

	principalRepo, err := c.PrincipalRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for auth use case: %w", err)
	}

	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for auth use case: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for auth use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for auth use case: %w", err)
	}

	baseUseCase := authUseCase.NewAuthenticationUseCase(
		txManager,
		principalRepo,
		credentialRepo,
		c.VerifierRegistry(),
		sessions,
		auditLog,
		c.config.LockoutThreshold,
		c.config.LockoutCooldown,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
		}
		return authUseCase.NewUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initSessionHandler creates the session HTTP handler with all its dependencies.
func (c *Container) initSessionHandler() (*authHTTP.SessionHandler, error) {
	authEngine, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for session handler: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for session handler: %w", err)
	}

	return authHTTP.NewSessionHandler(authEngine, sessions, c.Logger()), nil
}
