package app

import (
	"fmt"

	identityHTTP "github.com/allisson/gatekeeper/internal/identity/http"
	identityRepository "github.com/allisson/gatekeeper/internal/identity/repository"
	identityUseCase "github.com/allisson/gatekeeper/internal/identity/usecase"
)

// PrincipalRepository returns the principal repository based on database driver.
func (c *Container) PrincipalRepository() (identityUseCase.PrincipalRepository, error) {
	var err error
	c.principalRepoInit.Do(func() {
		c.principalRepo, err = c.initPrincipalRepository()
		if err != nil {
			c.initErrors["principalRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalRepo"]; exists {
		return nil, storedErr
	}
	return c.principalRepo, nil
}

// CredentialRepository returns the credential repository based on database driver.
func (c *Container) CredentialRepository() (identityUseCase.CredentialRepository, error) {
	var err error
	c.credentialRepoInit.Do(func() {
		c.credentialRepo, err = c.initCredentialRepository()
		if err != nil {
			c.initErrors["credentialRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialRepo"]; exists {
		return nil, storedErr
	}
	return c.credentialRepo, nil
}

// PrincipalUseCase returns the principal use case.
func (c *Container) PrincipalUseCase() (identityUseCase.PrincipalUseCase, error) {
	var err error
	c.principalUseCaseInit.Do(func() {
		c.principalUseCase, err = c.initPrincipalUseCase()
		if err != nil {
			c.initErrors["principalUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalUseCase"]; exists {
		return nil, storedErr
	}
	return c.principalUseCase, nil
}

// CredentialUseCase returns the credential use case.
func (c *Container) CredentialUseCase() (identityUseCase.CredentialUseCase, error) {
	var err error
	c.credentialUseCaseInit.Do(func() {
		c.credentialUseCase, err = c.initCredentialUseCase()
		if err != nil {
			c.initErrors["credentialUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialUseCase"]; exists {
		return nil, storedErr
	}
	return c.credentialUseCase, nil
}

// PrincipalHandler returns the HTTP handler for principal operations.
func (c *Container) PrincipalHandler() (*identityHTTP.PrincipalHandler, error) {
	var err error
	c.principalHandlerInit.Do(func() {
		c.principalHandler, err = c.initPrincipalHandler()
		if err != nil {
			c.initErrors["principalHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalHandler"]; exists {
		return nil, storedErr
	}
	return c.principalHandler, nil
}

// CredentialHandler returns the HTTP handler for credential enrollment.
func (c *Container) CredentialHandler() (*identityHTTP.CredentialHandler, error) {
	var err error
	c.credentialHandlerInit.Do(func() {
		c.credentialHandler, err = c.initCredentialHandler()
		if err != nil {
			c.initErrors["credentialHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialHandler"]; exists {
		return nil, storedErr
	}
	return c.credentialHandler, nil
}

// initPrincipalRepository creates the principal repository based on the database driver.
func (c *Container) initPrincipalRepository() (identityUseCase.PrincipalRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for principal repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLPrincipalRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLPrincipalRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCredentialRepository creates the credential repository based on the database driver.
func (c *Container) initCredentialRepository() (identityUseCase.CredentialRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLCredentialRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLCredentialRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPrincipalUseCase creates the principal use case with all its dependencies.
func (c *Container) initPrincipalUseCase() (identityUseCase.PrincipalUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for principal use case: %w", err)
	}

	principalRepo, err := c.PrincipalRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for principal use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for principal use case: %w", err)
	}

	return identityUseCase.NewPrincipalUseCase(txManager, principalRepo, auditLog), nil
}

// initCredentialUseCase creates the credential use case with all its dependencies.
func (c *Container) initCredentialUseCase() (identityUseCase.CredentialUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for credential use case: %w", err)
	}

	principalRepo, err := c.PrincipalRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for credential use case: %w", err)
	}

	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for credential use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for credential use case: %w", err)
	}

	return identityUseCase.NewCredentialUseCase(
		txManager,
		principalRepo,
		credentialRepo,
		c.SecretService(),
		auditLog,
		c.config.ParseEnabledMethods(),
	), nil
}

// initPrincipalHandler creates the principal HTTP handler with all its dependencies.
func (c *Container) initPrincipalHandler() (*identityHTTP.PrincipalHandler, error) {
	principalUseCase, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for principal handler: %w", err)
	}

	return identityHTTP.NewPrincipalHandler(principalUseCase, c.Logger()), nil
}

// initCredentialHandler creates the credential HTTP handler with all its dependencies.
func (c *Container) initCredentialHandler() (*identityHTTP.CredentialHandler, error) {
	credentialUseCase, err := c.CredentialUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential use case for credential handler: %w", err)
	}

	return identityHTTP.NewCredentialHandler(credentialUseCase, c.Logger()), nil
}
