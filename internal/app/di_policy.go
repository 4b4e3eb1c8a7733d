package app

import (
	"fmt"

	policyHTTP "github.com/allisson/gatekeeper/internal/policy/http"
	policyRepository "github.com/allisson/gatekeeper/internal/policy/repository"
	policyUseCase "github.com/allisson/gatekeeper/internal/policy/usecase"
)

// AccessRuleRepository returns the access rule repository based on database driver.
func (c *Container) AccessRuleRepository() (policyUseCase.AccessRuleRepository, error) {
	var err error
	c.accessRuleRepoInit.Do(func() {
		c.accessRuleRepo, err = c.initAccessRuleRepository()
		if err != nil {
			c.initErrors["accessRuleRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessRuleRepo"]; exists {
		return nil, storedErr
	}
	return c.accessRuleRepo, nil
}

// PolicyUseCase returns the policy engine.
func (c *Container) PolicyUseCase() (policyUseCase.UseCase, error) {
	var err error
	c.policyUseCaseInit.Do(func() {
		c.policyUseCase, err = c.initPolicyUseCase()
		if err != nil {
			c.initErrors["policyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyUseCase"]; exists {
		return nil, storedErr
	}
	return c.policyUseCase, nil
}

// AccessRuleUseCase returns the access rule administration use case.
func (c *Container) AccessRuleUseCase() (policyUseCase.AccessRuleUseCase, error) {
	var err error
	c.accessRuleUseCaseInit.Do(func() {
		c.accessRuleUseCase, err = c.initAccessRuleUseCase()
		if err != nil {
			c.initErrors["accessRuleUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessRuleUseCase"]; exists {
		return nil, storedErr
	}
	return c.accessRuleUseCase, nil
}

// AccessCheckHandler returns the HTTP handler for access checks.
func (c *Container) AccessCheckHandler() (*policyHTTP.AccessCheckHandler, error) {
	var err error
	c.accessCheckHandlerInit.Do(func() {
		c.accessCheckHandler, err = c.initAccessCheckHandler()
		if err != nil {
			c.initErrors["accessCheckHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessCheckHandler"]; exists {
		return nil, storedErr
	}
	return c.accessCheckHandler, nil
}

// AccessRuleHandler returns the HTTP handler for access rule administration.
func (c *Container) AccessRuleHandler() (*policyHTTP.AccessRuleHandler, error) {
	var err error
	c.accessRuleHandlerInit.Do(func() {
		c.accessRuleHandler, err = c.initAccessRuleHandler()
		if err != nil {
			c.initErrors["accessRuleHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessRuleHandler"]; exists {
		return nil, storedErr
	}
	return c.accessRuleHandler, nil
}

// initAccessRuleRepository creates the access rule repository based on the database driver.
func (c *Container) initAccessRuleRepository() (policyUseCase.AccessRuleRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for access rule repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return policyRepository.NewPostgreSQLAccessRuleRepository(db), nil
	case "mysql":
		return policyRepository.NewMySQLAccessRuleRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPolicyUseCase creates the policy engine with all its dependencies.
func (c *Container) initPolicyUseCase() (policyUseCase.UseCase, error) {
	accessRuleRepo, err := c.AccessRuleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access rule repository for policy use case: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for policy use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for policy use case: %w", err)
	}

	baseUseCase := policyUseCase.NewPolicyUseCase(accessRuleRepo, sessions, auditLog)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for policy use case: %w", err)
		}
		return policyUseCase.NewUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAccessRuleUseCase creates the access rule administration use case.
func (c *Container) initAccessRuleUseCase() (policyUseCase.AccessRuleUseCase, error) {
	accessRuleRepo, err := c.AccessRuleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access rule repository for access rule use case: %w", err)
	}

	return policyUseCase.NewAccessRuleUseCase(accessRuleRepo), nil
}

// initAccessCheckHandler creates the access check HTTP handler with all its dependencies.
func (c *Container) initAccessCheckHandler() (*policyHTTP.AccessCheckHandler, error) {
	policyEngine, err := c.PolicyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy use case for access check handler: %w", err)
	}

	return policyHTTP.NewAccessCheckHandler(policyEngine, c.Logger()), nil
}

// initAccessRuleHandler creates the access rule HTTP handler with all its dependencies.
func (c *Container) initAccessRuleHandler() (*policyHTTP.AccessRuleHandler, error) {
	accessRuleUseCase, err := c.AccessRuleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get access rule use case for access rule handler: %w", err)
	}

	return policyHTTP.NewAccessRuleHandler(accessRuleUseCase, c.Logger()), nil
}
