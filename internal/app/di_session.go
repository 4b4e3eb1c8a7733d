package app

import (
	"fmt"

	sessionRepository "github.com/allisson/gatekeeper/internal/session/repository"
	sessionUseCase "github.com/allisson/gatekeeper/internal/session/usecase"
)

// SessionRepository returns the session repository based on the configured store.
func (c *Container) SessionRepository() (sessionUseCase.SessionRepository, error) {
	var err error
	c.sessionRepoInit.Do(func() {
		c.sessionRepo, err = c.initSessionRepository()
		if err != nil {
			c.initErrors["sessionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionRepo"]; exists {
		return nil, storedErr
	}
	return c.sessionRepo, nil
}

// SessionUseCase returns the session use case.
func (c *Container) SessionUseCase() (sessionUseCase.UseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// Sweeper returns the background worker that purges expired sessions.
func (c *Container) Sweeper() (*sessionUseCase.Sweeper, error) {
	var err error
	c.sweeperInit.Do(func() {
		c.sweeper, err = c.initSweeper()
		if err != nil {
			c.initErrors["sweeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sweeper"]; exists {
		return nil, storedErr
	}
	return c.sweeper, nil
}

// initSessionRepository creates the session repository based on the configured
// store. The redis store carries per-session TTLs natively; the sql store
// relies on the sweeper for cleanup.
func (c *Container) initSessionRepository() (sessionUseCase.SessionRepository, error) {
	switch c.config.SessionStore {
	case "redis":
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for session repository: %w", err)
		}
		return sessionRepository.NewRedisSessionRepository(client), nil
	case "sql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for session repository: %w", err)
		}
		switch c.config.DBDriver {
		case "postgres":
			return sessionRepository.NewPostgreSQLSessionRepository(db), nil
		case "mysql":
			return sessionRepository.NewMySQLSessionRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported session store: %s", c.config.SessionStore)
	}
}

// initSessionUseCase creates the session use case with all its dependencies.
func (c *Container) initSessionUseCase() (sessionUseCase.UseCase, error) {
	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for session use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for session use case: %w", err)
	}

	return sessionUseCase.NewSessionUseCase(
		sessionRepo,
		c.TokenService(),
		auditLog,
		c.config.SessionTTL,
	), nil
}

// initSweeper creates the expired-session sweeper.
func (c *Container) initSweeper() (*sessionUseCase.Sweeper, error) {
	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for sweeper: %w", err)
	}

	return sessionUseCase.NewSweeper(sessions, c.config.SessionSweepInterval), nil
}
