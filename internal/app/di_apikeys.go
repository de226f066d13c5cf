package app

import (
	"fmt"
	"sync"

	apikeysRepository "github.com/syncrete/vaultkit/internal/apikeys/repository"
	apikeysService "github.com/syncrete/vaultkit/internal/apikeys/service"
	apikeysUsecase "github.com/syncrete/vaultkit/internal/apikeys/usecase"
)

// apiKeysDependencies groups the api key management components.
type apiKeysDependencies struct {
	repo    apikeysUsecase.APIKeyRepository
	manager apikeysUsecase.APIKeyManager

	repoInit    sync.Once
	managerInit sync.Once
}

// APIKeyRepository returns the api key repository instance.
func (c *Container) APIKeyRepository() (apikeysUsecase.APIKeyRepository, error) {
	c.apiKeysDeps.repoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["apiKeyRepo"] = fmt.Errorf("failed to get database for api key repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.apiKeysDeps.repo = apikeysRepository.NewMySQLAPIKeyRepository(db)
		case "postgres":
			c.apiKeysDeps.repo = apikeysRepository.NewPostgreSQLAPIKeyRepository(db)
		default:
			c.initErrors["apiKeyRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["apiKeyRepo"]; exists {
		return nil, storedErr
	}
	return c.apiKeysDeps.repo, nil
}

// APIKeyManager returns the api key manager use case, wrapped with metrics.
func (c *Container) APIKeyManager() (apikeysUsecase.APIKeyManager, error) {
	c.apiKeysDeps.managerInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["apiKeyManager"] = err
			return
		}
		repo, err := c.APIKeyRepository()
		if err != nil {
			c.initErrors["apiKeyManager"] = err
			return
		}
		recorder, err := c.AuditRecorder()
		if err != nil {
			c.initErrors["apiKeyManager"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["apiKeyManager"] = err
			return
		}

		manager := apikeysUsecase.NewAPIKeyManager(
			txManager,
			repo,
			apikeysService.NewKeyService(),
			recorder,
			actorCLI,
			c.Logger(),
		)
		c.apiKeysDeps.manager = apikeysUsecase.NewAPIKeyManagerWithMetrics(manager, businessMetrics)
	})
	if storedErr, exists := c.initErrors["apiKeyManager"]; exists {
		return nil, storedErr
	}
	return c.apiKeysDeps.manager, nil
}
