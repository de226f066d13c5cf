package app

import (
	"context"
	"fmt"
	"sync"

	secretsRepository "github.com/syncrete/vaultkit/internal/secrets/repository"
	secretsUsecase "github.com/syncrete/vaultkit/internal/secrets/usecase"
)

// secretsDependencies groups the secret storage components.
type secretsDependencies struct {
	repo  secretsUsecase.SecretRepository
	store secretsUsecase.SecretStore

	repoInit  sync.Once
	storeInit sync.Once
}

// SecretRepository returns the secret repository instance.
func (c *Container) SecretRepository() (secretsUsecase.SecretRepository, error) {
	c.secretsDeps.repoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["secretRepo"] = fmt.Errorf("failed to get database for secret repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.secretsDeps.repo = secretsRepository.NewMySQLSecretRepository(db)
		case "postgres":
			c.secretsDeps.repo = secretsRepository.NewPostgreSQLSecretRepository(db)
		default:
			c.initErrors["secretRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["secretRepo"]; exists {
		return nil, storedErr
	}
	return c.secretsDeps.repo, nil
}

// SecretStore returns the secret store use case, wrapped with metrics.
func (c *Container) SecretStore(ctx context.Context) (secretsUsecase.SecretStore, error) {
	c.secretsDeps.storeInit.Do(func() {
		store, err := c.initSecretStore(ctx)
		if err != nil {
			c.initErrors["secretStore"] = err
			return
		}
		c.secretsDeps.store = store
	})
	if storedErr, exists := c.initErrors["secretStore"]; exists {
		return nil, storedErr
	}
	return c.secretsDeps.store, nil
}

func (c *Container) initSecretStore(ctx context.Context) (secretsUsecase.SecretStore, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	locker, err := c.AdvisoryLocker()
	if err != nil {
		return nil, err
	}
	repo, err := c.SecretRepository()
	if err != nil {
		return nil, err
	}
	holder, err := c.KeyContextHolder(ctx)
	if err != nil {
		return nil, err
	}
	recorder, err := c.AuditRecorder()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	store := secretsUsecase.NewSecretStore(
		txManager,
		locker,
		repo,
		holder,
		c.AEADManager(),
		recorder,
		actorCLI,
		c.Logger(),
	)

	return secretsUsecase.NewSecretStoreWithMetrics(store, businessMetrics), nil
}
