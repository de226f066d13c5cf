package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/syncrete/vaultkit/internal/integrity"
	rotationRepository "github.com/syncrete/vaultkit/internal/rotation/repository"
	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
)

// rotationDependencies groups the master key rotation components.
type rotationDependencies struct {
	keyRepo     rotationUsecase.KeyRecordRepository
	historyRepo rotationUsecase.SecretHistoryRepository
	coordinator rotationUsecase.KeyRotationCoordinator
	scheduler   *integrity.Scheduler

	keyRepoInit     sync.Once
	historyRepoInit sync.Once
	coordinatorInit sync.Once
	schedulerInit   sync.Once
}

// KeyRecordRepository returns the encryption key record repository instance.
func (c *Container) KeyRecordRepository() (rotationUsecase.KeyRecordRepository, error) {
	c.rotationDeps.keyRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["keyRecordRepo"] = fmt.Errorf("failed to get database for key record repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.rotationDeps.keyRepo = rotationRepository.NewMySQLKeyRecordRepository(db)
		case "postgres":
			c.rotationDeps.keyRepo = rotationRepository.NewPostgreSQLKeyRecordRepository(db)
		default:
			c.initErrors["keyRecordRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["keyRecordRepo"]; exists {
		return nil, storedErr
	}
	return c.rotationDeps.keyRepo, nil
}

// SecretHistoryRepository returns the secret snapshot repository instance.
func (c *Container) SecretHistoryRepository() (rotationUsecase.SecretHistoryRepository, error) {
	c.rotationDeps.historyRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["historyRepo"] = fmt.Errorf("failed to get database for history repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.rotationDeps.historyRepo = rotationRepository.NewMySQLSecretHistoryRepository(db)
		case "postgres":
			c.rotationDeps.historyRepo = rotationRepository.NewPostgreSQLSecretHistoryRepository(db)
		default:
			c.initErrors["historyRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["historyRepo"]; exists {
		return nil, storedErr
	}
	return c.rotationDeps.historyRepo, nil
}

// KeyRotationCoordinator returns the rotation coordinator, wrapped with metrics.
func (c *Container) KeyRotationCoordinator(ctx context.Context) (rotationUsecase.KeyRotationCoordinator, error) {
	c.rotationDeps.coordinatorInit.Do(func() {
		coordinator, err := c.initKeyRotationCoordinator(ctx)
		if err != nil {
			c.initErrors["rotationCoordinator"] = err
			return
		}
		c.rotationDeps.coordinator = coordinator
	})
	if storedErr, exists := c.initErrors["rotationCoordinator"]; exists {
		return nil, storedErr
	}
	return c.rotationDeps.coordinator, nil
}

func (c *Container) initKeyRotationCoordinator(ctx context.Context) (rotationUsecase.KeyRotationCoordinator, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	locker, err := c.AdvisoryLocker()
	if err != nil {
		return nil, err
	}
	secretRepo, err := c.SecretRepository()
	if err != nil {
		return nil, err
	}
	keyRepo, err := c.KeyRecordRepository()
	if err != nil {
		return nil, err
	}
	historyRepo, err := c.SecretHistoryRepository()
	if err != nil {
		return nil, err
	}
	secretStore, err := c.SecretStore(ctx)
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

	algorithm, err := c.currentAlgorithm()
	if err != nil {
		return nil, err
	}

	coordinator := rotationUsecase.NewKeyRotationCoordinator(
		txManager,
		locker,
		secretRepo,
		keyRepo,
		historyRepo,
		secretStore,
		holder,
		c.AEADManager(),
		c.KeyDeriver(),
		c.KeyMaterialStore(),
		algorithm,
		recorder,
		actorCLI,
		c.config.RotationTimeout,
		c.Logger(),
	)

	return rotationUsecase.NewKeyRotationCoordinatorWithMetrics(coordinator, businessMetrics), nil
}

// IntegrityScheduler returns the periodic encryption validation scheduler, or
// nil when no schedule is configured.
func (c *Container) IntegrityScheduler(ctx context.Context) (*integrity.Scheduler, error) {
	c.rotationDeps.schedulerInit.Do(func() {
		if c.config.IntegrityCheckSchedule == "" {
			return
		}

		coordinator, err := c.KeyRotationCoordinator(ctx)
		if err != nil {
			c.initErrors["integrityScheduler"] = err
			return
		}

		scheduler, err := integrity.NewScheduler(
			coordinator,
			c.config.IntegrityCheckSchedule,
			c.config.IntegritySampleSize,
			c.Logger(),
		)
		if err != nil {
			c.initErrors["integrityScheduler"] = err
			return
		}
		c.rotationDeps.scheduler = scheduler
	})
	if storedErr, exists := c.initErrors["integrityScheduler"]; exists {
		return nil, storedErr
	}
	return c.rotationDeps.scheduler, nil
}
