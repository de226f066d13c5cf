package app

import (
	"fmt"
	"sync"

	auditRepository "github.com/syncrete/vaultkit/internal/audit/repository"
	auditUsecase "github.com/syncrete/vaultkit/internal/audit/usecase"
)

// auditDependencies groups the audit outbox components.
type auditDependencies struct {
	repo       auditUsecase.EventRepository
	recorder   auditUsecase.Recorder
	dispatcher auditUsecase.Dispatcher

	repoInit       sync.Once
	recorderInit   sync.Once
	dispatcherInit sync.Once
}

// AuditEventRepository returns the audit event repository instance.
func (c *Container) AuditEventRepository() (auditUsecase.EventRepository, error) {
	c.auditDeps.repoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["auditRepo"] = fmt.Errorf("failed to get database for audit repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.auditDeps.repo = auditRepository.NewMySQLAuditEventRepository(db)
		case "postgres":
			c.auditDeps.repo = auditRepository.NewPostgreSQLAuditEventRepository(db)
		default:
			c.initErrors["auditRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditDeps.repo, nil
}

// AuditRecorder returns the audit event recorder. Events are written in the
// caller's transaction and delivered later by the dispatcher.
func (c *Container) AuditRecorder() (auditUsecase.Recorder, error) {
	c.auditDeps.recorderInit.Do(func() {
		repo, err := c.AuditEventRepository()
		if err != nil {
			c.initErrors["auditRecorder"] = err
			return
		}
		c.auditDeps.recorder = auditUsecase.NewRecorder(repo)
	})
	if storedErr, exists := c.initErrors["auditRecorder"]; exists {
		return nil, storedErr
	}
	return c.auditDeps.recorder, nil
}

// AuditDispatcher returns the background audit event dispatcher.
func (c *Container) AuditDispatcher() (auditUsecase.Dispatcher, error) {
	c.auditDeps.dispatcherInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["auditDispatcher"] = err
			return
		}
		repo, err := c.AuditEventRepository()
		if err != nil {
			c.initErrors["auditDispatcher"] = err
			return
		}

		dispatcherConfig := auditUsecase.Config{
			Interval:   c.config.AuditWorkerInterval,
			BatchSize:  c.config.AuditWorkerBatchSize,
			MaxRetries: c.config.AuditWorkerMaxRetries,
		}

		sink := auditUsecase.NewSlogSink(c.Logger())
		c.auditDeps.dispatcher = auditUsecase.NewDispatcher(
			dispatcherConfig, txManager, repo, sink, c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["auditDispatcher"]; exists {
		return nil, storedErr
	}
	return c.auditDeps.dispatcher, nil
}
