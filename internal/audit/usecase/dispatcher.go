package usecase

import (
	"context"
	"log/slog"
	"time"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	"github.com/syncrete/vaultkit/internal/database"
)

// Config holds dispatcher configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// eventDispatcher implements Dispatcher using the transactional outbox pattern.
type eventDispatcher struct {
	config    Config
	txManager database.TxManager
	repo      EventRepository
	sink      Sink
	logger    *slog.Logger
}

// NewDispatcher creates an event dispatcher.
func NewDispatcher(
	config Config,
	txManager database.TxManager,
	repo EventRepository,
	sink Sink,
	logger *slog.Logger,
) Dispatcher {
	return &eventDispatcher{
		config:    config,
		txManager: txManager,
		repo:      repo,
		sink:      sink,
		logger:    logger,
	}
}

// Start runs the delivery loop until the context is cancelled.
func (d *eventDispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting audit event dispatcher",
		slog.Duration("interval", d.config.Interval),
		slog.Int("batch_size", d.config.BatchSize),
	)

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping audit event dispatcher")
			return ctx.Err()
		case <-ticker.C:
			if err := d.DispatchPending(ctx); err != nil {
				d.logger.Error("failed to dispatch audit events", slog.Any("error", err))
			}
		}
	}
}

// DispatchPending delivers one batch of pending events inside a transaction.
// A failed delivery increments the retry counter; events that exhaust
// MaxRetries are marked failed and left in the table for inspection.
func (d *eventDispatcher) DispatchPending(ctx context.Context) error {
	return d.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := d.repo.GetPendingEvents(ctx, d.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		for _, event := range events {
			if err := d.sink.Deliver(ctx, event); err != nil {
				d.logger.Error("failed to deliver audit event",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
					slog.Any("error", err),
				)

				event.Retries++
				errorMsg := err.Error()
				event.LastError = &errorMsg
				if event.Retries >= d.config.MaxRetries {
					event.Status = auditDomain.EventStatusFailed
				}

				if err := d.repo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			now := time.Now().UTC()
			event.Status = auditDomain.EventStatusDelivered
			event.DeliveredAt = &now

			if err := d.repo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}
