// Package integrity runs periodic encryption validation over the stored
// secrets, so an undecryptable row is noticed long before an operator asks
// for it.
package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
)

// Validator is the slice of the rotation coordinator the scheduler needs.
type Validator interface {
	ValidateEncryption(ctx context.Context, sampleSize int) (*rotationUsecase.ValidationReport, error)
}

// Scheduler runs ValidateEncryption on a cron schedule.
type Scheduler struct {
	validator  Validator
	schedule   cron.Schedule
	sampleSize int
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler from a standard five-field cron expression.
func NewScheduler(
	validator Validator,
	cronExpr string,
	sampleSize int,
	logger *slog.Logger,
) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse validation schedule %q: %w", cronExpr, err)
	}

	return &Scheduler{
		validator:  validator,
		schedule:   schedule,
		sampleSize: sampleSize,
		logger:     logger,
	}, nil
}

// Start launches the background validation loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("integrity scheduler already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(loopCtx)
	s.logger.Info("integrity scheduler started",
		slog.Time("next_run", s.schedule.Next(time.Now())),
	)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single validation pass. Failures are logged, never fatal:
// the loop keeps running so a transient failure does not stop future checks.
func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.validator.ValidateEncryption(ctx, s.sampleSize)
	if err != nil {
		if report != nil {
			s.logger.Error("scheduled encryption validation found failures",
				slog.Int("checked", report.Checked),
				slog.Any("failed", report.Failed),
			)
			return
		}
		s.logger.Error("scheduled encryption validation did not run",
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("scheduled encryption validation passed",
		slog.Int("checked", report.Checked),
	)
}

// Stop shuts down the loop and waits for an in-flight validation to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("integrity scheduler stopped")
	return nil
}

// NextRun reports when the next validation is due.
func (s *Scheduler) NextRun(from time.Time) time.Time {
	return s.schedule.Next(from)
}
