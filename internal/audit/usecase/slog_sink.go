package usecase

import (
	"context"
	"log/slog"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
)

// SlogSink delivers audit events to the structured log. It is the default sink
// when no external audit collector is configured.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a SlogSink.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Deliver writes the event as a structured log record.
func (s *SlogSink) Deliver(ctx context.Context, event *auditDomain.Event) error {
	s.logger.InfoContext(ctx, "audit event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("actor", event.Actor),
		slog.String("payload", event.Payload),
		slog.Time("recorded_at", event.CreatedAt),
	)
	return nil
}
