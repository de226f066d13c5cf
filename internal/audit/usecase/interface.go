// Package usecase implements audit recording and asynchronous delivery.
//
// Mutating use cases record events through Recorder inside their own
// transaction, so an audit row exists if and only if the mutation committed.
// The Dispatcher drains pending rows on an interval and hands them to a Sink.
package usecase

import (
	"context"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
)

// EventRepository defines audit event persistence operations.
type EventRepository interface {
	Create(ctx context.Context, event *auditDomain.Event) error
	GetPendingEvents(ctx context.Context, limit int) ([]*auditDomain.Event, error)
	Update(ctx context.Context, event *auditDomain.Event) error
}

// Recorder records audit events. Record must be called inside the transaction
// of the mutation being audited.
type Recorder interface {
	Record(ctx context.Context, eventType, actor string, payload any) error
}

// Sink delivers audit events to an external consumer.
type Sink interface {
	Deliver(ctx context.Context, event *auditDomain.Event) error
}

// Dispatcher drives delivery of pending audit events.
type Dispatcher interface {
	Start(ctx context.Context) error
	DispatchPending(ctx context.Context) error
}
