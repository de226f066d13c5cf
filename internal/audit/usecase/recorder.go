package usecase

import (
	"context"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
)

// eventRecorder implements Recorder on top of an EventRepository.
type eventRecorder struct {
	repo EventRepository
}

// NewRecorder creates a Recorder backed by the given repository.
func NewRecorder(repo EventRepository) Recorder {
	return &eventRecorder{repo: repo}
}

// Record builds a pending event and persists it. The repository picks up the
// caller's transaction from the context when one is present.
func (r *eventRecorder) Record(ctx context.Context, eventType, actor string, payload any) error {
	event, err := auditDomain.NewEvent(eventType, actor, payload)
	if err != nil {
		return err
	}
	return r.repo.Create(ctx, event)
}
