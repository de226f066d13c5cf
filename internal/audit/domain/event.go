// Package domain defines the audit event entities recorded by the
// transactional outbox. Events are written in the same transaction as the
// mutation they describe and delivered asynchronously by the dispatcher.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// EventStatus represents the delivery status of an audit event.
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusDelivered EventStatus = "delivered"
	EventStatusFailed    EventStatus = "failed"
)

// Audit event types emitted by the subsystem.
const (
	EventSecretCreated     = "secret_created"
	EventSecretRotated     = "secret_rotated"
	EventJWTSecretRotated  = "jwt_secret_rotated"
	EventAPIKeyCreated     = "api_key_created"
	EventAPIKeyRevoked     = "api_key_revoked"
	EventRotationStarted   = "rotation_started"
	EventRotationFailed    = "rotation_failed"
	EventRotationCompleted = "rotation_completed"
)

// Event represents a single audit record. Payload is a JSON document and must
// never contain plaintext secret values.
type Event struct {
	ID          uuid.UUID
	EventType   string
	Actor       string
	Payload     string
	Status      EventStatus
	Retries     int
	LastError   *string
	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent builds a pending audit event with a JSON-encoded payload.
func NewEvent(eventType, actor string, payload any) (*Event, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode audit payload")
	}

	now := time.Now().UTC()
	return &Event{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Actor:     actor,
		Payload:   string(encoded),
		Status:    EventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
