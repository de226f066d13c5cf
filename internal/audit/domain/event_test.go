package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventSecretCreated, "cli", map[string]string{"name": "JWT_SECRET"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventSecretCreated, event.EventType)
	assert.Equal(t, "cli", event.Actor)
	assert.JSONEq(t, `{"name":"JWT_SECRET"}`, event.Payload)
	assert.Equal(t, EventStatusPending, event.Status)
	assert.Zero(t, event.Retries)
	assert.Nil(t, event.DeliveredAt)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent(EventRotationStarted, "cli", make(chan int))
	assert.Error(t, err)
}
