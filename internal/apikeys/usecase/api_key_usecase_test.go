package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	apikeysService "github.com/syncrete/vaultkit/internal/apikeys/service"
	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	"github.com/syncrete/vaultkit/internal/metrics"
)

type fakeTxManager struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryAPIKeyRepository struct {
	mu   sync.Mutex
	keys []*apikeysDomain.APIKey

	touchErr error
}

func (m *memoryAPIKeyRepository) Create(ctx context.Context, key *apikeysDomain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *key
	m.keys = append(m.keys, &copied)
	return nil
}

func (m *memoryAPIKeyRepository) GetActiveByHash(ctx context.Context, keyHash string) (*apikeysDomain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.keys {
		if key.KeyHash == keyHash && key.Active {
			copied := *key
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memoryAPIKeyRepository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.keys {
		if key.ID == keyID && key.Active {
			key.Active = false
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memoryAPIKeyRepository) TouchLastUsed(ctx context.Context, keyID uuid.UUID, usedAt time.Time) error {
	if m.touchErr != nil {
		return m.touchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.keys {
		if key.ID == keyID {
			key.LastUsed = &usedAt
		}
	}
	return nil
}

func (m *memoryAPIKeyRepository) List(ctx context.Context) ([]*apikeysDomain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []*apikeysDomain.APIKey
	for _, key := range m.keys {
		copied := *key
		keys = append(keys, &copied)
	}
	return keys, nil
}

type recordedEvent struct {
	eventType string
	actor     string
}

type fakeRecorder struct {
	events []recordedEvent
}

func (f *fakeRecorder) Record(ctx context.Context, eventType, actor string, payload any) error {
	f.events = append(f.events, recordedEvent{eventType: eventType, actor: actor})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (APIKeyManager, *memoryAPIKeyRepository, *fakeRecorder) {
	t.Helper()
	repo := &memoryAPIKeyRepository{}
	recorder := &fakeRecorder{}
	manager := NewAPIKeyManager(
		&fakeTxManager{},
		repo,
		apikeysService.NewKeyService(),
		recorder,
		"cli",
		testLogger(),
	)
	return manager, repo, recorder
}

func TestAPIKeyManager_CreateAndValidate(t *testing.T) {
	manager, repo, recorder := newTestManager(t)
	ctx := context.Background()

	key, rawKey, err := manager.Create(ctx, "ci-deploy", []string{"secrets:read"}, "ops")
	require.NoError(t, err)
	assert.NotEmpty(t, rawKey)
	assert.True(t, key.Active)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, auditDomain.EventAPIKeyCreated, recorder.events[0].eventType)

	// Raw key material never reaches the repository.
	repo.mu.Lock()
	assert.NotContains(t, repo.keys[0].KeyHash, rawKey)
	repo.mu.Unlock()

	validated, err := manager.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.NotNil(t, validated)
	assert.Equal(t, key.ID, validated.ID)
	assert.NotNil(t, validated.LastUsed)
}

func TestAPIKeyManager_Create_InvalidInput(t *testing.T) {
	manager, _, recorder := newTestManager(t)
	ctx := context.Background()

	_, _, err := manager.Create(ctx, "  ", nil, "ops")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, _, err = manager.Create(ctx, "ci-deploy", []string{"Secrets:Read"}, "ops")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Empty(t, recorder.events)
}

func TestAPIKeyManager_Validate_MissReturnsNil(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	key, err := manager.Validate(ctx, "vk_0192f3a1_unknownsecret")
	require.NoError(t, err)
	assert.Nil(t, key)

	// Malformed keys miss without touching the repository.
	key, err = manager.Validate(ctx, "not-a-key")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestAPIKeyManager_Validate_RevokedKeyMisses(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	key, rawKey, err := manager.Create(ctx, "ci-deploy", nil, "ops")
	require.NoError(t, err)
	require.NoError(t, manager.Revoke(ctx, key.ID))

	validated, err := manager.Validate(ctx, rawKey)
	require.NoError(t, err)
	assert.Nil(t, validated)
}

func TestAPIKeyManager_Validate_TouchFailureIsBestEffort(t *testing.T) {
	repo := &memoryAPIKeyRepository{}
	manager := NewAPIKeyManager(
		&fakeTxManager{},
		repo,
		apikeysService.NewKeyService(),
		&fakeRecorder{},
		"cli",
		testLogger(),
	)
	ctx := context.Background()

	_, rawKey, err := manager.Create(ctx, "ci-deploy", nil, "ops")
	require.NoError(t, err)

	repo.touchErr = errors.New("deadlock detected")

	validated, err := manager.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.NotNil(t, validated)
	assert.Nil(t, validated.LastUsed)
}

func TestAPIKeyManager_Revoke(t *testing.T) {
	manager, _, recorder := newTestManager(t)
	ctx := context.Background()

	key, _, err := manager.Create(ctx, "ci-deploy", nil, "ops")
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, key.ID))
	require.Len(t, recorder.events, 2)
	assert.Equal(t, auditDomain.EventAPIKeyRevoked, recorder.events[1].eventType)

	// Second revoke signals the key is already gone.
	err = manager.Revoke(ctx, key.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = manager.Revoke(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAPIKeyManager_List(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	first, _, err := manager.Create(ctx, "first", nil, "ops")
	require.NoError(t, err)
	_, _, err = manager.Create(ctx, "second", nil, "ops")
	require.NoError(t, err)
	require.NoError(t, manager.Revoke(ctx, first.ID))

	keys, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	// Listings expose no credential material, even when the repository
	// returns rows with the hash populated.
	for _, key := range keys {
		assert.Empty(t, key.KeyHash)
	}
}

func TestAPIKeyManagerWithMetrics(t *testing.T) {
	manager, _, _ := newTestManager(t)
	wrapped := NewAPIKeyManagerWithMetrics(manager, metrics.NewNoOpBusinessMetrics())
	ctx := context.Background()

	key, rawKey, err := wrapped.Create(ctx, "ci-deploy", nil, "ops")
	require.NoError(t, err)

	validated, err := wrapped.Validate(ctx, rawKey)
	require.NoError(t, err)
	assert.Equal(t, key.ID, validated.ID)

	require.NoError(t, wrapped.Revoke(ctx, key.ID))

	keys, err := wrapped.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}
