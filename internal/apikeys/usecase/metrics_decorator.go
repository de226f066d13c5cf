package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	"github.com/syncrete/vaultkit/internal/metrics"
)

// apiKeyManagerWithMetrics decorates APIKeyManager with metrics instrumentation.
type apiKeyManagerWithMetrics struct {
	next    APIKeyManager
	metrics metrics.BusinessMetrics
}

// NewAPIKeyManagerWithMetrics wraps an APIKeyManager with metrics recording.
func NewAPIKeyManagerWithMetrics(manager APIKeyManager, m metrics.BusinessMetrics) APIKeyManager {
	return &apiKeyManagerWithMetrics{
		next:    manager,
		metrics: m,
	}
}

// Create records metrics for api key issuance.
func (a *apiKeyManagerWithMetrics) Create(
	ctx context.Context,
	name string,
	permissions []string,
	createdBy string,
) (*apikeysDomain.APIKey, string, error) {
	start := time.Now()
	key, rawKey, err := a.next.Create(ctx, name, permissions, createdBy)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "apikeys", "api_key_create", status)
	a.metrics.RecordDuration(ctx, "apikeys", "api_key_create", time.Since(start), status)

	return key, rawKey, err
}

// Validate records metrics for api key validation. A miss counts as success:
// the operation completed, the key simply did not match.
func (a *apiKeyManagerWithMetrics) Validate(ctx context.Context, rawKey string) (*apikeysDomain.APIKey, error) {
	start := time.Now()
	key, err := a.next.Validate(ctx, rawKey)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "apikeys", "api_key_validate", status)
	a.metrics.RecordDuration(ctx, "apikeys", "api_key_validate", time.Since(start), status)

	return key, err
}

// Revoke records metrics for api key revocation.
func (a *apiKeyManagerWithMetrics) Revoke(ctx context.Context, keyID uuid.UUID) error {
	start := time.Now()
	err := a.next.Revoke(ctx, keyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "apikeys", "api_key_revoke", status)
	a.metrics.RecordDuration(ctx, "apikeys", "api_key_revoke", time.Since(start), status)

	return err
}

// List records metrics for api key listing.
func (a *apiKeyManagerWithMetrics) List(ctx context.Context) ([]*apikeysDomain.APIKey, error) {
	start := time.Now()
	keys, err := a.next.List(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "apikeys", "api_key_list", status)
	a.metrics.RecordDuration(ctx, "apikeys", "api_key_list", time.Since(start), status)

	return keys, err
}
