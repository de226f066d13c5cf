package usecase

import (
	"context"
	"time"

	"github.com/syncrete/vaultkit/internal/metrics"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

// secretStoreWithMetrics decorates SecretStore with metrics instrumentation.
type secretStoreWithMetrics struct {
	next    SecretStore
	metrics metrics.BusinessMetrics
}

// NewSecretStoreWithMetrics wraps a SecretStore with metrics recording.
func NewSecretStoreWithMetrics(store SecretStore, m metrics.BusinessMetrics) SecretStore {
	return &secretStoreWithMetrics{
		next:    store,
		metrics: m,
	}
}

// Store records metrics for secret store operations.
func (s *secretStoreWithMetrics) Store(
	ctx context.Context,
	name string,
	plaintext []byte,
	metadata map[string]string,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Store(ctx, name, plaintext, metadata)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "secrets", "secret_store", status)
	s.metrics.RecordDuration(ctx, "secrets", "secret_store", time.Since(start), status)

	return secret, err
}

// Get records metrics for secret retrieval operations.
func (s *secretStoreWithMetrics) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Get(ctx, name)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "secrets", "secret_get", status)
	s.metrics.RecordDuration(ctx, "secrets", "secret_get", time.Since(start), status)

	return secret, err
}

// ListActive records metrics for secret listing operations.
func (s *secretStoreWithMetrics) ListActive(ctx context.Context) ([]*secretsDomain.Secret, error) {
	start := time.Now()
	secrets, err := s.next.ListActive(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "secrets", "secret_list", status)
	s.metrics.RecordDuration(ctx, "secrets", "secret_list", time.Since(start), status)

	return secrets, err
}
