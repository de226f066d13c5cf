package usecase

import (
	"context"
	"time"

	"github.com/syncrete/vaultkit/internal/metrics"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
)

// coordinatorWithMetrics decorates KeyRotationCoordinator with metrics instrumentation.
type coordinatorWithMetrics struct {
	next    KeyRotationCoordinator
	metrics metrics.BusinessMetrics
}

// NewKeyRotationCoordinatorWithMetrics wraps a coordinator with metrics recording.
func NewKeyRotationCoordinatorWithMetrics(
	coordinator KeyRotationCoordinator,
	m metrics.BusinessMetrics,
) KeyRotationCoordinator {
	return &coordinatorWithMetrics{
		next:    coordinator,
		metrics: m,
	}
}

// RotateMasterKey records metrics for master key rotations.
func (c *coordinatorWithMetrics) RotateMasterKey(ctx context.Context) (*RotationResult, error) {
	start := time.Now()
	result, err := c.next.RotateMasterKey(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "rotation", "master_key_rotate", status)
	c.metrics.RecordDuration(ctx, "rotation", "master_key_rotate", time.Since(start), status)

	return result, err
}

// RotateJWTSecret records metrics for jwt secret rotations.
func (c *coordinatorWithMetrics) RotateJWTSecret(ctx context.Context) error {
	start := time.Now()
	err := c.next.RotateJWTSecret(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "rotation", "jwt_secret_rotate", status)
	c.metrics.RecordDuration(ctx, "rotation", "jwt_secret_rotate", time.Since(start), status)

	return err
}

// KeyRotationHistory records metrics for history reads.
func (c *coordinatorWithMetrics) KeyRotationHistory(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error) {
	start := time.Now()
	records, err := c.next.KeyRotationHistory(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "rotation", "key_history", status)
	c.metrics.RecordDuration(ctx, "rotation", "key_history", time.Since(start), status)

	return records, err
}

// ValidateEncryption records metrics for validation runs.
func (c *coordinatorWithMetrics) ValidateEncryption(ctx context.Context, sampleSize int) (*ValidationReport, error) {
	start := time.Now()
	report, err := c.next.ValidateEncryption(ctx, sampleSize)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "rotation", "validate_encryption", status)
	c.metrics.RecordDuration(ctx, "rotation", "validate_encryption", time.Since(start), status)

	return report, err
}
