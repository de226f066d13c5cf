package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	cryptoService "github.com/syncrete/vaultkit/internal/crypto/service"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

// ErrRotationInProgress is returned when a rotation is requested while another
// one is still running in this process.
var ErrRotationInProgress = apperrors.Wrap(apperrors.ErrConflict, "rotation already in progress")

// keyRotationCoordinator implements KeyRotationCoordinator.
type keyRotationCoordinator struct {
	txManager     database.TxManager
	locker        database.AdvisoryLocker
	secretRepo    SecretRepository
	keyRepo       KeyRecordRepository
	historyRepo   SecretHistoryRepository
	secretReader  SecretReader
	keys          *cryptoDomain.KeyContextHolder
	aeadManager   cryptoService.AEADManager
	deriver       cryptoService.KeyDeriver
	materialStore cryptoService.KeyMaterialStore
	algorithm     cryptoDomain.Algorithm
	recorder      AuditRecorder
	actor         string
	timeout       time.Duration
	logger        *slog.Logger

	// mu serializes rotations within the process; the advisory lock
	// serializes them across processes.
	mu sync.Mutex
}

// NewKeyRotationCoordinator creates the rotation coordinator.
func NewKeyRotationCoordinator(
	txManager database.TxManager,
	locker database.AdvisoryLocker,
	secretRepo SecretRepository,
	keyRepo KeyRecordRepository,
	historyRepo SecretHistoryRepository,
	secretReader SecretReader,
	keys *cryptoDomain.KeyContextHolder,
	aeadManager cryptoService.AEADManager,
	deriver cryptoService.KeyDeriver,
	materialStore cryptoService.KeyMaterialStore,
	algorithm cryptoDomain.Algorithm,
	recorder AuditRecorder,
	actor string,
	timeout time.Duration,
	logger *slog.Logger,
) KeyRotationCoordinator {
	return &keyRotationCoordinator{
		txManager:     txManager,
		locker:        locker,
		secretRepo:    secretRepo,
		keyRepo:       keyRepo,
		historyRepo:   historyRepo,
		secretReader:  secretReader,
		keys:          keys,
		aeadManager:   aeadManager,
		deriver:       deriver,
		materialStore: materialStore,
		algorithm:     algorithm,
		recorder:      recorder,
		actor:         actor,
		timeout:       timeout,
		logger:        logger,
	}
}

// RotateMasterKey runs the full rotation protocol.
func (c *keyRotationCoordinator) RotateMasterKey(ctx context.Context) (*RotationResult, error) {
	if !c.mu.TryLock() {
		return nil, ErrRotationInProgress
	}
	defer c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()

	oldKC, err := c.keys.Current()
	if err != nil {
		return nil, err
	}
	oldCipher, err := c.aeadManager.CreateCipher(oldKC.Key, oldKC.Algorithm)
	if err != nil {
		return nil, err
	}

	// Recorded outside any transaction so the start marker survives a rollback.
	if err := c.recorder.Record(ctx, auditDomain.EventRotationStarted, c.actor, map[string]any{
		"old_key_version": oldKC.Version,
	}); err != nil {
		return nil, err
	}

	newMaterial, err := cryptoService.NewKeyMaterial()
	if err != nil {
		return nil, c.failRotation(ctx, oldKC.Version, "derive", err)
	}
	newKey, err := c.deriver.Derive(newMaterial)
	if err != nil {
		return nil, c.failRotation(ctx, oldKC.Version, "derive", err)
	}

	newKC := &cryptoDomain.KeyContext{
		Version:   nextKeyVersion(oldKC.Version),
		Key:       newKey,
		Algorithm: c.algorithm,
	}
	newCipher, err := c.aeadManager.CreateCipher(newKC.Key, newKC.Algorithm)
	if err != nil {
		return nil, c.failRotation(ctx, oldKC.Version, "derive", err)
	}

	c.logger.InfoContext(ctx, "master key rotation started",
		slog.Int64("old_key_version", oldKC.Version),
		slog.Int64("new_key_version", newKC.Version),
	)

	secrets, err := c.secretRepo.ListActive(ctx)
	if err != nil {
		return nil, c.failRotation(ctx, oldKC.Version, "snapshot", err)
	}

	// Nothing to re-encrypt: the old key stays authoritative and no key
	// record is written.
	if len(secrets) == 0 {
		cryptoDomain.Zero(newKC.Key)
		result := &RotationResult{
			KeyVersion:         oldKC.Version,
			PreviousKeyVersion: oldKC.Version,
			SecretsReencrypted: 0,
			State:              rotationDomain.StateCommitted,
			Duration:           time.Since(start),
		}
		if err := c.recorder.Record(ctx, auditDomain.EventRotationCompleted, c.actor, map[string]any{
			"old_key_version":     oldKC.Version,
			"new_key_version":     oldKC.Version,
			"secrets_reencrypted": 0,
		}); err != nil {
			c.logger.WarnContext(ctx, "failed to record rotation completion", slog.Any("error", err))
		}
		c.logger.InfoContext(ctx, "master key rotation skipped, no active secrets")
		return result, nil
	}

	// Snapshots are written in their own transaction, before re-encryption
	// begins. They are keyed by the old key version and survive a rollback.
	if err := c.snapshotSecrets(ctx, secrets, oldKC.Version); err != nil {
		return nil, c.failRotation(ctx, oldKC.Version, "snapshot", err)
	}
	snapshotted := make(map[uuid.UUID]struct{}, len(secrets))
	for _, secret := range secrets {
		snapshotted[secret.ID] = struct{}{}
	}

	// The versioned material is persisted before anything commits. A crash
	// between the re-encrypt commit and the current-material replacement
	// leaves a restarted process able to resolve this file through the active
	// key record. A failed rotation leaves an orphan version file behind,
	// which nothing references.
	if err := c.materialStore.SaveVersion(newKC.Version, newMaterial); err != nil {
		return nil, c.failRotation(ctx, oldKC.Version, "persist-material", err)
	}

	rotated, err := c.reencryptSecrets(ctx, snapshotted, oldCipher, newCipher, oldKC.Version, newKC)
	if err != nil {
		return nil, err
	}
	reencrypted := len(rotated)

	if err := c.materialStore.Save(newMaterial); err != nil {
		// The database already holds envelopes under the new key: publish the
		// context so this process keeps working, but surface the persistence
		// failure loudly. A restart can still recover through the versioned
		// material file.
		c.keys.Publish(newKC)
		c.logger.ErrorContext(ctx, "rotation committed but current key material not replaced",
			slog.Int64("key_version", newKC.Version),
			slog.Any("error", err),
		)
		return nil, apperrors.Wrap(err, "rotation committed but current key material not replaced")
	}

	previous := c.keys.Publish(newKC)
	if previous != nil {
		cryptoDomain.Zero(previous.Key)
	}

	if err := c.verifySecrets(ctx, rotated); err != nil {
		c.logger.ErrorContext(ctx, "post-rotation verification failed",
			slog.Int64("key_version", newKC.Version),
			slog.Any("error", err),
		)
		return nil, err
	}

	result := &RotationResult{
		KeyVersion:         newKC.Version,
		PreviousKeyVersion: oldKC.Version,
		SecretsReencrypted: reencrypted,
		State:              rotationDomain.StateCommitted,
		Duration:           time.Since(start),
	}

	if err := c.recorder.Record(ctx, auditDomain.EventRotationCompleted, c.actor, map[string]any{
		"old_key_version":     oldKC.Version,
		"new_key_version":     newKC.Version,
		"secrets_reencrypted": reencrypted,
		"duration_ms":         result.Duration.Milliseconds(),
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to record rotation completion", slog.Any("error", err))
	}

	c.logger.InfoContext(ctx, "master key rotation completed",
		slog.Int64("new_key_version", newKC.Version),
		slog.Int("secrets_reencrypted", reencrypted),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// nextKeyVersion produces a strictly increasing time-based version even when
// two rotations land in the same second.
func nextKeyVersion(previous int64) int64 {
	version := time.Now().UTC().Unix()
	if version <= previous {
		version = previous + 1
	}
	return version
}

func (c *keyRotationCoordinator) snapshotSecrets(
	ctx context.Context,
	secrets []*secretsDomain.Secret,
	keyVersion int64,
) error {
	if len(secrets) == 0 {
		return nil
	}

	return c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()
		for _, secret := range secrets {
			snapshot := &rotationDomain.SecretSnapshot{
				ID:            uuid.Must(uuid.NewV7()),
				SecretID:      secret.ID,
				KeyVersion:    keyVersion,
				Name:          secret.Name,
				Envelope:      secret.Envelope,
				Metadata:      secret.Metadata,
				SnapshottedAt: now,
			}
			if err := c.historyRepo.Snapshot(txCtx, snapshot); err != nil {
				return err
			}
		}
		return nil
	})
}

// reencryptSecrets swaps every envelope to the new key inside one transaction,
// also switching the active key record. Any per-secret failure aborts and
// rolls back the whole batch. Returns the set of secrets actually rotated.
func (c *keyRotationCoordinator) reencryptSecrets(
	ctx context.Context,
	snapshotted map[uuid.UUID]struct{},
	oldCipher, newCipher cryptoService.AEAD,
	oldKeyVersion int64,
	newKC *cryptoDomain.KeyContext,
) ([]*secretsDomain.Secret, error) {
	var failed []string
	var secrets []*secretsDomain.Secret

	err := c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		// Exclusive lock: no secret write can interleave with re-encryption.
		if err := c.locker.LockExclusive(txCtx); err != nil {
			return err
		}

		// Re-enumerate under the lock. A store that committed between the
		// first enumeration and lock acquisition sealed its row under the old
		// key; it must be picked up here or it becomes undecryptable once the
		// new key context is published.
		var err error
		secrets, err = c.secretRepo.ListActive(txCtx)
		if err != nil {
			return err
		}

		// Rows that arrived after the pre-pass get their snapshot inside this
		// transaction. On rollback those rows were not mutated either.
		snapshotTime := time.Now().UTC()
		for _, secret := range secrets {
			if _, ok := snapshotted[secret.ID]; ok {
				continue
			}
			snapshot := &rotationDomain.SecretSnapshot{
				ID:            uuid.Must(uuid.NewV7()),
				SecretID:      secret.ID,
				KeyVersion:    oldKeyVersion,
				Name:          secret.Name,
				Envelope:      secret.Envelope,
				Metadata:      secret.Metadata,
				SnapshottedAt: snapshotTime,
			}
			if err := c.historyRepo.Snapshot(txCtx, snapshot); err != nil {
				return err
			}
		}

		for _, secret := range secrets {
			plaintext, err := oldCipher.Open(secret.Envelope, secretsDomain.EncryptionContext(secret.Name))
			if err != nil {
				failed = append(failed, secret.Name)
				continue
			}

			envelope, err := newCipher.Seal(plaintext, secretsDomain.EncryptionContext(secret.Name))
			cryptoDomain.Zero(plaintext)
			if err != nil {
				failed = append(failed, secret.Name)
				continue
			}

			// In-transaction verification: the new envelope must open before
			// anything is committed.
			reopened, err := newCipher.Open(envelope, secretsDomain.EncryptionContext(secret.Name))
			if err != nil {
				failed = append(failed, secret.Name)
				continue
			}
			cryptoDomain.Zero(reopened)

			if err := c.secretRepo.UpdateEnvelope(txCtx, secret.ID, envelope); err != nil {
				failed = append(failed, secret.Name)
				continue
			}
		}

		if len(failed) > 0 {
			return &rotationDomain.RotationError{FailedSecrets: failed}
		}

		now := time.Now().UTC()
		if err := c.keyRepo.DeactivateActive(txCtx, now); err != nil {
			return err
		}
		return c.keyRepo.Create(txCtx, &rotationDomain.EncryptionKeyRecord{
			ID:           uuid.Must(uuid.NewV7()),
			KeyVersion:   newKC.Version,
			CreatedAt:    now,
			Active:       true,
			RotatedBy:    c.actor,
			SecretsCount: len(secrets),
		})
	})
	if err != nil {
		if rotationErr, ok := errAs[*rotationDomain.RotationError](err); ok {
			return nil, c.failRotationWith(ctx, oldKeyVersion, "reencrypt", rotationErr, rotationErr.FailedSecrets)
		}
		return nil, c.failRotation(ctx, oldKeyVersion, "reencrypt", err)
	}

	return secrets, nil
}

// verifySecrets reads every rotated secret back through the normal decryption
// path under the freshly published key context.
func (c *keyRotationCoordinator) verifySecrets(ctx context.Context, secrets []*secretsDomain.Secret) error {
	var failed []string
	for _, secret := range secrets {
		decrypted, err := c.secretReader.Get(ctx, secret.Name)
		if err != nil {
			failed = append(failed, secret.Name)
			continue
		}
		cryptoDomain.Zero(decrypted.Plaintext)
	}
	if len(failed) > 0 {
		return &rotationDomain.VerificationError{FailedSecrets: failed}
	}
	return nil
}

// failRotation records the failure and returns the original error.
func (c *keyRotationCoordinator) failRotation(ctx context.Context, oldKeyVersion int64, stage string, err error) error {
	return c.failRotationWith(ctx, oldKeyVersion, stage, err, nil)
}

func (c *keyRotationCoordinator) failRotationWith(
	ctx context.Context,
	oldKeyVersion int64,
	stage string,
	err error,
	failedSecrets []string,
) error {
	c.logger.ErrorContext(ctx, "master key rotation failed",
		slog.Int64("old_key_version", oldKeyVersion),
		slog.String("stage", stage),
		slog.Any("error", err),
	)

	payload := map[string]any{
		"old_key_version": oldKeyVersion,
		"stage":           stage,
		"error":           err.Error(),
	}
	if len(failedSecrets) > 0 {
		payload["failed_secrets"] = failedSecrets
	}
	if recordErr := c.recorder.Record(ctx, auditDomain.EventRotationFailed, c.actor, payload); recordErr != nil {
		c.logger.WarnContext(ctx, "failed to record rotation failure", slog.Any("error", recordErr))
	}

	return err
}

// errAs is a small generic wrapper around errors.As.
func errAs[T error](err error) (T, bool) {
	var target T
	ok := apperrors.As(err, &target)
	return target, ok
}

// KeyRotationHistory returns all key records, newest first.
func (c *keyRotationCoordinator) KeyRotationHistory(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error) {
	return c.keyRepo.ListHistory(ctx)
}
