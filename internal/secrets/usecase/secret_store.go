package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	cryptoService "github.com/syncrete/vaultkit/internal/crypto/service"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
	vrules "github.com/syncrete/vaultkit/internal/validation"
)

// secretStore implements the SecretStore interface.
type secretStore struct {
	txManager   database.TxManager
	locker      database.AdvisoryLocker
	secretRepo  SecretRepository
	keys        *cryptoDomain.KeyContextHolder
	aeadManager cryptoService.AEADManager
	recorder    AuditRecorder
	actor       string
	logger      *slog.Logger
}

// NewSecretStore creates a secret store use case. The actor string identifies
// the calling surface (e.g. "cli", "server") in audit events.
func NewSecretStore(
	txManager database.TxManager,
	locker database.AdvisoryLocker,
	secretRepo SecretRepository,
	keys *cryptoDomain.KeyContextHolder,
	aeadManager cryptoService.AEADManager,
	recorder AuditRecorder,
	actor string,
	logger *slog.Logger,
) SecretStore {
	return &secretStore{
		txManager:   txManager,
		locker:      locker,
		secretRepo:  secretRepo,
		keys:        keys,
		aeadManager: aeadManager,
		recorder:    recorder,
		actor:       actor,
		logger:      logger,
	}
}

// opFailed maps internal failures to the generic caller-facing error while
// logging the actual cause. Not-found and validation errors pass through
// unchanged: they carry no storage or crypto detail.
func (s *secretStore) opFailed(ctx context.Context, operation, name string, err error) error {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrNotFound
	}
	if apperrors.Is(err, apperrors.ErrInvalidInput) && !apperrors.Is(err, cryptoDomain.ErrDecryptionFailed) &&
		!apperrors.Is(err, cryptoDomain.ErrMalformedEnvelope) {
		return err
	}

	s.logger.ErrorContext(ctx, "secret operation failed",
		slog.String("operation", operation),
		slog.String("name", name),
		slog.Any("error", err),
	)
	return apperrors.ErrOperationFailed
}

func (s *secretStore) currentCipher() (cryptoService.AEAD, *cryptoDomain.KeyContext, error) {
	kc, err := s.keys.Current()
	if err != nil {
		return nil, nil, err
	}
	cipher, err := s.aeadManager.CreateCipher(kc.Key, kc.Algorithm)
	if err != nil {
		return nil, nil, err
	}
	return cipher, kc, nil
}

// Store encrypts and persists a secret value under the current master key.
func (s *secretStore) Store(
	ctx context.Context,
	name string,
	plaintext []byte,
	metadata map[string]string,
) (*secretsDomain.Secret, error) {
	if err := vrules.WrapValidationError(validation.Validate(name, vrules.SecretName)); err != nil {
		return nil, err
	}
	if len(plaintext) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "secret value must not be empty")
	}

	cipher, _, err := s.currentCipher()
	if err != nil {
		return nil, s.opFailed(ctx, "store", name, err)
	}

	envelope, err := cipher.Seal(plaintext, secretsDomain.EncryptionContext(name))
	if err != nil {
		return nil, s.opFailed(ctx, "store", name, err)
	}

	now := time.Now().UTC()
	secret := &secretsDomain.Secret{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Envelope:  envelope,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
		Active:    true,
	}

	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		// Shared lock: ordinary writes proceed concurrently with each other
		// but never interleave with a running master key rotation.
		if err := s.locker.LockShared(txCtx); err != nil {
			return err
		}

		if err := s.secretRepo.DeactivateByName(txCtx, name); err != nil {
			return err
		}
		if err := s.secretRepo.Create(txCtx, secret); err != nil {
			return err
		}

		return s.recorder.Record(txCtx, auditDomain.EventSecretCreated, s.actor, map[string]string{
			"name":      name,
			"secret_id": secret.ID.String(),
		})
	})
	if err != nil {
		return nil, s.opFailed(ctx, "store", name, err)
	}

	return secret, nil
}

// Get retrieves and decrypts the active secret for a name.
func (s *secretStore) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	secret, err := s.secretRepo.GetActiveByName(ctx, name)
	if err != nil {
		return nil, s.opFailed(ctx, "get", name, err)
	}

	cipher, _, err := s.currentCipher()
	if err != nil {
		return nil, s.opFailed(ctx, "get", name, err)
	}

	plaintext, err := cipher.Open(secret.Envelope, secretsDomain.EncryptionContext(name))
	if err != nil {
		return nil, s.opFailed(ctx, "get", name, err)
	}

	secret.Plaintext = plaintext
	return secret, nil
}

// ListActive returns all active secrets without decrypting them.
func (s *secretStore) ListActive(ctx context.Context) ([]*secretsDomain.Secret, error) {
	secrets, err := s.secretRepo.ListActive(ctx)
	if err != nil {
		return nil, s.opFailed(ctx, "list", "", err)
	}
	return secrets, nil
}
