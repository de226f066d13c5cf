package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	apikeysService "github.com/syncrete/vaultkit/internal/apikeys/service"
	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	vrules "github.com/syncrete/vaultkit/internal/validation"
)

// apiKeyManager implements the APIKeyManager interface.
type apiKeyManager struct {
	txManager  database.TxManager
	keyRepo    APIKeyRepository
	keyService apikeysService.KeyService
	recorder   AuditRecorder
	actor      string
	logger     *slog.Logger
}

// NewAPIKeyManager creates an api key manager use case.
func NewAPIKeyManager(
	txManager database.TxManager,
	keyRepo APIKeyRepository,
	keyService apikeysService.KeyService,
	recorder AuditRecorder,
	actor string,
	logger *slog.Logger,
) APIKeyManager {
	return &apiKeyManager{
		txManager:  txManager,
		keyRepo:    keyRepo,
		keyService: keyService,
		recorder:   recorder,
		actor:      actor,
		logger:     logger,
	}
}

// Create issues a new api key.
func (a *apiKeyManager) Create(
	ctx context.Context,
	name string,
	permissions []string,
	createdBy string,
) (*apikeysDomain.APIKey, string, error) {
	if err := vrules.WrapValidationError(validation.Validate(name, vrules.NotBlank, vrules.NoWhitespace)); err != nil {
		return nil, "", err
	}
	for _, permission := range permissions {
		if err := vrules.WrapValidationError(validation.Validate(permission, vrules.Permission)); err != nil {
			return nil, "", err
		}
	}

	id, rawKey, keyHash, err := a.keyService.Generate()
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	key := &apikeysDomain.APIKey{
		ID:          id,
		KeyHash:     keyHash,
		Name:        name,
		Permissions: permissions,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
		Active:      true,
	}

	err = a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := a.keyRepo.Create(txCtx, key); err != nil {
			return err
		}
		return a.recorder.Record(txCtx, auditDomain.EventAPIKeyCreated, a.actor, map[string]string{
			"key_id":  key.ID.String(),
			"name":    name,
			"preview": apikeysDomain.MaskKey(rawKey),
		})
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "api key creation failed",
			slog.String("name", name),
			slog.Any("error", err),
		)
		return nil, "", apperrors.ErrOperationFailed
	}

	return key, rawKey, nil
}

// Validate checks a presented raw key against the stored hashes.
func (a *apiKeyManager) Validate(ctx context.Context, rawKey string) (*apikeysDomain.APIKey, error) {
	if !a.keyService.WellFormed(rawKey) {
		return nil, nil
	}

	key, err := a.keyRepo.GetActiveByHash(ctx, a.keyService.HashKey(rawKey))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		a.logger.ErrorContext(ctx, "api key validation failed", slog.Any("error", err))
		return nil, apperrors.ErrOperationFailed
	}

	// Best effort: a failed touch must not invalidate an otherwise valid key.
	usedAt := time.Now().UTC()
	if err := a.keyRepo.TouchLastUsed(ctx, key.ID, usedAt); err != nil {
		a.logger.WarnContext(ctx, "failed to update api key last_used",
			slog.String("key_id", key.ID.String()),
			slog.Any("error", err),
		)
	} else {
		key.LastUsed = &usedAt
	}

	return key, nil
}

// Revoke deactivates a key.
func (a *apiKeyManager) Revoke(ctx context.Context, keyID uuid.UUID) error {
	err := a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := a.keyRepo.Revoke(txCtx, keyID); err != nil {
			return err
		}
		return a.recorder.Record(txCtx, auditDomain.EventAPIKeyRevoked, a.actor, map[string]string{
			"key_id": keyID.String(),
		})
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		a.logger.ErrorContext(ctx, "api key revocation failed",
			slog.String("key_id", keyID.String()),
			slog.Any("error", err),
		)
		return apperrors.ErrOperationFailed
	}
	return nil
}

// List returns all keys without credential material. The stored hash never
// leaves this surface: a listing must not contain any value a presented key
// could be checked against.
func (a *apiKeyManager) List(ctx context.Context) ([]*apikeysDomain.APIKey, error) {
	keys, err := a.keyRepo.List(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "api key listing failed", slog.Any("error", err))
		return nil, apperrors.ErrOperationFailed
	}
	for _, key := range keys {
		key.KeyHash = ""
	}
	return keys, nil
}
