package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSecretStore struct {
	storeFn func(ctx context.Context, name string, plaintext []byte, metadata map[string]string) (*secretsDomain.Secret, error)
	getFn   func(ctx context.Context, name string) (*secretsDomain.Secret, error)
	listFn  func(ctx context.Context) ([]*secretsDomain.Secret, error)
}

func (f *fakeSecretStore) Store(ctx context.Context, name string, plaintext []byte, metadata map[string]string) (*secretsDomain.Secret, error) {
	return f.storeFn(ctx, name, plaintext, metadata)
}

func (f *fakeSecretStore) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	return f.getFn(ctx, name)
}

func (f *fakeSecretStore) ListActive(ctx context.Context) ([]*secretsDomain.Secret, error) {
	return f.listFn(ctx)
}

type fakeCoordinator struct {
	rotateFn   func(ctx context.Context) (*rotationUsecase.RotationResult, error)
	jwtFn      func(ctx context.Context) error
	historyFn  func(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error)
	validateFn func(ctx context.Context, sampleSize int) (*rotationUsecase.ValidationReport, error)
}

func (f *fakeCoordinator) RotateMasterKey(ctx context.Context) (*rotationUsecase.RotationResult, error) {
	return f.rotateFn(ctx)
}

func (f *fakeCoordinator) RotateJWTSecret(ctx context.Context) error {
	return f.jwtFn(ctx)
}

func (f *fakeCoordinator) KeyRotationHistory(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error) {
	return f.historyFn(ctx)
}

func (f *fakeCoordinator) ValidateEncryption(ctx context.Context, sampleSize int) (*rotationUsecase.ValidationReport, error) {
	return f.validateFn(ctx, sampleSize)
}

type fakeAPIKeyManager struct {
	createFn   func(ctx context.Context, name string, permissions []string, createdBy string) (*apikeysDomain.APIKey, string, error)
	validateFn func(ctx context.Context, rawKey string) (*apikeysDomain.APIKey, error)
	revokeFn   func(ctx context.Context, keyID uuid.UUID) error
	listFn     func(ctx context.Context) ([]*apikeysDomain.APIKey, error)
}

func (f *fakeAPIKeyManager) Create(ctx context.Context, name string, permissions []string, createdBy string) (*apikeysDomain.APIKey, string, error) {
	return f.createFn(ctx, name, permissions, createdBy)
}

func (f *fakeAPIKeyManager) Validate(ctx context.Context, rawKey string) (*apikeysDomain.APIKey, error) {
	return f.validateFn(ctx, rawKey)
}

func (f *fakeAPIKeyManager) Revoke(ctx context.Context, keyID uuid.UUID) error {
	return f.revokeFn(ctx, keyID)
}

func (f *fakeAPIKeyManager) List(ctx context.Context) ([]*apikeysDomain.APIKey, error) {
	return f.listFn(ctx)
}
