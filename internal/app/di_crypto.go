package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	cryptoService "github.com/syncrete/vaultkit/internal/crypto/service"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
)

// cryptoDependencies groups the envelope encryption components.
type cryptoDependencies struct {
	aeadManager   cryptoService.AEADManager
	deriver       cryptoService.KeyDeriver
	materialStore cryptoService.KeyMaterialStore
	keyHolder     *cryptoDomain.KeyContextHolder

	aeadManagerInit   sync.Once
	deriverInit       sync.Once
	materialStoreInit sync.Once
	keyHolderInit     sync.Once
}

// AEADManager returns the AEAD cipher factory.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.cryptoDeps.aeadManagerInit.Do(func() {
		c.cryptoDeps.aeadManager = cryptoService.NewAEADManager()
	})
	return c.cryptoDeps.aeadManager
}

// KeyDeriver returns the master key derivation function.
func (c *Container) KeyDeriver() cryptoService.KeyDeriver {
	c.cryptoDeps.deriverInit.Do(func() {
		c.cryptoDeps.deriver = cryptoService.NewScryptDeriver()
	})
	return c.cryptoDeps.deriver
}

// KeyMaterialStore returns the persistent store for passphrase material.
func (c *Container) KeyMaterialStore() cryptoService.KeyMaterialStore {
	c.cryptoDeps.materialStoreInit.Do(func() {
		c.cryptoDeps.materialStore = cryptoService.NewFileKeyMaterialStore(c.config.KeyMaterialPath)
	})
	return c.cryptoDeps.materialStore
}

// currentAlgorithm parses the configured AEAD algorithm.
func (c *Container) currentAlgorithm() (cryptoDomain.Algorithm, error) {
	return cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
}

// KeyContextHolder returns the holder publishing the current master key.
// On first access it loads (or generates) the passphrase material, derives the
// key, and resolves the active key version from the database.
func (c *Container) KeyContextHolder(ctx context.Context) (*cryptoDomain.KeyContextHolder, error) {
	c.cryptoDeps.keyHolderInit.Do(func() {
		holder, err := c.initKeyContextHolder(ctx)
		if err != nil {
			c.initErrors["keyHolder"] = err
			return
		}
		c.cryptoDeps.keyHolder = holder
	})
	if storedErr, exists := c.initErrors["keyHolder"]; exists {
		return nil, storedErr
	}
	return c.cryptoDeps.keyHolder, nil
}

func (c *Container) initKeyContextHolder(ctx context.Context) (*cryptoDomain.KeyContextHolder, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption algorithm: %w", err)
	}

	keyRepo, err := c.KeyRecordRepository()
	if err != nil {
		return nil, err
	}
	materialStore := c.KeyMaterialStore()

	// The active key record decides which material file to derive from. A
	// crash between a rotation's database commit and the current-material
	// replacement leaves the current file one version behind; the versioned
	// copy written before the commit is still resolvable here.
	var version int64
	var material []byte
	record, err := keyRepo.GetActive(ctx)
	switch {
	case err == nil:
		version = record.KeyVersion
		material, err = materialStore.LoadVersion(version)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			// Layouts written before versioned copies existed only have the
			// current file.
			material, err = materialStore.Load()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load key material for version %d: %w", version, err)
		}
	case apperrors.Is(err, apperrors.ErrNotFound):
		// First boot: generate material and register the initial key record.
		material, err = cryptoService.NewKeyMaterial()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key material: %w", err)
		}
		initial := &rotationDomain.EncryptionKeyRecord{
			ID:         uuid.Must(uuid.NewV7()),
			KeyVersion: time.Now().UTC().Unix(),
			CreatedAt:  time.Now().UTC(),
			Active:     true,
			RotatedBy:  "bootstrap",
		}
		if err := materialStore.Save(material); err != nil {
			return nil, fmt.Errorf("failed to persist key material: %w", err)
		}
		if err := materialStore.SaveVersion(initial.KeyVersion, material); err != nil {
			return nil, fmt.Errorf("failed to persist versioned key material: %w", err)
		}
		if err := keyRepo.Create(ctx, initial); err != nil {
			return nil, fmt.Errorf("failed to create initial key record: %w", err)
		}
		version = initial.KeyVersion
		c.Logger().Info("generated new master key material",
			slog.String("path", c.config.KeyMaterialPath),
			slog.Int64("key_version", version),
		)
	default:
		return nil, fmt.Errorf("failed to resolve active key version: %w", err)
	}

	key, err := c.KeyDeriver().Derive(material)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	cryptoDomain.Zero(material)

	return cryptoDomain.NewKeyContextHolder(&cryptoDomain.KeyContext{
		Version:   version,
		Key:       key,
		Algorithm: algorithm,
	}), nil
}
