package service

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// FileKeyMaterialStore persists passphrase material to files created with
// owner-only permissions. This is the external configuration surface a
// restarted process reads to rederive the current master key. Besides the
// current material, a copy is kept per key version so startup can resolve the
// material matching the active key record even if a crash interrupted a
// rotation before the current file was replaced.
type FileKeyMaterialStore struct {
	path string
}

// NewFileKeyMaterialStore creates a store for the given path.
func NewFileKeyMaterialStore(path string) *FileKeyMaterialStore {
	return &FileKeyMaterialStore{path: path}
}

func (s *FileKeyMaterialStore) versionPath(version int64) string {
	return fmt.Sprintf("%s.v%d", s.path, version)
}

// Load reads the current passphrase material.
// Returns ErrNotFound if no material has been written yet.
func (s *FileKeyMaterialStore) Load() ([]byte, error) {
	return s.read(s.path)
}

// LoadVersion reads the material persisted for a specific key version.
// Returns ErrNotFound if no material was written for that version.
func (s *FileKeyMaterialStore) LoadVersion(version int64) ([]byte, error) {
	return s.read(s.versionPath(version))
}

func (s *FileKeyMaterialStore) read(path string) ([]byte, error) {
	material, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read key material")
	}
	return material, nil
}

// Save writes new passphrase material as the current material.
func (s *FileKeyMaterialStore) Save(material []byte) error {
	return s.write(s.path, material)
}

// SaveVersion writes passphrase material under a key-version suffix. Rotation
// persists the new version's material this way before committing, so a crash
// between commit and the current-file replacement cannot strand the database
// on a key no file rederives.
func (s *FileKeyMaterialStore) SaveVersion(version int64, material []byte) error {
	return s.write(s.versionPath(version), material)
}

// write creates the parent directory with owner-only access and goes through
// a temp file and rename so a crash mid-write cannot leave truncated material
// behind.
func (s *FileKeyMaterialStore) write(path string, material []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.Wrap(err, "failed to create key material directory")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, material, 0o600); err != nil {
		return apperrors.Wrap(err, "failed to write key material")
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperrors.Wrap(err, "failed to replace key material")
	}
	return nil
}
