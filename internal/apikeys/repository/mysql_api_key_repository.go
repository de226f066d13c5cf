package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// MySQLAPIKeyRepository implements APIKey persistence for MySQL. UUIDs are
// stored in binary form.
type MySQLAPIKeyRepository struct {
	db *sql.DB
}

// NewMySQLAPIKeyRepository creates a new MySQL APIKey repository instance.
func NewMySQLAPIKeyRepository(db *sql.DB) *MySQLAPIKeyRepository {
	return &MySQLAPIKeyRepository{db: db}
}

// Create inserts a new api key.
func (m *MySQLAPIKeyRepository) Create(ctx context.Context, key *apikeysDomain.APIKey) error {
	querier := database.GetTx(ctx, m.db)

	permissions, err := encodePermissions(key.Permissions)
	if err != nil {
		return err
	}

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode api key id")
	}

	query := `INSERT INTO api_keys (id, key_hash, name, permissions, created_by, created_at, updated_at, last_used, active)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		key.KeyHash,
		key.Name,
		permissions,
		key.CreatedBy,
		key.CreatedAt,
		key.UpdatedAt,
		key.LastUsed,
		key.Active,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

// GetActiveByHash retrieves an active api key by its hash.
func (m *MySQLAPIKeyRepository) GetActiveByHash(
	ctx context.Context,
	keyHash string,
) (*apikeysDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, key_hash, name, permissions, created_by, created_at, updated_at, last_used, active
			  FROM api_keys
			  WHERE key_hash = ? AND active
			  LIMIT 1`

	var key apikeysDomain.APIKey
	var id []byte
	var permissions []byte
	err := querier.QueryRowContext(ctx, query, keyHash).Scan(
		&id,
		&key.KeyHash,
		&key.Name,
		&permissions,
		&key.CreatedBy,
		&key.CreatedAt,
		&key.UpdatedAt,
		&key.LastUsed,
		&key.Active,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key by hash")
	}

	if err := key.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode api key id")
	}
	key.Permissions, err = decodePermissions(permissions)
	if err != nil {
		return nil, err
	}

	return &key, nil
}

// Revoke clears the active flag on a key. Returns ErrNotFound when the key
// does not exist or is already revoked.
func (m *MySQLAPIKeyRepository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := keyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode api key id")
	}

	query := `UPDATE api_keys
			  SET active = FALSE, updated_at = ?
			  WHERE id = ? AND active`

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke api key")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check revoked api key")
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// TouchLastUsed updates the last_used timestamp after a successful validation.
func (m *MySQLAPIKeyRepository) TouchLastUsed(ctx context.Context, keyID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := keyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode api key id")
	}

	query := `UPDATE api_keys
			  SET last_used = ?
			  WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, usedAt, id); err != nil {
		return apperrors.Wrap(err, "failed to touch api key")
	}
	return nil
}

// List retrieves all api keys, newest first. The stored hash is not selected:
// listings carry no value a raw key could be checked or reconstructed from.
func (m *MySQLAPIKeyRepository) List(ctx context.Context) ([]*apikeysDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, permissions, created_by, created_at, updated_at, last_used, active
			  FROM api_keys
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer rows.Close() //nolint:errcheck

	var keys []*apikeysDomain.APIKey
	for rows.Next() {
		var key apikeysDomain.APIKey
		var id []byte
		var permissions []byte

		err := rows.Scan(
			&id,
			&key.Name,
			&permissions,
			&key.CreatedBy,
			&key.CreatedAt,
			&key.UpdatedAt,
			&key.LastUsed,
			&key.Active,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api key")
		}

		if err := key.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode api key id")
		}
		key.Permissions, err = decodePermissions(permissions)
		if err != nil {
			return nil, err
		}

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}

	return keys, nil
}
