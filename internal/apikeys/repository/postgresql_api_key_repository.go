// Package repository implements api key persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// PostgreSQLAPIKeyRepository implements APIKey persistence for PostgreSQL.
type PostgreSQLAPIKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLAPIKeyRepository creates a new PostgreSQL APIKey repository instance.
func NewPostgreSQLAPIKeyRepository(db *sql.DB) *PostgreSQLAPIKeyRepository {
	return &PostgreSQLAPIKeyRepository{db: db}
}

func encodePermissions(permissions []string) ([]byte, error) {
	if permissions == nil {
		permissions = []string{}
	}
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode permissions")
	}
	return encoded, nil
}

func decodePermissions(raw []byte) ([]string, error) {
	permissions := []string{}
	if len(raw) == 0 {
		return permissions, nil
	}
	if err := json.Unmarshal(raw, &permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode permissions")
	}
	return permissions, nil
}

// Create inserts a new api key.
func (p *PostgreSQLAPIKeyRepository) Create(ctx context.Context, key *apikeysDomain.APIKey) error {
	querier := database.GetTx(ctx, p.db)

	permissions, err := encodePermissions(key.Permissions)
	if err != nil {
		return err
	}

	query := `INSERT INTO api_keys (id, key_hash, name, permissions, created_by, created_at, updated_at, last_used, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		key.ID,
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
func (p *PostgreSQLAPIKeyRepository) GetActiveByHash(
	ctx context.Context,
	keyHash string,
) (*apikeysDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, key_hash, name, permissions, created_by, created_at, updated_at, last_used, active
			  FROM api_keys
			  WHERE key_hash = $1 AND active
			  LIMIT 1`

	var key apikeysDomain.APIKey
	var permissions []byte
	err := querier.QueryRowContext(ctx, query, keyHash).Scan(
		&key.ID,
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

	key.Permissions, err = decodePermissions(permissions)
	if err != nil {
		return nil, err
	}

	return &key, nil
}

// Revoke clears the active flag on a key. Returns ErrNotFound when the key
// does not exist or is already revoked.
func (p *PostgreSQLAPIKeyRepository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE api_keys
			  SET active = FALSE, updated_at = $1
			  WHERE id = $2 AND active`

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), keyID)
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
func (p *PostgreSQLAPIKeyRepository) TouchLastUsed(ctx context.Context, keyID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE api_keys
			  SET last_used = $1
			  WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, usedAt, keyID); err != nil {
		return apperrors.Wrap(err, "failed to touch api key")
	}
	return nil
}

// List retrieves all api keys, newest first. The stored hash is not selected:
// listings carry no value a raw key could be checked or reconstructed from.
func (p *PostgreSQLAPIKeyRepository) List(ctx context.Context) ([]*apikeysDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

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
		var permissions []byte

		err := rows.Scan(
			&key.ID,
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
