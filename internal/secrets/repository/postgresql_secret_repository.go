// Package repository implements secret persistence for PostgreSQL and MySQL.
// The active flag discipline (at most one active row per name) is enforced by
// the use case transaction; PostgreSQL additionally carries a partial unique
// index on (name) WHERE active.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

// PostgreSQLSecretRepository implements Secret persistence for PostgreSQL.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL Secret repository instance.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}

func encodeMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode secret metadata")
	}
	return encoded, nil
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	metadata := map[string]string{}
	if len(raw) == 0 {
		return metadata, nil
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode secret metadata")
	}
	return metadata, nil
}

// Create inserts a new secret row.
func (p *PostgreSQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)

	metadata, err := encodeMetadata(secret.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO secrets (id, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, created_at, updated_at, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.Name,
		secret.Envelope.Nonce,
		secret.Envelope.Ciphertext,
		secret.Envelope.Tag,
		metadata,
		secret.CreatedAt,
		secret.UpdatedAt,
		secret.Active,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create secret")
	}
	return nil
}

// GetActiveByName retrieves the active row for a secret name.
func (p *PostgreSQLSecretRepository) GetActiveByName(
	ctx context.Context,
	name string,
) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, created_at, updated_at, active
			  FROM secrets
			  WHERE name = $1 AND active
			  LIMIT 1`

	var secret secretsDomain.Secret
	var metadata []byte
	err := querier.QueryRowContext(ctx, query, name).Scan(
		&secret.ID,
		&secret.Name,
		&secret.Envelope.Nonce,
		&secret.Envelope.Ciphertext,
		&secret.Envelope.Tag,
		&metadata,
		&secret.CreatedAt,
		&secret.UpdatedAt,
		&secret.Active,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret by name")
	}

	secret.Metadata, err = decodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	return &secret, nil
}

// DeactivateByName clears the active flag on the current row for a name.
// Clearing zero rows is not an error: the name may be new.
func (p *PostgreSQLSecretRepository) DeactivateByName(ctx context.Context, name string) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secrets
			  SET active = FALSE, updated_at = $1
			  WHERE name = $2 AND active`

	if _, err := querier.ExecContext(ctx, query, time.Now().UTC(), name); err != nil {
		return apperrors.Wrap(err, "failed to deactivate secret")
	}
	return nil
}

// ListActive retrieves all active secrets ordered by name. Envelopes are
// included; plaintext is never stored.
func (p *PostgreSQLSecretRepository) ListActive(ctx context.Context) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, created_at, updated_at, active
			  FROM secrets
			  WHERE active
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active secrets")
	}
	defer rows.Close() //nolint:errcheck

	var secrets []*secretsDomain.Secret
	for rows.Next() {
		var secret secretsDomain.Secret
		var metadata []byte

		err := rows.Scan(
			&secret.ID,
			&secret.Name,
			&secret.Envelope.Nonce,
			&secret.Envelope.Ciphertext,
			&secret.Envelope.Tag,
			&metadata,
			&secret.CreatedAt,
			&secret.UpdatedAt,
			&secret.Active,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret")
		}

		secret.Metadata, err = decodeMetadata(metadata)
		if err != nil {
			return nil, err
		}

		secrets = append(secrets, &secret)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secrets")
	}

	return secrets, nil
}

// UpdateEnvelope replaces the stored envelope for a secret row. Used by master
// key rotation to swap in the re-encrypted value.
func (p *PostgreSQLSecretRepository) UpdateEnvelope(
	ctx context.Context,
	secretID uuid.UUID,
	envelope cryptoDomain.Envelope,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secrets
			  SET envelope_nonce = $1, envelope_ciphertext = $2, envelope_tag = $3, updated_at = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		envelope.Nonce,
		envelope.Ciphertext,
		envelope.Tag,
		time.Now().UTC(),
		secretID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update secret envelope")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check updated secret envelope")
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
