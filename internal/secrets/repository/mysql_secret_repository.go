package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

// MySQLSecretRepository implements Secret persistence for MySQL. UUIDs are
// stored in binary form.
type MySQLSecretRepository struct {
	db *sql.DB
}

// NewMySQLSecretRepository creates a new MySQL Secret repository instance.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}

// Create inserts a new secret row.
func (m *MySQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	metadata, err := encodeMetadata(secret.Metadata)
	if err != nil {
		return err
	}

	id, err := secret.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode secret id")
	}

	query := `INSERT INTO secrets (id, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, created_at, updated_at, active)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLSecretRepository) GetActiveByName(
	ctx context.Context,
	name string,
) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, created_at, updated_at, active
			  FROM secrets
			  WHERE name = ? AND active
			  LIMIT 1`

	var secret secretsDomain.Secret
	var id []byte
	var metadata []byte
	err := querier.QueryRowContext(ctx, query, name).Scan(
		&id,
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

	if err := secret.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode secret id")
	}
	secret.Metadata, err = decodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	return &secret, nil
}

// DeactivateByName clears the active flag on the current row for a name.
func (m *MySQLSecretRepository) DeactivateByName(ctx context.Context, name string) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE secrets
			  SET active = FALSE, updated_at = ?
			  WHERE name = ? AND active`

	if _, err := querier.ExecContext(ctx, query, time.Now().UTC(), name); err != nil {
		return apperrors.Wrap(err, "failed to deactivate secret")
	}
	return nil
}

// ListActive retrieves all active secrets ordered by name.
func (m *MySQLSecretRepository) ListActive(ctx context.Context) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

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
		var id []byte
		var metadata []byte

		err := rows.Scan(
			&id,
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

		if err := secret.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode secret id")
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

// UpdateEnvelope replaces the stored envelope for a secret row.
func (m *MySQLSecretRepository) UpdateEnvelope(
	ctx context.Context,
	secretID uuid.UUID,
	envelope cryptoDomain.Envelope,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode secret id")
	}

	query := `UPDATE secrets
			  SET envelope_nonce = ?, envelope_ciphertext = ?, envelope_tag = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		envelope.Nonce,
		envelope.Ciphertext,
		envelope.Tag,
		time.Now().UTC(),
		id,
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
