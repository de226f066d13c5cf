package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
)

// PostgreSQLSecretHistoryRepository implements SecretSnapshot persistence for PostgreSQL.
type PostgreSQLSecretHistoryRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecretHistoryRepository creates a new PostgreSQL secret history repository instance.
func NewPostgreSQLSecretHistoryRepository(db *sql.DB) *PostgreSQLSecretHistoryRepository {
	return &PostgreSQLSecretHistoryRepository{db: db}
}

// Snapshot inserts an immutable pre-rotation copy of a secret. A snapshot for
// the same (secret_id, key_version) pair may already exist from an earlier
// rotation attempt; it is identical by construction and kept as is.
func (p *PostgreSQLSecretHistoryRepository) Snapshot(ctx context.Context, snapshot *rotationDomain.SecretSnapshot) error {
	querier := database.GetTx(ctx, p.db)

	metadata, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode snapshot metadata")
	}

	query := `INSERT INTO secret_history (id, secret_id, key_version, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, snapshotted_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (secret_id, key_version) DO NOTHING`

	_, err = querier.ExecContext(
		ctx,
		query,
		snapshot.ID,
		snapshot.SecretID,
		snapshot.KeyVersion,
		snapshot.Name,
		snapshot.Envelope.Nonce,
		snapshot.Envelope.Ciphertext,
		snapshot.Envelope.Tag,
		metadata,
		snapshot.SnapshottedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to snapshot secret")
	}
	return nil
}

// ListByKeyVersion retrieves all snapshots taken under a key version.
func (p *PostgreSQLSecretHistoryRepository) ListByKeyVersion(
	ctx context.Context,
	keyVersion int64,
) ([]*rotationDomain.SecretSnapshot, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_id, key_version, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, snapshotted_at
			  FROM secret_history
			  WHERE key_version = $1
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query, keyVersion)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var snapshots []*rotationDomain.SecretSnapshot
	for rows.Next() {
		var snapshot rotationDomain.SecretSnapshot
		var metadata []byte

		err := rows.Scan(
			&snapshot.ID,
			&snapshot.SecretID,
			&snapshot.KeyVersion,
			&snapshot.Name,
			&snapshot.Envelope.Nonce,
			&snapshot.Envelope.Ciphertext,
			&snapshot.Envelope.Tag,
			&metadata,
			&snapshot.SnapshottedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan snapshot")
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &snapshot.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to decode snapshot metadata")
			}
		}

		snapshots = append(snapshots, &snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate snapshots")
	}

	return snapshots, nil
}
