package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
)

// MySQLSecretHistoryRepository implements SecretSnapshot persistence for MySQL.
type MySQLSecretHistoryRepository struct {
	db *sql.DB
}

// NewMySQLSecretHistoryRepository creates a new MySQL secret history repository instance.
func NewMySQLSecretHistoryRepository(db *sql.DB) *MySQLSecretHistoryRepository {
	return &MySQLSecretHistoryRepository{db: db}
}

// Snapshot inserts an immutable pre-rotation copy of a secret. Duplicate
// (secret_id, key_version) pairs from earlier rotation attempts are ignored.
func (m *MySQLSecretHistoryRepository) Snapshot(ctx context.Context, snapshot *rotationDomain.SecretSnapshot) error {
	querier := database.GetTx(ctx, m.db)

	metadata, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode snapshot metadata")
	}

	id, err := snapshot.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode snapshot id")
	}
	secretID, err := snapshot.SecretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode snapshot secret id")
	}

	query := `INSERT IGNORE INTO secret_history (id, secret_id, key_version, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, snapshotted_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		secretID,
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
func (m *MySQLSecretHistoryRepository) ListByKeyVersion(
	ctx context.Context,
	keyVersion int64,
) ([]*rotationDomain.SecretSnapshot, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, secret_id, key_version, name, envelope_nonce, envelope_ciphertext, envelope_tag, metadata, snapshotted_at
			  FROM secret_history
			  WHERE key_version = ?
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query, keyVersion)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var snapshots []*rotationDomain.SecretSnapshot
	for rows.Next() {
		var snapshot rotationDomain.SecretSnapshot
		var id []byte
		var secretID []byte
		var metadata []byte

		err := rows.Scan(
			&id,
			&secretID,
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

		if err := snapshot.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode snapshot id")
		}
		if err := snapshot.SecretID.UnmarshalBinary(secretID); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode snapshot secret id")
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
