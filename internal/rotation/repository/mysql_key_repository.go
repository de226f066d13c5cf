package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
)

// MySQLKeyRecordRepository implements EncryptionKeyRecord persistence for MySQL.
type MySQLKeyRecordRepository struct {
	db *sql.DB
}

// NewMySQLKeyRecordRepository creates a new MySQL key record repository instance.
func NewMySQLKeyRecordRepository(db *sql.DB) *MySQLKeyRecordRepository {
	return &MySQLKeyRecordRepository{db: db}
}

// Create inserts a new key record.
func (m *MySQLKeyRecordRepository) Create(ctx context.Context, record *rotationDomain.EncryptionKeyRecord) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode key record id")
	}

	query := `INSERT INTO encryption_keys (id, key_version, created_at, active, deactivated_at, rotated_by, secrets_count)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		record.KeyVersion,
		record.CreatedAt,
		record.Active,
		record.DeactivatedAt,
		record.RotatedBy,
		record.SecretsCount,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create key record")
	}
	return nil
}

// DeactivateActive clears the active flag on the current key record.
func (m *MySQLKeyRecordRepository) DeactivateActive(ctx context.Context, deactivatedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE encryption_keys
			  SET active = FALSE, deactivated_at = ?
			  WHERE active`

	if _, err := querier.ExecContext(ctx, query, deactivatedAt); err != nil {
		return apperrors.Wrap(err, "failed to deactivate key record")
	}
	return nil
}

// GetActive retrieves the active key record.
func (m *MySQLKeyRecordRepository) GetActive(ctx context.Context) (*rotationDomain.EncryptionKeyRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, key_version, created_at, active, deactivated_at, rotated_by, secrets_count
			  FROM encryption_keys
			  WHERE active
			  LIMIT 1`

	var record rotationDomain.EncryptionKeyRecord
	var id []byte
	err := querier.QueryRowContext(ctx, query).Scan(
		&id,
		&record.KeyVersion,
		&record.CreatedAt,
		&record.Active,
		&record.DeactivatedAt,
		&record.RotatedBy,
		&record.SecretsCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get active key record")
	}

	if err := record.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode key record id")
	}

	return &record, nil
}

// ListHistory retrieves all key records, newest first.
func (m *MySQLKeyRecordRepository) ListHistory(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, key_version, created_at, active, deactivated_at, rotated_by, secrets_count
			  FROM encryption_keys
			  ORDER BY key_version DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list key records")
	}
	defer rows.Close() //nolint:errcheck

	var records []*rotationDomain.EncryptionKeyRecord
	for rows.Next() {
		var record rotationDomain.EncryptionKeyRecord
		var id []byte

		err := rows.Scan(
			&id,
			&record.KeyVersion,
			&record.CreatedAt,
			&record.Active,
			&record.DeactivatedAt,
			&record.RotatedBy,
			&record.SecretsCount,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key record")
		}

		if err := record.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode key record id")
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key records")
	}

	return records, nil
}
