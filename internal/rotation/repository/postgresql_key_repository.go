// Package repository implements persistence for encryption key records and
// secret snapshots, for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
)

// PostgreSQLKeyRecordRepository implements EncryptionKeyRecord persistence for PostgreSQL.
type PostgreSQLKeyRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyRecordRepository creates a new PostgreSQL key record repository instance.
func NewPostgreSQLKeyRecordRepository(db *sql.DB) *PostgreSQLKeyRecordRepository {
	return &PostgreSQLKeyRecordRepository{db: db}
}

// Create inserts a new key record.
func (p *PostgreSQLKeyRecordRepository) Create(ctx context.Context, record *rotationDomain.EncryptionKeyRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO encryption_keys (id, key_version, created_at, active, deactivated_at, rotated_by, secrets_count)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
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
// Clearing zero rows is not an error: the very first rotation has no predecessor.
func (p *PostgreSQLKeyRecordRepository) DeactivateActive(ctx context.Context, deactivatedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE encryption_keys
			  SET active = FALSE, deactivated_at = $1
			  WHERE active`

	if _, err := querier.ExecContext(ctx, query, deactivatedAt); err != nil {
		return apperrors.Wrap(err, "failed to deactivate key record")
	}
	return nil
}

// GetActive retrieves the active key record.
func (p *PostgreSQLKeyRecordRepository) GetActive(ctx context.Context) (*rotationDomain.EncryptionKeyRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, key_version, created_at, active, deactivated_at, rotated_by, secrets_count
			  FROM encryption_keys
			  WHERE active
			  LIMIT 1`

	var record rotationDomain.EncryptionKeyRecord
	err := querier.QueryRowContext(ctx, query).Scan(
		&record.ID,
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

	return &record, nil
}

// ListHistory retrieves all key records, newest first.
func (p *PostgreSQLKeyRecordRepository) ListHistory(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error) {
	querier := database.GetTx(ctx, p.db)

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

		err := rows.Scan(
			&record.ID,
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

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key records")
	}

	return records, nil
}
