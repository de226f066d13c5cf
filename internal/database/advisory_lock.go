package database

import (
	"context"
	"database/sql"
)

// Lock identifiers for advisory locking. Rotation takes the exclusive lock so
// that no two rotations can interleave; ordinary secret writes take the shared
// lock so they cannot run while a rotation is re-encrypting rows.
const rotationLockID int64 = 0x7661756c746b6579 // "vaultkey"

// AdvisoryLocker serializes the master-key rotation against concurrent writers.
// Locks are transaction-scoped: they must be acquired inside a TxManager.WithTx
// callback and are released automatically on commit or rollback.
type AdvisoryLocker interface {
	// LockExclusive blocks until the rotation lock is held exclusively.
	LockExclusive(ctx context.Context) error
	// LockShared blocks until the rotation lock is held in shared mode.
	LockShared(ctx context.Context) error
}

// postgresAdvisoryLocker implements AdvisoryLocker using PostgreSQL
// transaction-level advisory locks.
type postgresAdvisoryLocker struct {
	db *sql.DB
}

// NewPostgresAdvisoryLocker creates an AdvisoryLocker backed by
// pg_advisory_xact_lock. The lock is tied to the transaction carried in the
// context and released when that transaction ends.
func NewPostgresAdvisoryLocker(db *sql.DB) AdvisoryLocker {
	return &postgresAdvisoryLocker{db: db}
}

func (l *postgresAdvisoryLocker) LockExclusive(ctx context.Context) error {
	querier := GetTx(ctx, l.db)
	_, err := querier.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, rotationLockID)
	return err
}

func (l *postgresAdvisoryLocker) LockShared(ctx context.Context) error {
	querier := GetTx(ctx, l.db)
	_, err := querier.ExecContext(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, rotationLockID)
	return err
}

// noopAdvisoryLocker implements AdvisoryLocker without database support.
// Used for MySQL, where the single-writer process model plus the in-process
// rotation mutex already serialize rotation against ordinary writes.
type noopAdvisoryLocker struct{}

// NewNoopAdvisoryLocker creates an AdvisoryLocker that performs no locking.
func NewNoopAdvisoryLocker() AdvisoryLocker {
	return &noopAdvisoryLocker{}
}

func (l *noopAdvisoryLocker) LockExclusive(ctx context.Context) error { return nil }

func (l *noopAdvisoryLocker) LockShared(ctx context.Context) error { return nil }
