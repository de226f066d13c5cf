// Package repository provides data persistence implementations for audit events.
package repository

import (
	"context"
	"database/sql"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// PostgreSQLAuditEventRepository handles audit event persistence for PostgreSQL.
type PostgreSQLAuditEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditEventRepository creates a new PostgreSQLAuditEventRepository.
func NewPostgreSQLAuditEventRepository(db *sql.DB) *PostgreSQLAuditEventRepository {
	return &PostgreSQLAuditEventRepository{db: db}
}

// Create inserts a new audit event. Participates in the caller's transaction
// when one is carried in the context.
func (r *PostgreSQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO audit_events (id, event_type, actor, payload, status, retries, last_error, delivered_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.Actor, event.Payload,
		event.Status, event.Retries, event.LastError, event.DeliveredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}
	return nil
}

// GetPendingEvents retrieves pending events oldest first, locking the rows so
// concurrent dispatchers never deliver the same event twice.
func (r *PostgreSQLAuditEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, actor, payload, status, retries, last_error, delivered_at, created_at, updated_at
			  FROM audit_events
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, auditDomain.EventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending audit events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*auditDomain.Event
	for rows.Next() {
		var event auditDomain.Event

		err := rows.Scan(&event.ID, &event.EventType, &event.Actor, &event.Payload, &event.Status,
			&event.Retries, &event.LastError, &event.DeliveredAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit event")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}

	return events, nil
}

// Update updates an audit event's delivery state.
func (r *PostgreSQLAuditEventRepository) Update(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE audit_events
			  SET status = $1, retries = $2, last_error = $3, delivered_at = $4, updated_at = NOW()
			  WHERE id = $5`

	_, err := querier.ExecContext(ctx, query, event.Status, event.Retries, event.LastError,
		event.DeliveredAt, event.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update audit event")
	}
	return nil
}
