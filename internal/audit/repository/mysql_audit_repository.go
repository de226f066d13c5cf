package repository

import (
	"context"
	"database/sql"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	"github.com/syncrete/vaultkit/internal/database"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// MySQLAuditEventRepository handles audit event persistence for MySQL.
type MySQLAuditEventRepository struct {
	db *sql.DB
}

// NewMySQLAuditEventRepository creates a new MySQLAuditEventRepository.
func NewMySQLAuditEventRepository(db *sql.DB) *MySQLAuditEventRepository {
	return &MySQLAuditEventRepository{db: db}
}

// Create inserts a new audit event. Participates in the caller's transaction
// when one is carried in the context.
func (r *MySQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO audit_events (id, event_type, actor, payload, status, retries, last_error, delivered_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode audit event id")
	}

	_, err = querier.ExecContext(ctx, query, id, event.EventType, event.Actor, event.Payload,
		event.Status, event.Retries, event.LastError, event.DeliveredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}
	return nil
}

// GetPendingEvents retrieves pending events oldest first with row locks.
func (r *MySQLAuditEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, actor, payload, status, retries, last_error, delivered_at, created_at, updated_at
			  FROM audit_events
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, auditDomain.EventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending audit events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*auditDomain.Event
	for rows.Next() {
		var event auditDomain.Event
		var id []byte

		err := rows.Scan(&id, &event.EventType, &event.Actor, &event.Payload, &event.Status,
			&event.Retries, &event.LastError, &event.DeliveredAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit event")
		}
		if err := event.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode audit event id")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}

	return events, nil
}

// Update updates an audit event's delivery state.
func (r *MySQLAuditEventRepository) Update(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE audit_events
			  SET status = ?, retries = ?, last_error = ?, delivered_at = ?, updated_at = NOW()
			  WHERE id = ?`

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode audit event id")
	}

	_, err = querier.ExecContext(ctx, query, event.Status, event.Retries, event.LastError,
		event.DeliveredAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update audit event")
	}
	return nil
}
