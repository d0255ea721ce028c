package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"authentication_api/internal/models"

	"github.com/google/uuid"
)

type AuditSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewAuditSQL(db *sql.DB, dialect Dialect) *AuditSQL { return &AuditSQL{db: db, dialect: dialect} }

var _ AuditRepo = (*AuditSQL)(nil)

const (
	insertAuditSQL = `
		INSERT INTO audit_events (id, occurred_at, type, user_id, username, message, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	deleteAuditBeforeSQL = `DELETE FROM audit_events WHERE occurred_at < ?`
)

// Append inserts a new event. If EventID or OccurredAt are empty, they’re set.
func (r *AuditSQL) Append(ctx context.Context, e models.AuditEvent) error {
	e = normalizeEvent(e)

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	var userID *int64
	if e.UserID != 0 {
		userID = &e.UserID
	}

	_, err := r.db.ExecContext(ctx, r.dialect.rebind(insertAuditSQL),
		e.EventID,
		e.OccurredAt,
		e.Type,
		userID,
		e.Username,
		e.Description,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", e.Type, err)
	}
	return nil
}

// List returns events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *AuditSQL) List(ctx context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, type, user_id, username, message, meta FROM audit_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditEvent, 0, 64)
	for rows.Next() {
		var (
			ev      models.AuditEvent
			userID  sql.NullInt64
			metaStr sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &userID, &ev.Username, &ev.Description, &metaStr); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.UserID = userID.Int64

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

// DeleteBefore removes events strictly older than cutoff.
func (r *AuditSQL) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(deleteAuditBeforeSQL), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete audit events before %s: %w", cutoff.UTC().Format(time.RFC3339), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete audit events: rows affected: %w", err)
	}
	return n, nil
}

func normalizeEvent(e models.AuditEvent) models.AuditEvent {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}
	e.Type = strings.ToUpper(strings.TrimSpace(e.Type))
	return e
}
