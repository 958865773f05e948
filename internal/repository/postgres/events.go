package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// EventRepo implements events.Store against PostgreSQL. Append-only.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed event store.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e *domain.Event) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal event metadata: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, group_id, recipient_id, type, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, e.ID, e.GroupID, e.RecipientID, e.Type, meta, e.CreatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, recipient_id, type, metadata, created_at
		FROM events
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, groupID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var gID, rID uuid.NullUUID
		var meta []byte
		if err := rows.Scan(&e.ID, &gID, &rID, &e.Type, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if gID.Valid {
			e.GroupID = &gID.UUID
		}
		if rID.Valid {
			e.RecipientID = &rID.UUID
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal event metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
