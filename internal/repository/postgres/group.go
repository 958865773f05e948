package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/group"
)

// GroupRepo implements group.Repository against PostgreSQL.
type GroupRepo struct{ db *sql.DB }

// NewGroupRepo creates a Postgres-backed message group repository.
func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

const groupColumns = `
	id, tenant_id, app_id, template_id,
	COALESCE(subject,''), COALESCE(body_html,''), COALESCE(body_text,''),
	status, scheduled_at,
	total_recipients, processed_recipients, sent_count, failed_count,
	lock_version, started_at, completed_at, canceled_at, created_at, updated_at`

func scanGroup(row interface{ Scan(...interface{}) error }) (*domain.MessageGroup, error) {
	g := &domain.MessageGroup{}
	var appID, templateID uuid.NullUUID
	var scheduledAt, startedAt, completedAt, canceledAt sql.NullTime
	err := row.Scan(
		&g.ID, &g.TenantID, &appID, &templateID,
		&g.Subject, &g.BodyHTML, &g.BodyText,
		&g.Status, &scheduledAt,
		&g.TotalRecipients, &g.ProcessedRecipients, &g.SentCount, &g.FailedCount,
		&g.LockVersion, &startedAt, &completedAt, &canceledAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if appID.Valid {
		g.AppID = &appID.UUID
	}
	if templateID.Valid {
		g.TemplateID = &templateID.UUID
	}
	if scheduledAt.Valid {
		g.ScheduledAt = &scheduledAt.Time
	}
	if startedAt.Valid {
		g.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		g.CompletedAt = &completedAt.Time
	}
	if canceledAt.Valid {
		g.CanceledAt = &canceledAt.Time
	}
	return g, nil
}

func (r *GroupRepo) Get(ctx context.Context, id uuid.UUID) (*domain.MessageGroup, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM message_groups WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, group.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (r *GroupRepo) List(ctx context.Context, tenantID uuid.UUID, f group.ListFilter) ([]domain.MessageGroup, int, error) {
	where := `WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM message_groups `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM message_groups %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		groupColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []domain.MessageGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, *g)
	}
	return out, total, rows.Err()
}

func (r *GroupRepo) Create(ctx context.Context, g *domain.MessageGroup) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_groups (
			id, tenant_id, app_id, template_id, subject, body_html, body_text,
			status, scheduled_at, total_recipients, processed_recipients,
			sent_count, failed_count, lock_version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, g.ID, g.TenantID, g.AppID, g.TemplateID, g.Subject, g.BodyHTML, g.BodyText,
		g.Status, g.ScheduledAt, g.TotalRecipients, g.ProcessedRecipients,
		g.SentCount, g.FailedCount, g.LockVersion, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *GroupRepo) SetScheduled(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE message_groups
		SET scheduled_at = $2,
		    status = CASE WHEN status = 'draft' THEN 'scheduled' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("schedule group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return group.ErrNotFound
	}
	return nil
}

func (r *GroupRepo) CancelFrom(ctx context.Context, id uuid.UUID, from domain.GroupStatus, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE message_groups
		SET status = 'canceled', canceled_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, at)
	if err != nil {
		return false, fmt.Errorf("cancel group: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// InsertRecipients locks the group row for the duration of the transaction
// so concurrent ingests against the same group serialize. With dedupe the
// existing email set is read under that lock before filtering; there is no
// unique index because dedupe=false must admit duplicates.
func (r *GroupRepo) InsertRecipients(ctx context.Context, groupID uuid.UUID, rs []domain.Recipient, dedupe bool) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	var lockedID uuid.UUID
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM message_groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&lockedID); err != nil {
		if err == sql.ErrNoRows {
			return 0, group.ErrNotFound
		}
		return 0, fmt.Errorf("lock group: %w", err)
	}

	existing := map[string]bool{}
	if dedupe {
		rows, err := tx.QueryContext(ctx,
			`SELECT email FROM recipients WHERE group_id = $1`, groupID)
		if err != nil {
			return 0, fmt.Errorf("read existing recipients: %w", err)
		}
		for rows.Next() {
			var email string
			if err := rows.Scan(&email); err != nil {
				rows.Close()
				return 0, fmt.Errorf("scan existing recipient: %w", err)
			}
			existing[email] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("read existing recipients: %w", err)
		}
	}

	inserted := 0
	for i := range rs {
		rec := &rs[i]
		if dedupe && existing[rec.Email] {
			continue
		}
		ctxJSON, err := json.Marshal(rec.Context)
		if err != nil {
			return 0, fmt.Errorf("marshal recipient context: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipients (id, group_id, email, name, context, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, rec.ID, rec.GroupID, rec.Email, rec.Name, ctxJSON, rec.Status,
			rec.CreatedAt, rec.UpdatedAt); err != nil {
			return 0, fmt.Errorf("insert recipient: %w", err)
		}
		if dedupe {
			existing[rec.Email] = true
		}
		inserted++
	}

	if inserted > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE message_groups
			SET total_recipients = total_recipients + $2, updated_at = NOW()
			WHERE id = $1
		`, groupID, inserted); err != nil {
			return 0, fmt.Errorf("bump total recipients: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}
	return inserted, nil
}

const recipientColumns = `
	id, group_id, email, COALESCE(name,''), context, status,
	COALESCE(rendered_subject,''), COALESCE(rendered_html,''), COALESCE(rendered_text,''),
	COALESCE(last_error,''), failed_attempts, opened_at, created_at, updated_at`

func scanRecipient(row interface{ Scan(...interface{}) error }) (*domain.Recipient, error) {
	rec := &domain.Recipient{}
	var ctxJSON []byte
	var openedAt sql.NullTime
	err := row.Scan(
		&rec.ID, &rec.GroupID, &rec.Email, &rec.Name, &ctxJSON, &rec.Status,
		&rec.RenderedSubject, &rec.RenderedHTML, &rec.RenderedText,
		&rec.LastError, &rec.FailedAttempts, &openedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(ctxJSON) > 0 {
		if err := json.Unmarshal(ctxJSON, &rec.Context); err != nil {
			return nil, fmt.Errorf("unmarshal recipient context: %w", err)
		}
	}
	if openedAt.Valid {
		rec.OpenedAt = &openedAt.Time
	}
	return rec, nil
}

func (r *GroupRepo) ListRecipients(ctx context.Context, groupID uuid.UUID, f group.RecipientFilter) ([]domain.Recipient, int, error) {
	where := `WHERE group_id = $1`
	args := []interface{}{groupID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipients `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipients: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM recipients %s ORDER BY created_at LIMIT $%d OFFSET $%d`,
		recipientColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, *rec)
	}
	return out, total, rows.Err()
}

func (r *GroupRepo) GetRecipient(ctx context.Context, id uuid.UUID) (*domain.Recipient, error) {
	rec, err := scanRecipient(r.db.QueryRowContext(ctx,
		`SELECT `+recipientColumns+` FROM recipients WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, group.ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	return rec, nil
}

func (r *GroupRepo) MarkOpened(ctx context.Context, recipientID uuid.UUID, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recipients SET opened_at = $2, updated_at = NOW()
		WHERE id = $1 AND opened_at IS NULL
	`, recipientID, at)
	if err != nil {
		return false, fmt.Errorf("mark opened: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
