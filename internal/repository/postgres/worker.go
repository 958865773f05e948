package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// WorkerStore implements worker.Store against PostgreSQL. Recipient and
// group-counter updates that must move together run in one transaction.
type WorkerStore struct{ db *sql.DB }

// NewWorkerStore creates a Postgres-backed worker store.
func NewWorkerStore(db *sql.DB) *WorkerStore { return &WorkerStore{db: db} }

func (s *WorkerStore) DueGroups(ctx context.Context, now time.Time, limit int) ([]domain.MessageGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+groupColumns+`
		FROM message_groups
		WHERE status = 'scheduled' AND (scheduled_at IS NULL OR scheduled_at <= $1)
		ORDER BY scheduled_at ASC NULLS FIRST
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select due groups: %w", err)
	}
	defer rows.Close()

	var out []domain.MessageGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due group: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (s *WorkerStore) ClaimGroup(ctx context.Context, groupID uuid.UUID, lockVersion int, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE message_groups
		SET status = 'processing', lock_version = lock_version + 1,
		    started_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled' AND lock_version = $2
	`, groupID, lockVersion, now)
	if err != nil {
		return false, fmt.Errorf("claim group: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *WorkerStore) RecipientsPage(ctx context.Context, groupID uuid.UUID, status domain.RecipientStatus, afterID uuid.UUID, limit int) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM recipients
		WHERE group_id = $1 AND status = $2 AND id > $3
		ORDER BY id
		LIMIT $4
	`, groupID, status, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("select recipients page: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *WorkerStore) MarkRendered(ctx context.Context, r *domain.Recipient) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark rendered: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE recipients
		SET status = 'rendered', rendered_subject = $2, rendered_html = $3,
		    rendered_text = $4, updated_at = NOW()
		WHERE id = $1
	`, r.ID, r.RenderedSubject, r.RenderedHTML, r.RenderedText); err != nil {
		return fmt.Errorf("mark recipient rendered: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE message_groups
		SET processed_recipients = processed_recipients + 1, updated_at = NOW()
		WHERE id = $1
	`, r.GroupID); err != nil {
		return fmt.Errorf("bump processed count: %w", err)
	}

	return tx.Commit()
}

func (s *WorkerStore) MarkSent(ctx context.Context, recipientID, groupID uuid.UUID, failedAttempts int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark sent: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE recipients
		SET status = 'sent', last_error = '', failed_attempts = $2, updated_at = NOW()
		WHERE id = $1
	`, recipientID, failedAttempts); err != nil {
		return fmt.Errorf("mark recipient sent: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE message_groups
		SET sent_count = sent_count + 1, updated_at = NOW()
		WHERE id = $1
	`, groupID); err != nil {
		return fmt.Errorf("bump sent count: %w", err)
	}

	return tx.Commit()
}

func (s *WorkerStore) MarkFailed(ctx context.Context, recipientID, groupID uuid.UUID, lastError string, failedAttempts int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE recipients
		SET status = 'failed', last_error = $2, failed_attempts = $3, updated_at = NOW()
		WHERE id = $1
	`, recipientID, lastError, failedAttempts); err != nil {
		return fmt.Errorf("mark recipient failed: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE message_groups
		SET failed_count = failed_count + 1, updated_at = NOW()
		WHERE id = $1
	`, groupID); err != nil {
		return fmt.Errorf("bump failed count: %w", err)
	}

	return tx.Commit()
}

func (s *WorkerStore) MarkSkipped(ctx context.Context, recipientID uuid.UUID, reason string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE recipients
		SET status = 'skipped', last_error = $2, updated_at = NOW()
		WHERE id = $1
	`, recipientID, reason); err != nil {
		return fmt.Errorf("mark recipient skipped: %w", err)
	}
	return nil
}

func (s *WorkerStore) InsertMessage(ctx context.Context, m *domain.Message) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, recipient_id, group_id, attempt_count, sent_at, last_error, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, m.ID, m.RecipientID, m.GroupID, m.AttemptCount, m.SentAt, m.LastError, m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *WorkerStore) CountActive(ctx context.Context, groupID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM recipients
		WHERE group_id = $1 AND status IN ('pending', 'rendered')
	`, groupID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active recipients: %w", err)
	}
	return n, nil
}

func (s *WorkerStore) CompleteGroup(ctx context.Context, groupID uuid.UUID, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE message_groups
		SET status = 'complete', completed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`, groupID, at)
	if err != nil {
		return false, fmt.Errorf("complete group: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *WorkerStore) RequeueGroup(ctx context.Context, groupID uuid.UUID, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE message_groups
		SET status = 'scheduled', scheduled_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`, groupID, at)
	if err != nil {
		return false, fmt.Errorf("requeue group: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
