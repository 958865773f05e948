package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Store is the pipeline's persistence contract. Counter mutations must be
// atomic increments so concurrent ticks stay correct. Infrastructure errors
// returned from any method abort the current tick.
type Store interface {
	// DueGroups returns up to limit groups with status=scheduled whose
	// scheduled_at is null or has passed, oldest first.
	DueGroups(ctx context.Context, now time.Time, limit int) ([]domain.MessageGroup, error)

	// ClaimGroup conditionally moves a group to processing: the update only
	// applies while status is still scheduled and lock_version matches, and
	// it bumps lock_version and sets started_at. Returns false when another
	// tick won the claim.
	ClaimGroup(ctx context.Context, groupID uuid.UUID, lockVersion int, now time.Time) (bool, error)

	// RecipientsPage returns up to limit recipients of the group in the
	// given status with id > afterID, ordered by id. Pass uuid.Nil to start.
	RecipientsPage(ctx context.Context, groupID uuid.UUID, status domain.RecipientStatus, afterID uuid.UUID, limit int) ([]domain.Recipient, error)

	// MarkRendered stores the rendered content, moves the recipient to
	// rendered, and atomically increments the group's processed_recipients.
	MarkRendered(ctx context.Context, r *domain.Recipient) error

	// MarkSent moves the recipient to sent, clears last_error, records
	// failed_attempts, and atomically increments the group's sent_count.
	MarkSent(ctx context.Context, recipientID, groupID uuid.UUID, failedAttempts int) error

	// MarkFailed moves the recipient to failed with the final error and
	// attempt count, and atomically increments the group's failed_count.
	MarkFailed(ctx context.Context, recipientID, groupID uuid.UUID, lastError string, failedAttempts int) error

	// MarkSkipped moves the recipient to skipped with the given reason.
	MarkSkipped(ctx context.Context, recipientID uuid.UUID, reason string) error

	// InsertMessage appends one delivery-attempt audit row.
	InsertMessage(ctx context.Context, m *domain.Message) error

	// CountActive returns how many of the group's recipients are still
	// pending or rendered.
	CountActive(ctx context.Context, groupID uuid.UUID) (int, error)

	// CompleteGroup conditionally finishes a group: the update only applies
	// while status is processing. Returns false when it no longer is
	// (e.g. canceled mid-tick).
	CompleteGroup(ctx context.Context, groupID uuid.UUID, at time.Time) (bool, error)

	// RequeueGroup conditionally hands a processing group back to the
	// scheduler with the given due time, so a later tick picks up its
	// outstanding recipients. Returns false when the group is no longer
	// processing.
	RequeueGroup(ctx context.Context, groupID uuid.UUID, at time.Time) (bool, error)
}
