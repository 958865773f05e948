package group

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Repository defines the data access contract for message groups and their
// recipients. Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single group. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.MessageGroup, error)

	// List returns a tenant's groups matching the filter, newest first.
	List(ctx context.Context, tenantID uuid.UUID, f ListFilter) ([]domain.MessageGroup, int, error)

	// Create inserts a new group.
	Create(ctx context.Context, g *domain.MessageGroup) error

	// SetScheduled updates the scheduled_at timestamp and, when the group is
	// still a draft, moves it to scheduled.
	SetScheduled(ctx context.Context, id uuid.UUID, at time.Time) error

	// CancelFrom transitions the group to canceled only if its status still
	// equals from. Returns false when another writer moved it first.
	CancelFrom(ctx context.Context, id uuid.UUID, from domain.GroupStatus, at time.Time) (bool, error)

	// InsertRecipients bulk-inserts recipients and atomically increments the
	// group's total_recipients by the number of rows actually inserted.
	// When dedupe is true, emails already present in the group are skipped.
	// Returns the inserted count.
	InsertRecipients(ctx context.Context, groupID uuid.UUID, rs []domain.Recipient, dedupe bool) (int, error)

	// ListRecipients returns a group's recipients matching the filter.
	ListRecipients(ctx context.Context, groupID uuid.UUID, f RecipientFilter) ([]domain.Recipient, int, error)

	// GetRecipient returns one recipient. Returns ErrRecipientNotFound if
	// it doesn't exist.
	GetRecipient(ctx context.Context, id uuid.UUID) (*domain.Recipient, error)

	// MarkOpened sets opened_at to the given time only when it is still
	// null. Returns true when this call was the first open.
	MarkOpened(ctx context.Context, recipientID uuid.UUID, at time.Time) (bool, error)
}

// TemplateFinder verifies template references at group creation.
type TemplateFinder interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Template, error)
}

// ListFilter controls pagination and filtering for group lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// RecipientFilter controls pagination and filtering for recipient lists.
type RecipientFilter struct {
	Status string
	Limit  int
	Offset int
}
