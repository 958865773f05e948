package suppression

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Repository defines the data access contract for the suppression list.
type Repository interface {
	// IsSuppressed returns true if the email is on the tenant's suppression list.
	IsSuppressed(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)

	// Suppress adds an email to the suppression list. If it already exists,
	// the existing record is preserved (idempotent).
	Suppress(ctx context.Context, s *domain.Suppression) error

	// Remove deletes a suppression entry. Returns ErrNotFound if it doesn't exist.
	Remove(ctx context.Context, tenantID uuid.UUID, email string) error

	// List returns suppression entries matching the filter.
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]domain.Suppression, int, error)

	// Count returns the total number of suppressed emails for a tenant.
	Count(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// ListFilter controls pagination and filtering for suppression lists.
type ListFilter struct {
	Reason string
	Search string
	Limit  int
	Offset int
}
