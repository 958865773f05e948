package template

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Repository defines the data access contract for templates.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single template. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Template, error)

	// List returns a tenant's templates ordered by name, version DESC.
	List(ctx context.Context, tenantID uuid.UUID) ([]domain.Template, error)

	// LatestVersion returns the highest version for (tenant, name),
	// or 0 when the name is unused.
	LatestVersion(ctx context.Context, tenantID uuid.UUID, name string) (int, error)

	// Create inserts a new template version and deactivates prior versions
	// of the same name in the same transaction when it is active.
	Create(ctx context.Context, t *domain.Template) error

	// Update modifies a template's content in place without minting a version.
	Update(ctx context.Context, t *domain.Template) error

	// Delete removes a template version.
	Delete(ctx context.Context, id uuid.UUID) error
}
