package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Repository defines the data access contract for tenants and apps.
type Repository interface {
	// GetTenant returns a single tenant. Returns ErrNotFound if missing.
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)

	// ListTenants returns all tenants, newest first.
	ListTenants(ctx context.Context) ([]domain.Tenant, error)

	// CreateTenant inserts a new tenant.
	CreateTenant(ctx context.Context, t *domain.Tenant) error

	// UpdateTenantStatus changes a tenant's status.
	UpdateTenantStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error

	// GetApp returns a single app. Returns ErrAppNotFound if missing.
	GetApp(ctx context.Context, id uuid.UUID) (*domain.App, error)

	// FindApp looks an app up by UUID first, then by client ID.
	// Returns ErrAppNotFound if neither matches.
	FindApp(ctx context.Context, ref string) (*domain.App, error)

	// ListApps returns a tenant's apps.
	ListApps(ctx context.Context, tenantID uuid.UUID) ([]domain.App, error)

	// CreateApp inserts a new app. Returns ErrClientIDTaken when the
	// client ID collides.
	CreateApp(ctx context.Context, a *domain.App) error
}
