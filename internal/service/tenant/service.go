package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Service implements tenant and app business logic.
type Service struct {
	repo Repository
}

// NewService creates a tenant service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetTenant returns a single tenant.
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return s.repo.GetTenant(ctx, id)
}

// ListTenants returns all tenants.
func (s *Service) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

// CreateTenant registers a tenant in active status.
func (s *Service) CreateTenant(ctx context.Context, name string) (*domain.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	now := time.Now().UTC()
	t := &domain.Tenant{
		ID:        uuid.New(),
		Name:      name,
		Status:    domain.TenantActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateTenant(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

// Disable flips a tenant to disabled; its groups stop being accepted but
// nothing is removed.
func (s *Service) Disable(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetTenant(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateTenantStatus(ctx, id, domain.TenantDisabled)
}

// Delete soft-deletes a tenant.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetTenant(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateTenantStatus(ctx, id, domain.TenantDeleted)
}

// GetApp returns a single app.
func (s *Service) GetApp(ctx context.Context, id uuid.UUID) (*domain.App, error) {
	return s.repo.GetApp(ctx, id)
}

// FindApp resolves an app by UUID or client ID.
func (s *Service) FindApp(ctx context.Context, ref string) (*domain.App, error) {
	return s.repo.FindApp(ctx, ref)
}

// ListApps returns a tenant's apps.
func (s *Service) ListApps(ctx context.Context, tenantID uuid.UUID) ([]domain.App, error) {
	if _, err := s.repo.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListApps(ctx, tenantID)
}

// CreateApp registers an app under a tenant. When clientID is empty a
// generated one is assigned.
func (s *Service) CreateApp(ctx context.Context, tenantID uuid.UUID, name, clientID string) (*domain.App, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	t, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TenantActive {
		return nil, ErrTenantInactive
	}

	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		clientID = "app-" + uuid.New().String()[:8]
	}

	now := time.Now().UTC()
	a := &domain.App{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		ClientID:  clientID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateApp(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
