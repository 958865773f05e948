package tenant_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/tenant"
)

// memRepo is an in-memory tenant repository for unit testing.
type memRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*domain.Tenant
	apps    map[uuid.UUID]*domain.App
}

func newMemRepo() *memRepo {
	return &memRepo{
		tenants: make(map[uuid.UUID]*domain.Tenant),
		apps:    make(map[uuid.UUID]*domain.App),
	}
}

func (m *memRepo) GetTenant(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) ListTenants(_ context.Context) ([]domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Tenant
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memRepo) CreateTenant(_ context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tenants[cp.ID] = &cp
	return nil
}

func (m *memRepo) UpdateTenantStatus(_ context.Context, id uuid.UUID, status domain.TenantStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return tenant.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m *memRepo) GetApp(_ context.Context, id uuid.UUID) (*domain.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, tenant.ErrAppNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) FindApp(_ context.Context, ref string) (*domain.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ID.String() == ref {
			cp := *a
			return &cp, nil
		}
	}
	for _, a := range m.apps {
		if a.ClientID == ref {
			cp := *a
			return &cp, nil
		}
	}
	return nil, tenant.ErrAppNotFound
}

func (m *memRepo) ListApps(_ context.Context, tenantID uuid.UUID) ([]domain.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.App
	for _, a := range m.apps {
		if a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) CreateApp(_ context.Context, a *domain.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.ClientID == a.ClientID {
			return tenant.ErrClientIDTaken
		}
	}
	cp := *a
	m.apps[cp.ID] = &cp
	return nil
}

func TestCreateTenant(t *testing.T) {
	svc := tenant.NewService(newMemRepo())

	tn, err := svc.CreateTenant(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tn.Status != domain.TenantActive {
		t.Fatalf("expected active, got %s", tn.Status)
	}

	if _, err := svc.CreateTenant(context.Background(), "  "); err == nil {
		t.Fatal("expected validation error for blank name")
	}
}

func TestCreateAppAndFind(t *testing.T) {
	svc := tenant.NewService(newMemRepo())
	tn, _ := svc.CreateTenant(context.Background(), "Acme")

	app, err := svc.CreateApp(context.Background(), tn.ID, "checkout", "checkout-prod")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	byID, err := svc.FindApp(context.Background(), app.ID.String())
	if err != nil || byID.ID != app.ID {
		t.Fatalf("find by id: %v", err)
	}
	byClient, err := svc.FindApp(context.Background(), "checkout-prod")
	if err != nil || byClient.ID != app.ID {
		t.Fatalf("find by client id: %v", err)
	}

	_, err = svc.FindApp(context.Background(), "nope")
	if !errors.Is(err, tenant.ErrAppNotFound) {
		t.Fatalf("expected ErrAppNotFound, got %v", err)
	}
}

func TestCreateAppClientIDCollision(t *testing.T) {
	svc := tenant.NewService(newMemRepo())
	tn, _ := svc.CreateTenant(context.Background(), "Acme")

	if _, err := svc.CreateApp(context.Background(), tn.ID, "a", "shared"); err != nil {
		t.Fatalf("first app: %v", err)
	}
	_, err := svc.CreateApp(context.Background(), tn.ID, "b", "shared")
	if !errors.Is(err, tenant.ErrClientIDTaken) {
		t.Fatalf("expected ErrClientIDTaken, got %v", err)
	}
}

func TestCreateAppOnDisabledTenant(t *testing.T) {
	svc := tenant.NewService(newMemRepo())
	tn, _ := svc.CreateTenant(context.Background(), "Acme")
	if err := svc.Disable(context.Background(), tn.ID); err != nil {
		t.Fatalf("disable: %v", err)
	}

	if _, err := svc.CreateApp(context.Background(), tn.ID, "app", ""); err == nil {
		t.Fatal("expected error creating app under disabled tenant")
	}
}

func TestCreateAppGeneratedClientID(t *testing.T) {
	svc := tenant.NewService(newMemRepo())
	tn, _ := svc.CreateTenant(context.Background(), "Acme")

	app, err := svc.CreateApp(context.Background(), tn.ID, "app", "")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	if app.ClientID == "" {
		t.Fatal("expected a generated client id")
	}
}
