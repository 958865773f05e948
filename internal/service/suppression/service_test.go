package suppression

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.Suppression // keyed by "tenantID:email"
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*domain.Suppression)}
}

func (m *mockRepo) key(tenantID uuid.UUID, email string) string {
	return tenantID.String() + ":" + strings.ToLower(email)
}

func (m *mockRepo) IsSuppressed(_ context.Context, tenantID uuid.UUID, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.store[m.key(tenantID, email)]
	return ok, nil
}

func (m *mockRepo) Suppress(_ context.Context, s *domain.Suppression) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(s.TenantID, s.Email)
	if _, exists := m.store[k]; exists {
		return nil
	}
	m.store[k] = s
	return nil
}

func (m *mockRepo) Remove(_ context.Context, tenantID uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(tenantID, email)
	if _, ok := m.store[k]; !ok {
		return ErrNotFound
	}
	delete(m.store, k)
	return nil
}

func (m *mockRepo) List(_ context.Context, tenantID uuid.UUID, f ListFilter) ([]domain.Suppression, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []domain.Suppression
	for _, s := range m.store {
		if s.TenantID != tenantID {
			continue
		}
		if f.Reason != "" && s.Reason != f.Reason {
			continue
		}
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (m *mockRepo) Count(_ context.Context, tenantID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.store {
		if s.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func TestSuppressAndCheck(t *testing.T) {
	svc := NewService(newMockRepo())
	tenant := uuid.New()

	if err := svc.Suppress(context.Background(), tenant, "User@Example.COM ", "bounce"); err != nil {
		t.Fatalf("suppress: %v", err)
	}

	// Lookup normalizes the same way the write path does.
	ok, err := svc.IsSuppressed(context.Background(), tenant, "user@example.com")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("expected email to be suppressed")
	}

	// Another tenant is unaffected.
	ok, _ = svc.IsSuppressed(context.Background(), uuid.New(), "user@example.com")
	if ok {
		t.Fatal("suppression must be tenant-scoped")
	}
}

func TestSuppressIdempotent(t *testing.T) {
	svc := NewService(newMockRepo())
	tenant := uuid.New()

	if err := svc.Suppress(context.Background(), tenant, "a@b.com", "bounce"); err != nil {
		t.Fatalf("first suppress: %v", err)
	}
	if err := svc.Suppress(context.Background(), tenant, "a@b.com", "complaint"); err != nil {
		t.Fatalf("second suppress: %v", err)
	}

	n, _ := svc.Count(context.Background(), tenant)
	if n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
}

func TestSuppressEmptyEmail(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Suppress(context.Background(), uuid.New(), "   ", "manual"); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestRemove(t *testing.T) {
	svc := NewService(newMockRepo())
	tenant := uuid.New()

	svc.Suppress(context.Background(), tenant, "a@b.com", "manual")
	if err := svc.Remove(context.Background(), tenant, "A@B.com"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	ok, _ := svc.IsSuppressed(context.Background(), tenant, "a@b.com")
	if ok {
		t.Fatal("expected email to be unsuppressed after removal")
	}

	if err := svc.Remove(context.Background(), tenant, "a@b.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByReason(t *testing.T) {
	svc := NewService(newMockRepo())
	tenant := uuid.New()

	svc.Suppress(context.Background(), tenant, "a@b.com", "bounce")
	svc.Suppress(context.Background(), tenant, "c@d.com", "complaint")

	entries, total, err := svc.List(context.Background(), tenant, ListFilter{Reason: "bounce"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(entries) != 1 || entries[0].Email != "a@b.com" {
		t.Fatalf("unexpected list result: %+v (total %d)", entries, total)
	}
}
