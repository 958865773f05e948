package template_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/template"
)

func TestSubstitute(t *testing.T) {
	ctx := map[string]any{"Name": "Ada", "count": 3, "empty": nil}

	cases := []struct {
		in   string
		want string
	}{
		{"Hello ${name}", "Hello Ada"},
		{"Hello ${NAME}", "Hello Ada"},
		{"Hello ${ name }", "Hello Ada"},
		{"You have ${count} items", "You have 3 items"},
		{"Missing ${nope} here", "Missing  here"},
		{"Nil is ${empty}.", "Nil is ."},
		{"No placeholders", "No placeholders"},
		{"${name}${name}", "AdaAda"},
		{"", ""},
	}
	for _, c := range cases {
		if got := template.Substitute(c.in, ctx); got != c.want {
			t.Errorf("Substitute(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRender(t *testing.T) {
	r := template.Render("Hi ${name}", "<p>Hi ${name}</p>", "Hi ${name}", map[string]any{"name": "Ada"})
	if r.Subject != "Hi Ada" || r.HTML != "<p>Hi Ada</p>" || r.Text != "Hi Ada" {
		t.Fatalf("unexpected output: %+v", r)
	}
}

func TestRenderEmptyResultIsNotAnError(t *testing.T) {
	// Missing placeholder values render as empty strings rather than
	// blocking the recipient.
	r := template.Render("${missing}", "${missing}", "${missing}", nil)
	if r.Subject != "" || r.HTML != "" || r.Text != "" {
		t.Fatalf("expected empty render, got %+v", r)
	}
}

// memRepo is an in-memory template repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*domain.Template
}

func newMemRepo() *memRepo {
	return &memRepo{templates: make(map[uuid.UUID]*domain.Template)}
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, template.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, tenantID uuid.UUID) ([]domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Template
	for _, t := range m.templates {
		if t.TenantID == tenantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memRepo) LatestVersion(_ context.Context, tenantID uuid.UUID, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := 0
	for _, t := range m.templates {
		if t.TenantID == tenantID && t.Name == name && t.Version > latest {
			latest = t.Version
		}
	}
	return latest, nil
}

func (m *memRepo) Create(_ context.Context, t *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.IsActive {
		for _, prev := range m.templates {
			if prev.TenantID == t.TenantID && prev.Name == t.Name {
				prev.IsActive = false
			}
		}
	}
	cp := *t
	m.templates[cp.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, t *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return template.ErrNotFound
	}
	cp := *t
	m.templates[cp.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return template.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

func TestCreateVersioning(t *testing.T) {
	svc := template.NewService(newMemRepo())
	tenantID := uuid.New()

	v1, err := svc.Create(context.Background(), template.CreateInput{
		TenantID: tenantID, Name: "welcome", Subject: "Hi", BodyHTML: "<p>Hi</p>",
	})
	if err != nil {
		t.Fatalf("create v1: %v", err)
	}
	if v1.Version != 1 || !v1.IsActive {
		t.Fatalf("expected active v1, got v%d active=%v", v1.Version, v1.IsActive)
	}

	v2, err := svc.Create(context.Background(), template.CreateInput{
		TenantID: tenantID, Name: "welcome", Subject: "Hi again", BodyHTML: "<p>Hi</p>",
	})
	if err != nil {
		t.Fatalf("create v2: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("expected version 2, got %d", v2.Version)
	}

	got, _ := svc.Get(context.Background(), v1.ID)
	if got.IsActive {
		t.Fatal("v1 should be deactivated after v2 is created")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := template.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), template.CreateInput{
		TenantID: uuid.New(), Name: "x", Subject: "s",
	})
	if err == nil {
		t.Fatal("expected validation error for missing body")
	}
}

func TestUpdateInPlace(t *testing.T) {
	svc := template.NewService(newMemRepo())
	v1, _ := svc.Create(context.Background(), template.CreateInput{
		TenantID: uuid.New(), Name: "welcome", Subject: "Hi", BodyHTML: "<p>Hi</p>",
	})

	newSubject := "Hello"
	got, err := svc.Update(context.Background(), v1.ID, template.UpdateFields{Subject: &newSubject})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Subject != "Hello" || got.Version != 1 {
		t.Fatalf("expected in-place edit on v1, got %+v", got)
	}
}
