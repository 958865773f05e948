package template

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

var placeholderRe = regexp.MustCompile(`\$\{\s*([A-Za-z0-9_]+)\s*\}`)

// Substitute replaces ${name} placeholders in s with values from ctx.
// Lookup is case-insensitive and a missing or nil variable renders as an
// empty string. Non-string values are formatted with %v.
func Substitute(s string, ctx map[string]any) string {
	if s == "" || !strings.Contains(s, "${") {
		return s
	}

	lowered := make(map[string]any, len(ctx))
	for k, v := range ctx {
		lowered[strings.ToLower(k)] = v
	}

	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := lowered[strings.ToLower(name)]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	})
}

// Render applies a recipient context to raw subject and body content. It
// never fails: placeholders with no matching key render as empty strings,
// and an all-empty result is still delivered as such.
func Render(subject, bodyHTML, bodyText string, ctx map[string]any) *domain.Rendered {
	return &domain.Rendered{
		Subject: Substitute(subject, ctx),
		HTML:    Substitute(bodyHTML, ctx),
		Text:    Substitute(bodyText, ctx),
	}
}

// Service implements template lifecycle management.
type Service struct {
	repo Repository
}

// NewService creates a template service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single template.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	return s.repo.Get(ctx, id)
}

// List returns a tenant's templates.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]domain.Template, error) {
	return s.repo.List(ctx, tenantID)
}

// CreateInput holds the fields for creating a template version.
type CreateInput struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Subject  string    `json:"subject"`
	BodyHTML string    `json:"body_html"`
	BodyText string    `json:"body_text"`
}

// Create mints the next version of (tenant, name) and activates it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Template, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if in.BodyHTML == "" && in.BodyText == "" {
		return nil, fmt.Errorf("body_html or body_text is required")
	}

	latest, err := s.repo.LatestVersion(ctx, in.TenantID, in.Name)
	if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}

	now := time.Now().UTC()
	t := &domain.Template{
		ID:        uuid.New(),
		TenantID:  in.TenantID,
		Name:      in.Name,
		Version:   latest + 1,
		Subject:   in.Subject,
		BodyHTML:  in.BodyHTML,
		BodyText:  in.BodyText,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// UpdateFields holds the mutable fields for an in-place template update.
// Nil fields are not applied.
type UpdateFields struct {
	Subject  *string `json:"subject"`
	BodyHTML *string `json:"body_html"`
	BodyText *string `json:"body_text"`
}

// Update edits a template version in place. Use Create to mint a new version
// instead when the old content must stay reproducible.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u UpdateFields) (*domain.Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Subject != nil {
		t.Subject = *u.Subject
	}
	if u.BodyHTML != nil {
		t.BodyHTML = *u.BodyHTML
	}
	if u.BodyText != nil {
		t.BodyText = *u.BodyText
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

// Delete removes a template version.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
