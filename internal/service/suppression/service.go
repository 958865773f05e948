package suppression

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Service implements suppression business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a suppression service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Normalize lowercases and trims an email address the way the list stores it.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSuppressed checks whether an email address should be blocked from sending.
func (s *Service) IsSuppressed(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	return s.repo.IsSuppressed(ctx, tenantID, Normalize(email))
}

// Suppress adds an email to the tenant's suppression list. Idempotent - if
// the email is already suppressed, the existing record is preserved.
func (s *Service) Suppress(ctx context.Context, tenantID uuid.UUID, email, reason string) error {
	email = Normalize(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	return s.repo.Suppress(ctx, &domain.Suppression{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     email,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
}

// Remove deletes a suppression entry. Returns ErrNotFound if the email is
// not suppressed.
func (s *Service) Remove(ctx context.Context, tenantID uuid.UUID, email string) error {
	email = Normalize(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	return s.repo.Remove(ctx, tenantID, email)
}

// List returns suppression entries matching the given filter.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]domain.Suppression, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

// Count returns the total number of suppressed emails for a tenant.
func (s *Service) Count(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.repo.Count(ctx, tenantID)
}
