package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/tenant"
	"github.com/lib/pq"
)

// TenantRepo implements tenant.Repository against PostgreSQL.
type TenantRepo struct{ db *sql.DB }

// NewTenantRepo creates a Postgres-backed tenant repository.
func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

func (r *TenantRepo) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, tenant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (r *TenantRepo) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TenantRepo) CreateTenant(ctx context.Context, t *domain.Tenant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Name, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *TenantRepo) UpdateTenantStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

func (r *TenantRepo) GetApp(ctx context.Context, id uuid.UUID) (*domain.App, error) {
	a := &domain.App{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, client_id, created_at, updated_at
		FROM apps
		WHERE id = $1
	`, id).Scan(&a.ID, &a.TenantID, &a.Name, &a.ClientID, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, tenant.ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get app: %w", err)
	}
	return a, nil
}

// FindApp resolves an app reference: UUIDs are tried as primary keys first,
// anything unmatched falls back to a client_id lookup.
func (r *TenantRepo) FindApp(ctx context.Context, ref string) (*domain.App, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if a, err := r.GetApp(ctx, id); err == nil {
			return a, nil
		} else if err != tenant.ErrAppNotFound {
			return nil, err
		}
	}

	a := &domain.App{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, client_id, created_at, updated_at
		FROM apps
		WHERE client_id = $1
	`, ref).Scan(&a.ID, &a.TenantID, &a.Name, &a.ClientID, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, tenant.ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find app: %w", err)
	}
	return a, nil
}

func (r *TenantRepo) ListApps(ctx context.Context, tenantID uuid.UUID) ([]domain.App, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, client_id, created_at, updated_at
		FROM apps
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()

	var out []domain.App
	for rows.Next() {
		var a domain.App
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.ClientID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *TenantRepo) CreateApp(ctx context.Context, a *domain.App) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO apps (id, tenant_id, name, client_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.TenantID, a.Name, a.ClientID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" &&
			strings.Contains(pqErr.Constraint, "client_id") {
			return tenant.ErrClientIDTaken
		}
		return fmt.Errorf("insert app: %w", err)
	}
	return nil
}
