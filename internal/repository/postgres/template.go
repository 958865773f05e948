package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/template"
)

// TemplateRepo implements template.Repository against PostgreSQL.
type TemplateRepo struct{ db *sql.DB }

// NewTemplateRepo creates a Postgres-backed template repository.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

const templateColumns = `id, tenant_id, name, version, subject, body_html, COALESCE(body_text,''), is_active, created_at, updated_at`

func scanTemplate(row interface{ Scan(...interface{}) error }) (*domain.Template, error) {
	t := &domain.Template{}
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.Version, &t.Subject,
		&t.BodyHTML, &t.BodyText, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, template.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (r *TemplateRepo) List(ctx context.Context, tenantID uuid.UUID) ([]domain.Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE tenant_id = $1 ORDER BY name, version DESC`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TemplateRepo) LatestVersion(ctx context.Context, tenantID uuid.UUID, name string) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM templates WHERE tenant_id = $1 AND name = $2`,
		tenantID, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("latest template version: %w", err)
	}
	return v, nil
}

func (r *TemplateRepo) Create(ctx context.Context, t *domain.Template) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template create: %w", err)
	}
	defer tx.Rollback()

	if t.IsActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE templates SET is_active = FALSE, updated_at = NOW()
			WHERE tenant_id = $1 AND name = $2 AND is_active
		`, t.TenantID, t.Name); err != nil {
			return fmt.Errorf("deactivate prior versions: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO templates (id, tenant_id, name, version, subject, body_html, body_text, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, t.ID, t.TenantID, t.Name, t.Version, t.Subject, t.BodyHTML, t.BodyText,
		t.IsActive, t.CreatedAt, t.UpdatedAt); err != nil {
		return fmt.Errorf("insert template: %w", err)
	}

	return tx.Commit()
}

func (r *TemplateRepo) Update(ctx context.Context, t *domain.Template) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE templates SET subject = $2, body_html = $3, body_text = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Subject, t.BodyHTML, t.BodyText, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrNotFound
	}
	return nil
}

func (r *TemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrNotFound
	}
	return nil
}
