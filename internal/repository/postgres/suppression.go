package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/suppression"
)

// SuppressionRepo implements suppression.Repository against PostgreSQL.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) IsSuppressed(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppressions WHERE tenant_id = $1 AND email = $2)`,
		tenantID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	return exists, nil
}

func (r *SuppressionRepo) Suppress(ctx context.Context, s *domain.Suppression) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppressions (id, tenant_id, email, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, email) DO NOTHING
	`, s.ID, s.TenantID, s.Email, s.Reason, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert suppression: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Remove(ctx context.Context, tenantID uuid.UUID, email string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM suppressions WHERE tenant_id = $1 AND email = $2`, tenantID, email)
	if err != nil {
		return fmt.Errorf("delete suppression: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return suppression.ErrNotFound
	}
	return nil
}

func (r *SuppressionRepo) List(ctx context.Context, tenantID uuid.UUID, filter suppression.ListFilter) ([]domain.Suppression, int, error) {
	where := `WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.Reason != "" {
		args = append(args, filter.Reason)
		where += fmt.Sprintf(` AND reason = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND email ILIKE $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suppressions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppressions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, tenant_id, email, COALESCE(reason,''), created_at
		FROM suppressions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suppression
	for rows.Next() {
		var s domain.Suppression
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Email, &s.Reason, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan suppression: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *SuppressionRepo) Count(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suppressions WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count suppressions: %w", err)
	}
	return n, nil
}
