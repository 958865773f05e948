package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/sendconfig"
)

// SendConfigRepo implements sendconfig.Repository against PostgreSQL.
type SendConfigRepo struct{ db *sql.DB }

// NewSendConfigRepo creates a Postgres-backed sending config repository.
func NewSendConfigRepo(db *sql.DB) *SendConfigRepo { return &SendConfigRepo{db: db} }

const configColumns = `
	id, scope_kind, tenant_id, app_id, provider,
	COALESCE(host,''), COALESCE(port,0), secure,
	COALESCE(smtp_user,''), COALESCE(smtp_pass,''),
	COALESCE(aws_region,''), COALESCE(aws_access_key,''), COALESCE(aws_secret_key,''),
	COALESCE(from_address,''), COALESCE(from_name,''),
	is_active, COALESCE(created_by,''), created_at, updated_at`

func scanConfig(row interface{ Scan(...interface{}) error }) (*domain.SendingConfig, error) {
	c := &domain.SendingConfig{}
	var tenantID, appID uuid.NullUUID
	err := row.Scan(
		&c.ID, &c.Scope.Kind, &tenantID, &appID, &c.Provider,
		&c.Host, &c.Port, &c.Secure,
		&c.User, &c.Pass,
		&c.AWSRegion, &c.AWSAccessKey, &c.AWSSecretKey,
		&c.FromAddress, &c.FromName,
		&c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tenantID.Valid {
		c.Scope.TenantID = &tenantID.UUID
	}
	if appID.Valid {
		c.Scope.AppID = &appID.UUID
	}
	return c, nil
}

func (r *SendConfigRepo) Get(ctx context.Context, id uuid.UUID) (*domain.SendingConfig, error) {
	c, err := scanConfig(r.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM sending_configs WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, sendconfig.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sending config: %w", err)
	}
	return c, nil
}

func (r *SendConfigRepo) List(ctx context.Context) ([]domain.SendingConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+configColumns+` FROM sending_configs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sending configs: %w", err)
	}
	defer rows.Close()

	var out []domain.SendingConfig
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sending config: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *SendConfigRepo) FindByScope(ctx context.Context, scope domain.ConfigScope) (*domain.SendingConfig, error) {
	return r.findByScope(ctx, scope, "")
}

func (r *SendConfigRepo) FindActiveByScope(ctx context.Context, scope domain.ConfigScope) (*domain.SendingConfig, error) {
	return r.findByScope(ctx, scope, " AND is_active")
}

func (r *SendConfigRepo) findByScope(ctx context.Context, scope domain.ConfigScope, filter string) (*domain.SendingConfig, error) {
	var row *sql.Row
	switch scope.Kind {
	case domain.ScopeTenant:
		row = r.db.QueryRowContext(ctx,
			`SELECT `+configColumns+` FROM sending_configs WHERE scope_kind = $1 AND tenant_id = $2`+filter,
			scope.Kind, scope.TenantID)
	case domain.ScopeApp:
		row = r.db.QueryRowContext(ctx,
			`SELECT `+configColumns+` FROM sending_configs WHERE scope_kind = $1 AND app_id = $2`+filter,
			scope.Kind, scope.AppID)
	default:
		return nil, fmt.Errorf("find by scope: unsupported kind %q", scope.Kind)
	}

	c, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, sendconfig.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find config by scope: %w", err)
	}
	return c, nil
}

func (r *SendConfigRepo) FindActiveGlobal(ctx context.Context) (*domain.SendingConfig, error) {
	c, err := scanConfig(r.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM sending_configs WHERE scope_kind = 'GLOBAL' AND is_active LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, sendconfig.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active global config: %w", err)
	}
	return c, nil
}

func (r *SendConfigRepo) MostRecentGlobal(ctx context.Context) (*domain.SendingConfig, error) {
	c, err := scanConfig(r.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM sending_configs WHERE scope_kind = 'GLOBAL' ORDER BY updated_at DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, sendconfig.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("most recent global config: %w", err)
	}
	return c, nil
}

func (r *SendConfigRepo) Create(ctx context.Context, c *domain.SendingConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sending_configs (
			id, scope_kind, tenant_id, app_id, provider,
			host, port, secure, smtp_user, smtp_pass,
			aws_region, aws_access_key, aws_secret_key,
			from_address, from_name, is_active, created_by,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`, c.ID, c.Scope.Kind, c.Scope.TenantID, c.Scope.AppID, c.Provider,
		c.Host, c.Port, c.Secure, c.User, c.Pass,
		c.AWSRegion, c.AWSAccessKey, c.AWSSecretKey,
		c.FromAddress, c.FromName, c.IsActive, c.CreatedBy,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert sending config: %w", err)
	}
	return nil
}

func (r *SendConfigRepo) Update(ctx context.Context, c *domain.SendingConfig) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sending_configs SET
			host = $2, port = $3, secure = $4, smtp_user = $5, smtp_pass = $6,
			aws_region = $7, aws_access_key = $8, aws_secret_key = $9,
			from_address = $10, from_name = $11, is_active = $12, updated_at = $13
		WHERE id = $1
	`, c.ID, c.Host, c.Port, c.Secure, c.User, c.Pass,
		c.AWSRegion, c.AWSAccessKey, c.AWSSecretKey,
		c.FromAddress, c.FromName, c.IsActive, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sending config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sendconfig.ErrNotFound
	}
	return nil
}

func (r *SendConfigRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sending_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sending config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sendconfig.ErrNotFound
	}
	return nil
}

// Activate flips the active GLOBAL config in one transaction: every other
// GLOBAL config is deactivated, then the target is activated. The single
// active invariant holds at commit regardless of concurrent activations.
func (r *SendConfigRepo) Activate(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE sending_configs SET is_active = FALSE, updated_at = NOW()
		WHERE scope_kind = 'GLOBAL' AND is_active AND id <> $1
	`, id); err != nil {
		return fmt.Errorf("deactivate globals: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE sending_configs SET is_active = TRUE, updated_at = NOW()
		WHERE id = $1 AND scope_kind = 'GLOBAL'
	`, id)
	if err != nil {
		return fmt.Errorf("activate config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sendconfig.ErrNotFound
	}

	return tx.Commit()
}
