package sendconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/pkg/logger"
	"github.com/ignite/dispatch/internal/service/tenant"
)

// Service implements sending configuration business logic: CRUD, GLOBAL
// activation, and hierarchical resolution. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
	apps AppFinder
}

// NewService creates a sendconfig service backed by the given repositories.
func NewService(repo Repository, apps AppFinder) *Service {
	return &Service{repo: repo, apps: apps}
}

// Get returns a single config.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.SendingConfig, error) {
	return s.repo.Get(ctx, id)
}

// List returns all configs.
func (s *Service) List(ctx context.Context) ([]domain.SendingConfig, error) {
	return s.repo.List(ctx)
}

// CreateInput holds the fields for creating a sending config.
type CreateInput struct {
	Scope        domain.ConfigScope `json:"scope"`
	Provider     domain.Provider    `json:"provider"`
	Host         string             `json:"host"`
	Port         int                `json:"port"`
	Secure       bool               `json:"secure"`
	User         string             `json:"user"`
	Pass         string             `json:"pass"`
	AWSRegion    string             `json:"aws_region"`
	AWSAccessKey string             `json:"aws_access_key"`
	AWSSecretKey string             `json:"aws_secret_key"`
	FromAddress  string             `json:"from_address"`
	FromName     string             `json:"from_name"`
	CreatedBy    string             `json:"created_by"`
}

func validateProvider(in CreateInput) error {
	switch in.Provider {
	case domain.ProviderSMTP:
		if in.Host == "" {
			return fmt.Errorf("host is required for smtp configs")
		}
	case domain.ProviderSES:
		if in.AWSRegion == "" {
			return fmt.Errorf("aws_region is required for ses configs")
		}
	default:
		return ErrUnknownProvider
	}
	if in.FromAddress == "" {
		return fmt.Errorf("from_address is required")
	}
	return nil
}

// Create validates and persists a new sending config. TENANT and APP scopes
// hold at most one config each; creating the first GLOBAL config makes it
// active immediately so resolution never dead-ends on a fresh install.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.SendingConfig, error) {
	if err := in.Scope.Validate(); err != nil {
		return nil, err
	}
	if err := validateProvider(in); err != nil {
		return nil, err
	}

	if in.Scope.Kind != domain.ScopeGlobal {
		if _, err := s.repo.FindByScope(ctx, in.Scope); err == nil {
			return nil, ErrScopeTaken
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	now := time.Now().UTC()
	c := &domain.SendingConfig{
		ID:           uuid.New(),
		Scope:        in.Scope,
		Provider:     in.Provider,
		Host:         in.Host,
		Port:         in.Port,
		Secure:       in.Secure,
		User:         in.User,
		Pass:         in.Pass,
		AWSRegion:    in.AWSRegion,
		AWSAccessKey: in.AWSAccessKey,
		AWSSecretKey: in.AWSSecretKey,
		FromAddress:  in.FromAddress,
		FromName:     in.FromName,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if in.Scope.Kind == domain.ScopeGlobal {
		if _, err := s.repo.FindActiveGlobal(ctx); errors.Is(err, ErrNotFound) {
			c.IsActive = true
		} else if err != nil {
			return nil, err
		}
	} else {
		// TENANT and APP configs start active; they opt out through an
		// update rather than competing for a single active slot.
		c.IsActive = true
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create sending config: %w", err)
	}
	return c, nil
}

// SeedGlobal installs an active GLOBAL config from the environment fallback
// SMTP settings when no GLOBAL config exists yet, so a fresh install can
// send before an operator creates one. It reports whether a config was
// created; any existing GLOBAL config, active or not, makes it a no-op.
func (s *Service) SeedGlobal(ctx context.Context, in CreateInput) (*domain.SendingConfig, bool, error) {
	if _, err := s.repo.MostRecentGlobal(ctx); err == nil {
		return nil, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	in.Scope = domain.GlobalScope()
	c, err := s.Create(ctx, in)
	if err != nil {
		return nil, false, fmt.Errorf("seed global config: %w", err)
	}
	logger.Info("Seeded GLOBAL sending config from environment",
		"config_id", c.ID.String(),
		"host", c.Host)
	return c, true, nil
}

// UpdateFields holds the mutable fields for a config update.
// Nil fields are not applied.
type UpdateFields struct {
	Host         *string `json:"host"`
	Port         *int    `json:"port"`
	Secure       *bool   `json:"secure"`
	User         *string `json:"user"`
	Pass         *string `json:"pass"`
	AWSRegion    *string `json:"aws_region"`
	AWSAccessKey *string `json:"aws_access_key"`
	AWSSecretKey *string `json:"aws_secret_key"`
	FromAddress  *string `json:"from_address"`
	FromName     *string `json:"from_name"`
	IsActive     *bool   `json:"is_active"`
}

// Update modifies a config's non-scope fields. Scope and provider are
// immutable after creation; delete and recreate to change them. The active
// flag can be toggled here for TENANT and APP configs only; the GLOBAL
// active slot moves through Activate.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u UpdateFields) (*domain.SendingConfig, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Host != nil {
		c.Host = *u.Host
	}
	if u.Port != nil {
		c.Port = *u.Port
	}
	if u.Secure != nil {
		c.Secure = *u.Secure
	}
	if u.User != nil {
		c.User = *u.User
	}
	if u.Pass != nil {
		c.Pass = *u.Pass
	}
	if u.AWSRegion != nil {
		c.AWSRegion = *u.AWSRegion
	}
	if u.AWSAccessKey != nil {
		c.AWSAccessKey = *u.AWSAccessKey
	}
	if u.AWSSecretKey != nil {
		c.AWSSecretKey = *u.AWSSecretKey
	}
	if u.FromAddress != nil {
		c.FromAddress = *u.FromAddress
	}
	if u.FromName != nil {
		c.FromName = *u.FromName
	}
	if u.IsActive != nil {
		if c.Scope.Kind == domain.ScopeGlobal {
			return nil, ErrGlobalActive
		}
		c.IsActive = *u.IsActive
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update sending config: %w", err)
	}
	return c, nil
}

// Delete removes a config. Deleting the active GLOBAL config promotes the
// most recently updated surviving GLOBAL config so sending never stalls.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if c.Scope.Kind == domain.ScopeGlobal && c.IsActive {
		next, err := s.repo.MostRecentGlobal(ctx)
		if errors.Is(err, ErrNotFound) {
			logger.Warn("Active GLOBAL config deleted with no replacement", "config_id", id.String())
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.repo.Activate(ctx, next.ID); err != nil {
			return fmt.Errorf("promote global config: %w", err)
		}
		logger.Info("Promoted GLOBAL config after delete", "config_id", next.ID.String())
	}
	return nil
}

// Activate marks a GLOBAL config as the active one. Activating the already
// active config is a no-op. Non-GLOBAL configs cannot be activated.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*domain.SendingConfig, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Scope.Kind != domain.ScopeGlobal {
		return nil, ErrNotGlobal
	}
	if c.IsActive {
		return c, nil
	}

	if err := s.repo.Activate(ctx, id); err != nil {
		return nil, fmt.Errorf("activate sending config: %w", err)
	}
	c.IsActive = true
	return c, nil
}

// Resolve returns the effective sending configuration for an app reference
// (app ID or client ID). It walks APP -> TENANT -> GLOBAL and returns the
// first active config found whole; fields are never merged across scopes,
// and a deactivated scope config is skipped like a missing one. An unknown
// app reference falls through to the active GLOBAL config.
func (s *Service) Resolve(ctx context.Context, appRef string) (*domain.ResolvedConfig, error) {
	if appRef != "" {
		app, err := s.apps.FindApp(ctx, appRef)
		if err == nil {
			if c, err := s.repo.FindActiveByScope(ctx, domain.AppScope(app.ID, app.TenantID)); err == nil {
				return resolvedFrom(c), nil
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			if c, err := s.repo.FindActiveByScope(ctx, domain.TenantScope(app.TenantID)); err == nil {
				return resolvedFrom(c), nil
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		} else if !errors.Is(err, ErrNotFound) && !errors.Is(err, tenant.ErrAppNotFound) {
			return nil, err
		} else {
			logger.Debug("Unknown app reference, using GLOBAL config", "app_ref", appRef)
		}
	}

	c, err := s.repo.FindActiveGlobal(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoConfiguration
	}
	if err != nil {
		return nil, err
	}
	return resolvedFrom(c), nil
}

func resolvedFrom(c *domain.SendingConfig) *domain.ResolvedConfig {
	return &domain.ResolvedConfig{
		ConfigID:     c.ID,
		ResolvedFrom: c.Scope.Kind,
		Provider:     c.Provider,
		Host:         c.Host,
		Port:         c.Port,
		Secure:       c.Secure,
		User:         c.User,
		Pass:         c.Pass,
		AWSRegion:    c.AWSRegion,
		AWSAccessKey: c.AWSAccessKey,
		AWSSecretKey: c.AWSSecretKey,
		FromAddress:  c.FromAddress,
		FromName:     c.FromName,
	}
}

// Masked returns a copy of the config with secrets replaced so it can be
// returned from the API.
func Masked(c domain.SendingConfig) domain.SendingConfig {
	if c.Pass != "" {
		c.Pass = "********"
	}
	if c.AWSSecretKey != "" {
		c.AWSSecretKey = "********"
	}
	if len(c.AWSAccessKey) > 4 {
		c.AWSAccessKey = "****" + c.AWSAccessKey[len(c.AWSAccessKey)-4:]
	}
	return c
}
