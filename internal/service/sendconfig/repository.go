package sendconfig

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
)

// Repository defines the data access contract for sending configs.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single config. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.SendingConfig, error)

	// List returns all configs ordered by created_at DESC.
	List(ctx context.Context) ([]domain.SendingConfig, error)

	// FindByScope returns the config at the given TENANT or APP scope,
	// active or not. Returns ErrNotFound if the scope has no config.
	FindByScope(ctx context.Context, scope domain.ConfigScope) (*domain.SendingConfig, error)

	// FindActiveByScope returns the config at the given TENANT or APP
	// scope only when it is active. Returns ErrNotFound otherwise.
	FindActiveByScope(ctx context.Context, scope domain.ConfigScope) (*domain.SendingConfig, error)

	// FindActiveGlobal returns the active GLOBAL config, or ErrNotFound.
	FindActiveGlobal(ctx context.Context) (*domain.SendingConfig, error)

	// MostRecentGlobal returns the most recently updated GLOBAL config,
	// active or not, or ErrNotFound if no GLOBAL configs exist.
	MostRecentGlobal(ctx context.Context) (*domain.SendingConfig, error)

	// Create inserts a new config.
	Create(ctx context.Context, c *domain.SendingConfig) error

	// Update modifies a config's mutable fields.
	Update(ctx context.Context, c *domain.SendingConfig) error

	// Delete removes a config. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Activate marks the given GLOBAL config active and deactivates every
	// other GLOBAL config in the same transaction.
	Activate(ctx context.Context, id uuid.UUID) error
}

// AppFinder resolves app references for config resolution.
type AppFinder interface {
	// FindApp looks an app up by ID first, then by client ID.
	// Returns ErrNotFound if neither matches.
	FindApp(ctx context.Context, ref string) (*domain.App, error)
}
