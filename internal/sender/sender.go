package sender

import (
	"context"
	"fmt"

	"github.com/ignite/dispatch/internal/domain"
)

// Email is one fully rendered message ready for delivery.
type Email struct {
	To          string
	ToName      string
	FromAddress string
	FromName    string
	Subject     string
	HTML        string
	Text        string

	// GroupID and RecipientID travel as provider tags for out-of-band
	// correlation (SES event destinations, SMTP headers).
	GroupID     string
	RecipientID string
}

// Sender delivers one email. Implementations return an error on failure;
// the pipeline decides whether that failure is retryable.
type Sender interface {
	Send(ctx context.Context, e *Email) error
}

// Factory builds a Sender for a resolved configuration. Implemented by
// Router; swapped for a stub in tests.
type Factory interface {
	ForConfig(cfg *domain.ResolvedConfig) (Sender, error)
}

// Router picks a transport by provider.
type Router struct{}

// NewRouter creates a provider router.
func NewRouter() *Router { return &Router{} }

// ForConfig returns the Sender matching the config's provider.
func (r *Router) ForConfig(cfg *domain.ResolvedConfig) (Sender, error) {
	switch cfg.Provider {
	case domain.ProviderSMTP:
		return NewSMTPSender(cfg), nil
	case domain.ProviderSES:
		return NewSESSender(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
