package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/pkg/logger"
)

// Store defines the persistence contract for events. Append-only;
// implementations never update or delete rows.
type Store interface {
	Append(ctx context.Context, e *domain.Event) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]domain.Event, error)
}

// Publisher fans an event out to an external broker. Optional.
type Publisher interface {
	Publish(ctx context.Context, e *domain.Event) error
}

// Recorder persists pipeline events and optionally publishes them.
// A nil *Recorder is safe to use; every method is a no-op.
type Recorder struct {
	store Store
	pub   Publisher // may be nil
}

// NewRecorder creates a recorder. pub may be nil to disable fan-out.
func NewRecorder(store Store, pub Publisher) *Recorder {
	return &Recorder{store: store, pub: pub}
}

// Record appends an event and fans it out. Errors are logged, never returned:
// the pipeline must not fail because the audit trail did.
func (r *Recorder) Record(ctx context.Context, typ domain.EventType, groupID, recipientID *uuid.UUID, meta map[string]any) {
	if r == nil {
		return
	}

	e := &domain.Event{
		ID:          uuid.New(),
		GroupID:     groupID,
		RecipientID: recipientID,
		Type:        typ,
		Metadata:    meta,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.store.Append(ctx, e); err != nil {
		logger.Error("Failed to append event", "type", string(typ), "error", err.Error())
		return
	}

	if r.pub != nil {
		if err := r.pub.Publish(ctx, e); err != nil {
			logger.Warn("Failed to publish event", "type", string(typ), "error", err.Error())
		}
	}
}

// ListByGroup returns a group's events, newest first.
func (r *Recorder) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]domain.Event, error) {
	if r == nil {
		return nil, nil
	}
	return r.store.ListByGroup(ctx, groupID, limit, offset)
}
