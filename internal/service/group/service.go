package group

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/events"
	"github.com/ignite/dispatch/internal/pkg/logger"
)

// Service implements message group business logic. All public methods are
// safe for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo      Repository
	templates TemplateFinder
	recorder  *events.Recorder
}

// NewService creates a group service. templates may be nil to skip template
// reference checks; recorder may be nil to disable the audit trail.
func NewService(repo Repository, templates TemplateFinder, recorder *events.Recorder) *Service {
	return &Service{repo: repo, templates: templates, recorder: recorder}
}

// Get returns a single group.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.MessageGroup, error) {
	return s.repo.Get(ctx, id)
}

// List returns a tenant's groups.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) ([]domain.MessageGroup, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

// CreateInput holds the fields for creating a message group.
type CreateInput struct {
	TenantID    uuid.UUID  `json:"tenant_id"`
	AppID       *uuid.UUID `json:"app_id"`
	TemplateID  *uuid.UUID `json:"template_id"`
	Subject     string     `json:"subject"`
	BodyHTML    string     `json:"body_html"`
	BodyText    string     `json:"body_text"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Create persists a new group. It lands in draft, or directly in scheduled
// when a scheduled_at is supplied. Content comes either from a template
// reference or inline subject/body; without either the group could never
// render, so creation is rejected.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.MessageGroup, error) {
	if in.TemplateID == nil {
		if in.Subject == "" || (in.BodyHTML == "" && in.BodyText == "") {
			return nil, ErrNoContent
		}
	} else if s.templates != nil {
		if _, err := s.templates.Get(ctx, *in.TemplateID); err != nil {
			return nil, fmt.Errorf("template %s: %w", in.TemplateID, err)
		}
	}

	now := time.Now().UTC()
	g := &domain.MessageGroup{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		AppID:       in.AppID,
		TemplateID:  in.TemplateID,
		Subject:     in.Subject,
		BodyHTML:    in.BodyHTML,
		BodyText:    in.BodyText,
		Status:      domain.GroupDraft,
		ScheduledAt: in.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.ScheduledAt != nil {
		g.Status = domain.GroupScheduled
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// RecipientInput is one addressee in an ingestion payload.
type RecipientInput struct {
	Email   string         `json:"email"`
	Name    string         `json:"name"`
	Context map[string]any `json:"context"`
}

// IngestRecipients adds recipients to a draft or scheduled group and returns
// the number actually added. With dedupe on, emails already present in the
// group (or repeated within the payload) are skipped silently; the group's
// total only grows by what was inserted.
func (s *Service) IngestRecipients(ctx context.Context, groupID uuid.UUID, inputs []RecipientInput, dedupe bool) (int, error) {
	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if g.Status != domain.GroupDraft && g.Status != domain.GroupScheduled {
		return 0, ErrNotEditable
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(inputs))
	rs := make([]domain.Recipient, 0, len(inputs))
	for _, in := range inputs {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if email == "" {
			return 0, fmt.Errorf("recipient email is required")
		}
		if dedupe {
			if seen[email] {
				continue
			}
			seen[email] = true
		}
		rs = append(rs, domain.Recipient{
			ID:        uuid.New(),
			GroupID:   groupID,
			Email:     email,
			Name:      in.Name,
			Context:   in.Context,
			Status:    domain.RecipientPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(rs) == 0 {
		return 0, nil
	}

	added, err := s.repo.InsertRecipients(ctx, groupID, rs, dedupe)
	if err != nil {
		return 0, fmt.Errorf("ingest recipients: %w", err)
	}

	logger.Info("Recipients ingested",
		"group_id", groupID.String(),
		"received", len(inputs),
		"added", added)
	return added, nil
}

// Schedule sets when the group becomes due. Draft groups move to scheduled;
// scheduled groups just get the new time. Anything further along is rejected.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID, at time.Time) (*domain.MessageGroup, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status != domain.GroupDraft && g.Status != domain.GroupScheduled {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.SetScheduled(ctx, id, at); err != nil {
		return nil, fmt.Errorf("schedule group: %w", err)
	}
	g.Status = domain.GroupScheduled
	g.ScheduledAt = &at
	return g, nil
}

// Cancel stops a group. Legal from draft, scheduled, and processing. A
// cancellation that lands while a tick is dispatching the group takes effect
// once that tick finishes: the worker's conditional completion update no
// longer matches and later ticks never pick the group up again, but sends
// already in flight are not recalled. Canceling an already canceled group is
// a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.MessageGroup, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status == domain.GroupCanceled {
		return g, nil
	}
	if !domain.CanTransition(g.Status, domain.GroupCanceled) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	ok, err := s.repo.CancelFrom(ctx, id, g.Status, now)
	if err != nil {
		return nil, fmt.Errorf("cancel group: %w", err)
	}
	if !ok {
		// Lost the race with the worker (or another cancel). Re-read and
		// report what actually happened.
		g, err = s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if g.Status == domain.GroupCanceled {
			return g, nil
		}
		if !domain.CanTransition(g.Status, domain.GroupCanceled) {
			return nil, ErrInvalidTransition
		}
		if _, err := s.repo.CancelFrom(ctx, id, g.Status, now); err != nil {
			return nil, fmt.Errorf("cancel group: %w", err)
		}
	}

	g.Status = domain.GroupCanceled
	g.CanceledAt = &now
	s.recorder.Record(ctx, domain.EventGroupCanceled, &id, nil, nil)
	logger.Info("Group canceled", "group_id", id.String())
	return g, nil
}

// ListRecipients returns a group's recipients.
func (s *Service) ListRecipients(ctx context.Context, groupID uuid.UUID, f RecipientFilter) ([]domain.Recipient, int, error) {
	if _, err := s.repo.Get(ctx, groupID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListRecipients(ctx, groupID, f)
}

// RecordOpen registers a tracking pixel hit. The first-open timestamp is set
// exactly once, but an open event is appended on every call so repeat opens
// stay visible in analytics.
func (s *Service) RecordOpen(ctx context.Context, recipientID uuid.UUID) error {
	r, err := s.repo.GetRecipient(ctx, recipientID)
	if err != nil {
		return err
	}

	first, err := s.repo.MarkOpened(ctx, recipientID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record open: %w", err)
	}

	s.recorder.Record(ctx, domain.EventOpen, &r.GroupID, &recipientID, map[string]any{
		"first_open": first,
	})
	return nil
}
