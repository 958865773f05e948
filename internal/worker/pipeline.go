package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/config"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/events"
	"github.com/ignite/dispatch/internal/pkg/logger"
	"github.com/ignite/dispatch/internal/sender"
	"github.com/ignite/dispatch/internal/service/template"
)

// Resolver yields the sending configuration for a group's app reference.
type Resolver interface {
	Resolve(ctx context.Context, appRef string) (*domain.ResolvedConfig, error)
}

// SuppressionChecker answers whether an address is blocked for a tenant.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}

// TemplateFinder loads templates referenced by groups.
type TemplateFinder interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Template, error)
}

// Pipeline executes worker ticks. Construct once and share; Tick may be
// called concurrently (overlapping timers, multiple instances) because every
// group is protected by its own optimistic claim.
type Pipeline struct {
	store        Store
	resolver     Resolver
	senders      sender.Factory
	suppression  SuppressionChecker
	templates    TemplateFinder
	recorder     *events.Recorder
	limiter      *RateLimiter
	batch        config.BatchConfig
	limitGroups  int
	trackingBase string
}

// NewPipeline wires a pipeline. limiter and recorder may be nil.
func NewPipeline(
	store Store,
	resolver Resolver,
	senders sender.Factory,
	suppression SuppressionChecker,
	templates TemplateFinder,
	recorder *events.Recorder,
	limiter *RateLimiter,
	batch config.BatchConfig,
	limitGroups int,
) *Pipeline {
	if batch.BatchSize <= 0 {
		batch.BatchSize = 10
	}
	if limitGroups <= 0 {
		limitGroups = 50
	}
	return &Pipeline{
		store:       store,
		resolver:    resolver,
		senders:     senders,
		suppression: suppression,
		templates:   templates,
		recorder:    recorder,
		limiter:     limiter,
		batch:       batch,
		limitGroups: limitGroups,
	}
}

// SetTrackingBase enables open-tracking pixel injection. Rendered HTML gets
// an image tag pointing at base + "/t/p/{recipientID}.png".
func (p *Pipeline) SetTrackingBase(base string) {
	p.trackingBase = strings.TrimRight(base, "/")
}

// Tick runs one pass over due groups and returns how many were claimed and
// processed. Per-recipient failures are contained; only infrastructure
// faults (store unavailable) abort the tick.
func (p *Pipeline) Tick(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	groups, err := p.store.DueGroups(ctx, now, p.limitGroups)
	if err != nil {
		return 0, fmt.Errorf("select due groups: %w", err)
	}

	processed := 0
	for i := range groups {
		g := &groups[i]

		claimed, err := p.store.ClaimGroup(ctx, g.ID, g.LockVersion, time.Now().UTC())
		if err != nil {
			return processed, fmt.Errorf("claim group %s: %w", g.ID, err)
		}
		if !claimed {
			logger.Debug("Group claimed elsewhere, skipping", "group_id", g.ID.String())
			continue
		}
		processed++

		if err := p.processGroup(ctx, g); err != nil {
			return processed, fmt.Errorf("process group %s: %w", g.ID, err)
		}
	}
	return processed, nil
}

func (p *Pipeline) processGroup(ctx context.Context, g *domain.MessageGroup) error {
	if err := p.renderPhase(ctx, g); err != nil {
		return err
	}
	if err := p.sendPhase(ctx, g); err != nil {
		return err
	}

	remaining, err := p.store.CountActive(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("count active recipients: %w", err)
	}
	if remaining > 0 {
		// Recipients still pending (template unavailable) or deferred by a
		// rate ceiling need a later tick. The group goes back to scheduled
		// so it is picked up again; a concurrent cancel wins the race.
		requeued, err := p.store.RequeueGroup(ctx, g.ID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("requeue group: %w", err)
		}
		if requeued {
			logger.Info("Group requeued with recipients outstanding",
				"group_id", g.ID.String(),
				"remaining", remaining)
		}
		return nil
	}

	done, err := p.store.CompleteGroup(ctx, g.ID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete group: %w", err)
	}
	if done {
		p.recorder.Record(ctx, domain.EventGroupComplete, &g.ID, nil, nil)
		logger.Info("Group complete", "group_id", g.ID.String())
	}
	return nil
}

// renderPhase drains the group's pending recipients page by page. When the
// group's template cannot be loaded everyone stays pending and the group is
// requeued at the end of the tick.
func (p *Pipeline) renderPhase(ctx context.Context, g *domain.MessageGroup) error {
	var tpl *domain.Template
	if g.TemplateID != nil {
		var err error
		tpl, err = p.templates.Get(ctx, *g.TemplateID)
		if err != nil {
			logger.Warn("Template lookup failed, recipients stay pending",
				"group_id", g.ID.String(),
				"template_id", g.TemplateID.String(),
				"error", err.Error())
			return nil
		}
	}

	cursor := uuid.Nil
	for {
		page, err := p.store.RecipientsPage(ctx, g.ID, domain.RecipientPending, cursor, p.batch.BatchSize)
		if err != nil {
			return fmt.Errorf("page pending recipients: %w", err)
		}
		if len(page) == 0 {
			return nil
		}
		cursor = page[len(page)-1].ID

		for i := range page {
			r := &page[i]

			subject, html, text := g.Subject, g.BodyHTML, g.BodyText
			if tpl != nil {
				// Group overrides take precedence over template content.
				if subject == "" {
					subject = tpl.Subject
				}
				if html == "" {
					html = tpl.BodyHTML
				}
				if text == "" {
					text = tpl.BodyText
				}
			}

			rendered := template.Render(subject, html, text, r.Context)
			r.RenderedSubject = rendered.Subject
			r.RenderedHTML = p.withTrackingPixel(rendered.HTML, r.ID)
			r.RenderedText = rendered.Text
			if err := p.store.MarkRendered(ctx, r); err != nil {
				return fmt.Errorf("mark rendered: %w", err)
			}
		}
	}
}

// sendPhase drains the group's rendered recipients page by page, pausing
// between pages per the inter-batch delay. Recipients held back by a rate
// ceiling stay rendered so a later tick can resume them.
func (p *Pipeline) sendPhase(ctx context.Context, g *domain.MessageGroup) error {
	appRef := ""
	if g.AppID != nil {
		appRef = g.AppID.String()
	}

	cursor := uuid.Nil
	firstPage := true
	for {
		if !firstPage && p.batch.InterBatchDelay() > 0 {
			select {
			case <-time.After(p.batch.InterBatchDelay()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		firstPage = false

		page, err := p.store.RecipientsPage(ctx, g.ID, domain.RecipientRendered, cursor, p.batch.BatchSize)
		if err != nil {
			return fmt.Errorf("page rendered recipients: %w", err)
		}
		if len(page) == 0 {
			return nil
		}
		cursor = page[len(page)-1].ID

		for i := range page {
			if err := p.sendRecipient(ctx, g, &page[i], appRef); err != nil {
				return err
			}
		}
	}
}

// sendRecipient drives one recipient to a terminal state: skipped when
// suppressed, sent on delivery, failed after exhausted or permanent errors.
// Rate-limited recipients are left rendered and consume nothing.
func (p *Pipeline) sendRecipient(ctx context.Context, g *domain.MessageGroup, r *domain.Recipient, appRef string) error {
	suppressed, err := p.suppression.IsSuppressed(ctx, g.TenantID, r.Email)
	if err != nil {
		return fmt.Errorf("suppression check: %w", err)
	}
	if suppressed {
		if err := p.store.MarkSkipped(ctx, r.ID, "suppressed"); err != nil {
			return fmt.Errorf("mark skipped: %w", err)
		}
		logger.Info("Recipient suppressed",
			"group_id", g.ID.String(),
			"recipient", r.Email)
		return nil
	}

	if allowed, err := p.limiter.Allow(ctx, 1); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	} else if !allowed {
		logger.Warn("Send ceiling reached, recipient deferred",
			"group_id", g.ID.String(),
			"recipient_id", r.ID.String())
		return nil
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		sendErr := p.attemptSend(ctx, r, appRef)
		now := time.Now().UTC()

		if sendErr == nil {
			if err := p.store.InsertMessage(ctx, &domain.Message{
				ID:           uuid.New(),
				RecipientID:  r.ID,
				GroupID:      g.ID,
				AttemptCount: attempt,
				SentAt:       &now,
				CreatedAt:    now,
			}); err != nil {
				return fmt.Errorf("insert message: %w", err)
			}
			if err := p.store.MarkSent(ctx, r.ID, g.ID, attempt-1); err != nil {
				return fmt.Errorf("mark sent: %w", err)
			}
			p.recorder.Record(ctx, domain.EventSent, &g.ID, &r.ID, map[string]any{
				"attempt": attempt,
			})
			return nil
		}

		if err := p.store.InsertMessage(ctx, &domain.Message{
			ID:           uuid.New(),
			RecipientID:  r.ID,
			GroupID:      g.ID,
			AttemptCount: attempt,
			LastError:    sendErr.Error(),
			CreatedAt:    now,
		}); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		if Retryable(sendErr) && attempt < MaxAttempts {
			logger.Warn("Transient send failure, retrying",
				"recipient_id", r.ID.String(),
				"attempt", attempt,
				"error", sendErr.Error())
			continue
		}

		if err := p.store.MarkFailed(ctx, r.ID, g.ID, sendErr.Error(), attempt); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		p.recorder.Record(ctx, domain.EventFailed, &g.ID, &r.ID, map[string]any{
			"error":    sendErr.Error(),
			"attempts": attempt,
		})
		logger.Error("Recipient failed",
			"group_id", g.ID.String(),
			"recipient_id", r.ID.String(),
			"attempts", attempt,
			"error", sendErr.Error())
		return nil
	}
	return nil
}

// attemptSend resolves credentials and performs one delivery. Resolution
// happens per attempt so config changes apply mid-group.
func (p *Pipeline) attemptSend(ctx context.Context, r *domain.Recipient, appRef string) error {
	cfg, err := p.resolver.Resolve(ctx, appRef)
	if err != nil {
		return err
	}
	s, err := p.senders.ForConfig(cfg)
	if err != nil {
		return err
	}
	return s.Send(ctx, &sender.Email{
		To:          r.Email,
		ToName:      r.Name,
		FromAddress: cfg.FromAddress,
		FromName:    cfg.FromName,
		Subject:     r.RenderedSubject,
		HTML:        r.RenderedHTML,
		Text:        r.RenderedText,
		GroupID:     r.GroupID.String(),
		RecipientID: r.ID.String(),
	})
}

func (p *Pipeline) withTrackingPixel(html string, recipientID uuid.UUID) string {
	if p.trackingBase == "" || html == "" {
		return html
	}
	pixel := fmt.Sprintf(`<img src="%s/t/p/%s.png" width="1" height="1" alt="" style="display:none">`,
		p.trackingBase, recipientID)
	if idx := strings.LastIndex(strings.ToLower(html), "</body>"); idx >= 0 {
		return html[:idx] + pixel + html[idx:]
	}
	return html + pixel
}
