package group_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/events"
	"github.com/ignite/dispatch/internal/service/group"
)

// memRepo is an in-memory group repository for unit testing.
type memRepo struct {
	mu         sync.Mutex
	groups     map[uuid.UUID]*domain.MessageGroup
	recipients map[uuid.UUID]*domain.Recipient
}

func newMemRepo() *memRepo {
	return &memRepo{
		groups:     make(map[uuid.UUID]*domain.MessageGroup),
		recipients: make(map[uuid.UUID]*domain.Recipient),
	}
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*domain.MessageGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, group.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, tenantID uuid.UUID, f group.ListFilter) ([]domain.MessageGroup, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MessageGroup
	for _, g := range m.groups {
		if g.TenantID != tenantID {
			continue
		}
		if f.Status != "" && string(g.Status) != f.Status {
			continue
		}
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, g *domain.MessageGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.groups[cp.ID] = &cp
	return nil
}

func (m *memRepo) SetScheduled(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return group.ErrNotFound
	}
	g.ScheduledAt = &at
	if g.Status == domain.GroupDraft {
		g.Status = domain.GroupScheduled
	}
	return nil
}

func (m *memRepo) CancelFrom(_ context.Context, id uuid.UUID, from domain.GroupStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return false, group.ErrNotFound
	}
	if g.Status != from {
		return false, nil
	}
	g.Status = domain.GroupCanceled
	g.CanceledAt = &at
	return true, nil
}

func (m *memRepo) InsertRecipients(_ context.Context, groupID uuid.UUID, rs []domain.Recipient, dedupe bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok {
		return 0, group.ErrNotFound
	}

	existing := make(map[string]bool)
	for _, r := range m.recipients {
		if r.GroupID == groupID {
			existing[r.Email] = true
		}
	}

	added := 0
	for _, r := range rs {
		if dedupe && existing[r.Email] {
			continue
		}
		cp := r
		m.recipients[cp.ID] = &cp
		existing[cp.Email] = true
		added++
	}
	g.TotalRecipients += added
	return added, nil
}

func (m *memRepo) ListRecipients(_ context.Context, groupID uuid.UUID, f group.RecipientFilter) ([]domain.Recipient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recipient
	for _, r := range m.recipients {
		if r.GroupID != groupID {
			continue
		}
		if f.Status != "" && string(r.Status) != f.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *memRepo) GetRecipient(_ context.Context, id uuid.UUID) (*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipients[id]
	if !ok {
		return nil, group.ErrRecipientNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) MarkOpened(_ context.Context, recipientID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipients[recipientID]
	if !ok {
		return false, group.ErrRecipientNotFound
	}
	if r.OpenedAt != nil {
		return false, nil
	}
	r.OpenedAt = &at
	return true, nil
}

// eventSink is an in-memory event store for asserting on the audit trail.
type eventSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (e *eventSink) Append(_ context.Context, ev *domain.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, *ev)
	return nil
}

func (e *eventSink) ListByGroup(_ context.Context, groupID uuid.UUID, _, _ int) ([]domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.Event
	for _, ev := range e.events {
		if ev.GroupID != nil && *ev.GroupID == groupID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (e *eventSink) ofType(t domain.EventType) []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.Event
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestService() (*group.Service, *memRepo, *eventSink) {
	repo := newMemRepo()
	sink := &eventSink{}
	svc := group.NewService(repo, nil, events.NewRecorder(sink, nil))
	return svc, repo, sink
}

func inlineInput(tenantID uuid.UUID) group.CreateInput {
	return group.CreateInput{
		TenantID: tenantID,
		Subject:  "Hello ${name}",
		BodyHTML: "<p>Hello ${name}</p>",
	}
}

func TestCreateDraft(t *testing.T) {
	svc, _, _ := newTestService()
	g, err := svc.Create(context.Background(), inlineInput(uuid.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Status != domain.GroupDraft {
		t.Fatalf("expected draft, got %s", g.Status)
	}
}

func TestCreateScheduled(t *testing.T) {
	svc, _, _ := newTestService()
	at := time.Now().Add(time.Hour)
	in := inlineInput(uuid.New())
	in.ScheduledAt = &at

	g, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Status != domain.GroupScheduled {
		t.Fatalf("expected scheduled, got %s", g.Status)
	}
}

func TestCreateNoContent(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), group.CreateInput{TenantID: uuid.New()})
	if !errors.Is(err, group.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestIngestDedupe(t *testing.T) {
	svc, _, _ := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))

	added, err := svc.IngestRecipients(context.Background(), g.ID, []group.RecipientInput{
		{Email: "a@b.com"}, {Email: "c@d.com"},
	}, true)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	// Second batch overlaps on a@b.com and repeats e@f.com within itself.
	added, err = svc.IngestRecipients(context.Background(), g.ID, []group.RecipientInput{
		{Email: "A@B.com"}, {Email: "e@f.com"}, {Email: "e@f.com"},
	}, true)
	if err != nil {
		t.Fatalf("ingest overlap: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 added, got %d", added)
	}

	got, _ := svc.Get(context.Background(), g.ID)
	if got.TotalRecipients != 3 {
		t.Fatalf("expected total 3, got %d", got.TotalRecipients)
	}
}

func TestIngestWithoutDedupe(t *testing.T) {
	svc, _, _ := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))

	added, err := svc.IngestRecipients(context.Background(), g.ID, []group.RecipientInput{
		{Email: "a@b.com"}, {Email: "a@b.com"},
	}, false)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 added without dedupe, got %d", added)
	}
}

func TestIngestRejectedAfterProcessing(t *testing.T) {
	svc, repo, _ := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))

	repo.mu.Lock()
	repo.groups[g.ID].Status = domain.GroupProcessing
	repo.mu.Unlock()

	_, err := svc.IngestRecipients(context.Background(), g.ID, []group.RecipientInput{{Email: "a@b.com"}}, true)
	if !errors.Is(err, group.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestSchedule(t *testing.T) {
	svc, _, _ := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))

	at := time.Now().Add(time.Hour)
	got, err := svc.Schedule(context.Background(), g.ID, at)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got.Status != domain.GroupScheduled {
		t.Fatalf("expected scheduled, got %s", got.Status)
	}

	// Rescheduling a scheduled group moves the time, nothing else.
	later := at.Add(time.Hour)
	if _, err := svc.Schedule(context.Background(), g.ID, later); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
}

func TestScheduleProcessingRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))

	repo.mu.Lock()
	repo.groups[g.ID].Status = domain.GroupProcessing
	repo.mu.Unlock()

	_, err := svc.Schedule(context.Background(), g.ID, time.Now())
	if !errors.Is(err, group.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	svc, _, sink := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))

	got, err := svc.Cancel(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != domain.GroupCanceled || got.CanceledAt == nil {
		t.Fatalf("expected canceled with timestamp, got %+v", got)
	}
	if len(sink.ofType(domain.EventGroupCanceled)) != 1 {
		t.Fatal("expected one group_canceled event")
	}

	// Idempotent: second cancel succeeds without a second event.
	if _, err := svc.Cancel(context.Background(), g.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if len(sink.ofType(domain.EventGroupCanceled)) != 1 {
		t.Fatal("second cancel must not emit another event")
	}
}

func TestCancelComplete(t *testing.T) {
	svc, repo, _ := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))

	repo.mu.Lock()
	repo.groups[g.ID].Status = domain.GroupComplete
	repo.mu.Unlock()

	_, err := svc.Cancel(context.Background(), g.ID)
	if !errors.Is(err, group.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRecordOpen(t *testing.T) {
	svc, repo, sink := newTestService()
	g, _ := svc.Create(context.Background(), inlineInput(uuid.New()))
	svc.IngestRecipients(context.Background(), g.ID, []group.RecipientInput{{Email: "a@b.com"}}, true)

	var recipientID uuid.UUID
	repo.mu.Lock()
	for id := range repo.recipients {
		recipientID = id
	}
	repo.mu.Unlock()

	if err := svc.RecordOpen(context.Background(), recipientID); err != nil {
		t.Fatalf("first open: %v", err)
	}
	r, _ := repo.GetRecipient(context.Background(), recipientID)
	if r.OpenedAt == nil {
		t.Fatal("expected opened_at set")
	}
	firstOpen := *r.OpenedAt

	// Second open: timestamp untouched, but another event appended.
	if err := svc.RecordOpen(context.Background(), recipientID); err != nil {
		t.Fatalf("second open: %v", err)
	}
	r, _ = repo.GetRecipient(context.Background(), recipientID)
	if !r.OpenedAt.Equal(firstOpen) {
		t.Fatal("opened_at must only be set once")
	}
	opens := sink.ofType(domain.EventOpen)
	if len(opens) != 2 {
		t.Fatalf("expected 2 open events, got %d", len(opens))
	}
	if opens[0].Metadata["first_open"] != true || opens[1].Metadata["first_open"] != false {
		t.Fatalf("unexpected first_open metadata: %v / %v", opens[0].Metadata, opens[1].Metadata)
	}
}

func TestRecordOpenUnknownRecipient(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.RecordOpen(context.Background(), uuid.New())
	if !errors.Is(err, group.ErrRecipientNotFound) {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
}
