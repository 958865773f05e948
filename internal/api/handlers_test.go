package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/group"
)

// stubGroupRepo backs the group service with just enough state for
// handler-level tests.
type stubGroupRepo struct {
	recipients map[uuid.UUID]*domain.Recipient
}

func newStubGroupRepo() *stubGroupRepo {
	return &stubGroupRepo{recipients: map[uuid.UUID]*domain.Recipient{}}
}

func (s *stubGroupRepo) Get(ctx context.Context, id uuid.UUID) (*domain.MessageGroup, error) {
	return nil, group.ErrNotFound
}

func (s *stubGroupRepo) List(ctx context.Context, tenantID uuid.UUID, f group.ListFilter) ([]domain.MessageGroup, int, error) {
	return nil, 0, nil
}

func (s *stubGroupRepo) Create(ctx context.Context, g *domain.MessageGroup) error { return nil }

func (s *stubGroupRepo) SetScheduled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return group.ErrNotFound
}

func (s *stubGroupRepo) CancelFrom(ctx context.Context, id uuid.UUID, from domain.GroupStatus, at time.Time) (bool, error) {
	return false, nil
}

func (s *stubGroupRepo) InsertRecipients(ctx context.Context, groupID uuid.UUID, rs []domain.Recipient, dedupe bool) (int, error) {
	return 0, nil
}

func (s *stubGroupRepo) ListRecipients(ctx context.Context, groupID uuid.UUID, f group.RecipientFilter) ([]domain.Recipient, int, error) {
	return nil, 0, nil
}

func (s *stubGroupRepo) GetRecipient(ctx context.Context, id uuid.UUID) (*domain.Recipient, error) {
	r, ok := s.recipients[id]
	if !ok {
		return nil, group.ErrRecipientNotFound
	}
	return r, nil
}

func (s *stubGroupRepo) MarkOpened(ctx context.Context, recipientID uuid.UUID, at time.Time) (bool, error) {
	r, ok := s.recipients[recipientID]
	if !ok {
		return false, group.ErrRecipientNotFound
	}
	if r.OpenedAt != nil {
		return false, nil
	}
	r.OpenedAt = &at
	return true, nil
}

func newTestRouter(repo *stubGroupRepo) http.Handler {
	groups := group.NewService(repo, nil, nil)
	h := NewHandlers(nil, nil, nil, groups, nil, nil, nil)
	return SetupRoutes(h)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newStubGroupRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTrackOpenRecordsFirstOpen(t *testing.T) {
	repo := newStubGroupRepo()
	id := uuid.New()
	gid := uuid.New()
	repo.recipients[id] = &domain.Recipient{ID: id, GroupID: gid, Status: domain.RecipientSent}

	router := newTestRouter(repo)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/t/p/"+id.String()+".png", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if repo.recipients[id].OpenedAt == nil {
		t.Error("expected opened_at to be set")
	}
}

func TestTrackOpenUnknownIDStillServesPixel(t *testing.T) {
	router := newTestRouter(newStubGroupRepo())

	for _, path := range []string{
		"/t/p/" + uuid.New().String() + ".png",
		"/t/p/not-a-uuid.png",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if len(rec.Body.Bytes()) == 0 {
			t.Errorf("%s: expected pixel body", path)
		}
	}
}

func TestInvalidUUIDParamIsBadRequest(t *testing.T) {
	router := newTestRouter(newStubGroupRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/groups/abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWorkerTickWithoutPipeline(t *testing.T) {
	router := newTestRouter(newStubGroupRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/worker/tick", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
