package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/dispatch/internal/pkg/httputil"
	"github.com/ignite/dispatch/internal/service/group"
)

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	f := group.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	gs, total, err := h.groups.List(r.Context(), tenantID, f)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"groups": gs, "total": total})
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var in group.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	if in.TenantID == uuid.Nil {
		httputil.BadRequest(w, "tenant_id is required")
		return
	}
	g, err := h.groups.Create(r.Context(), in)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, g)
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "groupID")
	if !ok {
		return
	}
	g, err := h.groups.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, g)
}

func (h *Handlers) IngestRecipients(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "groupID")
	if !ok {
		return
	}
	var req struct {
		Recipients []group.RecipientInput `json:"recipients"`
		Dedupe     *bool                  `json:"dedupe"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Recipients) == 0 {
		httputil.BadRequest(w, "recipients is required")
		return
	}
	dedupe := true
	if req.Dedupe != nil {
		dedupe = *req.Dedupe
	}
	added, err := h.groups.IngestRecipients(r.Context(), id, req.Recipients, dedupe)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"received": len(req.Recipients),
		"added":    added,
		"skipped":  len(req.Recipients) - added,
	})
}

func (h *Handlers) ListRecipients(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "groupID")
	if !ok {
		return
	}
	f := group.RecipientFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "offset", 0),
	}
	rs, total, err := h.groups.ListRecipients(r.Context(), id, f)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"recipients": rs, "total": total})
}

func (h *Handlers) ScheduleGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "groupID")
	if !ok {
		return
	}
	var req struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	at := req.ScheduledAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	g, err := h.groups.Schedule(r.Context(), id, at)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, g)
}

func (h *Handlers) CancelGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "groupID")
	if !ok {
		return
	}
	g, err := h.groups.Cancel(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, g)
}

func (h *Handlers) ListGroupEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "groupID")
	if !ok {
		return
	}
	evs, err := h.events.ListByGroup(r.Context(), id,
		queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"events": evs, "total": len(evs)})
}
