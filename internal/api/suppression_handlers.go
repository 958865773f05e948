package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/dispatch/internal/pkg/httputil"
	"github.com/ignite/dispatch/internal/service/suppression"
)

func (h *Handlers) ListSuppressions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	f := suppression.ListFilter{
		Reason: r.URL.Query().Get("reason"),
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	entries, total, err := h.suppressions.List(r.Context(), tenantID, f)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"suppressions": entries, "total": total})
}

func (h *Handlers) Suppress(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	var req struct {
		Email  string `json:"email"`
		Reason string `json:"reason"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.BadRequest(w, "email is required")
		return
	}
	if err := h.suppressions.Suppress(r.Context(), tenantID, req.Email, req.Reason); err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, map[string]any{"email": suppression.Normalize(req.Email)})
}

func (h *Handlers) Unsuppress(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	email := chi.URLParam(r, "email")
	if err := h.suppressions.Remove(r.Context(), tenantID, email); err != nil {
		serviceError(w, err)
		return
	}
	httputil.NoContent(w)
}
