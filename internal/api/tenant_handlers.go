package api

import (
	"net/http"

	"github.com/ignite/dispatch/internal/pkg/httputil"
)

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	ts, err := h.tenants.ListTenants(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"tenants": ts, "total": len(ts)})
}

func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	t, err := h.tenants.CreateTenant(r.Context(), req.Name)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, t)
}

func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	t, err := h.tenants.GetTenant(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, t)
}

func (h *Handlers) DisableTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	if err := h.tenants.Disable(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	if err := h.tenants.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) ListApps(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	apps, err := h.tenants.ListApps(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"apps": apps, "total": len(apps)})
}

func (h *Handlers) CreateApp(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	var req struct {
		Name     string `json:"name"`
		ClientID string `json:"client_id"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	app, err := h.tenants.CreateApp(r.Context(), id, req.Name, req.ClientID)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, app)
}
