package api

import (
	"net/http"

	"github.com/ignite/dispatch/internal/pkg/httputil"
	"github.com/ignite/dispatch/internal/service/template"
)

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlUUID(w, r, "tenantID")
	if !ok {
		return
	}
	ts, err := h.templates.List(r.Context(), tenantID)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"templates": ts, "total": len(ts)})
}

func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in template.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	t, err := h.templates.Create(r.Context(), in)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, t)
}

func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "templateID")
	if !ok {
		return
	}
	t, err := h.templates.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, t)
}

// RenderTemplate previews a template against a sample context without
// touching any group.
func (h *Handlers) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "templateID")
	if !ok {
		return
	}
	var req struct {
		Context map[string]any `json:"context"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	t, err := h.templates.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, template.Render(t.Subject, t.BodyHTML, t.BodyText, req.Context))
}

func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "templateID")
	if !ok {
		return
	}
	var u template.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	t, err := h.templates.Update(r.Context(), id, u)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, t)
}

func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "templateID")
	if !ok {
		return
	}
	if err := h.templates.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	httputil.NoContent(w)
}
