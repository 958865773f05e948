package api

import (
	"net/http"

	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/pkg/httputil"
	"github.com/ignite/dispatch/internal/service/sendconfig"
)

// Config responses always pass through sendconfig.Masked: raw credentials
// never leave the service boundary.

func (h *Handlers) ListConfigs(w http.ResponseWriter, r *http.Request) {
	cs, err := h.configs.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	masked := make([]domain.SendingConfig, 0, len(cs))
	for _, c := range cs {
		masked = append(masked, sendconfig.Masked(c))
	}
	httputil.OK(w, map[string]any{"configs": masked, "total": len(masked)})
}

func (h *Handlers) CreateConfig(w http.ResponseWriter, r *http.Request) {
	var in sendconfig.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.configs.Create(r.Context(), in)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, sendconfig.Masked(*c))
}

func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "configID")
	if !ok {
		return
	}
	c, err := h.configs.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, sendconfig.Masked(*c))
}

func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "configID")
	if !ok {
		return
	}
	var u sendconfig.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	c, err := h.configs.Update(r.Context(), id, u)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, sendconfig.Masked(*c))
}

func (h *Handlers) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "configID")
	if !ok {
		return
	}
	if err := h.configs.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) ActivateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "configID")
	if !ok {
		return
	}
	c, err := h.configs.Activate(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, sendconfig.Masked(*c))
}

// ResolveConfig answers "which config would a send from this app use".
// The app query parameter accepts an app UUID or client_id; empty falls
// straight to the active GLOBAL config. Credentials are masked.
func (h *Handlers) ResolveConfig(w http.ResponseWriter, r *http.Request) {
	rc, err := h.configs.Resolve(r.Context(), r.URL.Query().Get("app"))
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"provider":      rc.Provider,
		"from_address":  rc.FromAddress,
		"from_name":     rc.FromName,
		"resolved_from": rc.ResolvedFrom,
	})
}
