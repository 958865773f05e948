package api

import (
	"net/http"

	"github.com/ignite/dispatch/internal/pkg/httputil"
)

// WorkerTick runs one pipeline pass on demand. Useful for operations and
// integration testing; the scheduled runner does the same thing on a timer.
func (h *Handlers) WorkerTick(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "worker not attached to this process")
		return
	}
	n, err := h.pipeline.Tick(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"groups_claimed": n})
}
