package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/dispatch/internal/pkg/logger"
)

// pixelPNG is a 1x1 transparent PNG. Served for every open-tracking hit so
// broken links never surface in a recipient's mail client.
var pixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0b, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x60, 0x00, 0x02, 0x00,
	0x00, 0x05, 0x00, 0x01, 0x7a, 0x5e, 0xab, 0x3f, 0x00, 0x00, 0x00, 0x00,
	0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// TrackOpen records an email open and serves the pixel. Always 200: a bad
// or unknown ID must not break image rendering, and the response must not
// leak whether a recipient exists.
func (h *Handlers) TrackOpen(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSuffix(chi.URLParam(r, "recipientID"), ".png")

	if id, err := uuid.Parse(raw); err == nil {
		if err := h.groups.RecordOpen(r.Context(), id); err != nil {
			logger.Debug("Open tracking miss", "recipient_id", raw, "error", err.Error())
		}
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(pixelPNG)
}
