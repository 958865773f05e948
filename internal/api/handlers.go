package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/dispatch/internal/events"
	"github.com/ignite/dispatch/internal/pkg/httputil"
	"github.com/ignite/dispatch/internal/service/group"
	"github.com/ignite/dispatch/internal/service/sendconfig"
	"github.com/ignite/dispatch/internal/service/suppression"
	"github.com/ignite/dispatch/internal/service/template"
	"github.com/ignite/dispatch/internal/service/tenant"
	"github.com/ignite/dispatch/internal/worker"
)

// Handlers bundles the service layer for the HTTP routes.
type Handlers struct {
	tenants      *tenant.Service
	configs      *sendconfig.Service
	templates    *template.Service
	groups       *group.Service
	suppressions *suppression.Service
	events       events.Store
	pipeline     *worker.Pipeline // nil when this process runs API-only
}

// NewHandlers wires the services into a handler set. pipeline may be nil;
// the manual tick endpoint then responds 503.
func NewHandlers(
	tenants *tenant.Service,
	configs *sendconfig.Service,
	templates *template.Service,
	groups *group.Service,
	suppressions *suppression.Service,
	eventStore events.Store,
	pipeline *worker.Pipeline,
) *Handlers {
	return &Handlers{
		tenants:      tenants,
		configs:      configs,
		templates:    templates,
		groups:       groups,
		suppressions: suppressions,
		events:       eventStore,
		pipeline:     pipeline,
	}
}

// urlUUID parses a chi URL parameter as a UUID, writing a 400 on failure.
func urlUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// serviceError translates service-layer sentinel errors into HTTP statuses.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrNotFound),
		errors.Is(err, tenant.ErrAppNotFound),
		errors.Is(err, sendconfig.ErrNotFound),
		errors.Is(err, sendconfig.ErrNoConfiguration),
		errors.Is(err, template.ErrNotFound),
		errors.Is(err, group.ErrNotFound),
		errors.Is(err, group.ErrRecipientNotFound),
		errors.Is(err, suppression.ErrNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tenant.ErrClientIDTaken),
		errors.Is(err, sendconfig.ErrScopeTaken):
		httputil.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, group.ErrInvalidTransition),
		errors.Is(err, group.ErrNotEditable),
		errors.Is(err, tenant.ErrTenantInactive),
		errors.Is(err, sendconfig.ErrNotGlobal),
		errors.Is(err, sendconfig.ErrGlobalActive):
		httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, group.ErrNoContent),
		errors.Is(err, sendconfig.ErrUnknownProvider):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
