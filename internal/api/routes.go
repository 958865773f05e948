package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the full route tree.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	// Open-tracking pixel. Outside /api: embedded in recipient mail clients.
	r.Get("/t/p/{recipientID}", h.TrackOpen)

	r.Route("/api", func(r chi.Router) {
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{tenantID}", h.GetTenant)
			r.Post("/{tenantID}/disable", h.DisableTenant)
			r.Delete("/{tenantID}", h.DeleteTenant)

			r.Get("/{tenantID}/apps", h.ListApps)
			r.Post("/{tenantID}/apps", h.CreateApp)

			r.Get("/{tenantID}/templates", h.ListTemplates)
			r.Get("/{tenantID}/groups", h.ListGroups)

			r.Route("/{tenantID}/suppressions", func(r chi.Router) {
				r.Get("/", h.ListSuppressions)
				r.Post("/", h.Suppress)
				r.Delete("/{email}", h.Unsuppress)
			})
		})

		r.Route("/sending-configs", func(r chi.Router) {
			r.Get("/", h.ListConfigs)
			r.Post("/", h.CreateConfig)
			r.Get("/resolve", h.ResolveConfig)
			r.Get("/{configID}", h.GetConfig)
			r.Put("/{configID}", h.UpdateConfig)
			r.Delete("/{configID}", h.DeleteConfig)
			r.Post("/{configID}/activate", h.ActivateConfig)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", h.CreateTemplate)
			r.Get("/{templateID}", h.GetTemplate)
			r.Post("/{templateID}/render", h.RenderTemplate)
			r.Put("/{templateID}", h.UpdateTemplate)
			r.Delete("/{templateID}", h.DeleteTemplate)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", h.CreateGroup)
			r.Get("/{groupID}", h.GetGroup)
			r.Post("/{groupID}/recipients", h.IngestRecipients)
			r.Get("/{groupID}/recipients", h.ListRecipients)
			r.Post("/{groupID}/schedule", h.ScheduleGroup)
			r.Post("/{groupID}/cancel", h.CancelGroup)
			r.Get("/{groupID}/events", h.ListGroupEvents)
		})

		r.Post("/worker/tick", h.WorkerTick)
	})

	return r
}
