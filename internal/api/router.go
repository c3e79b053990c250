package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicflow/scheduler/internal/calendly"
	httpmiddleware "github.com/clinicflow/scheduler/internal/http/middleware"
	"github.com/clinicflow/scheduler/pkg/logging"
)

// RouterConfig holds the handlers the router wires up. Webhook, metrics, and
// logger are optional.
type RouterConfig struct {
	Handler        *Handler
	Webhook        *calendly.WebhookHandler
	MetricsHandler http.Handler
	Logger         *logging.Logger
}

// NewRouter creates the chi router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.Handler.Health)
	r.Post("/intake/parse", cfg.Handler.ParseIntake)
	r.Post("/appointments", cfg.Handler.CreateAppointment)

	if cfg.Webhook != nil {
		r.Route("/webhooks/calendly", func(r chi.Router) {
			r.Get("/", cfg.Webhook.Status)
			r.Post("/", cfg.Webhook.Receive)
		})
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
