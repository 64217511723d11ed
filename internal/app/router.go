package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dbuatti/danielebuatti-sub000/internal/bookings"
	"github.com/dbuatti/danielebuatti-sub000/internal/giftcards"
	"github.com/dbuatti/danielebuatti-sub000/internal/observability"
	"github.com/dbuatti/danielebuatti-sub000/internal/quotes"
	"github.com/dbuatti/danielebuatti-sub000/internal/templates"
	"github.com/dbuatti/danielebuatti-sub000/jobs"
	"github.com/dbuatti/danielebuatti-sub000/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	QuotesHandler    *quotes.Handler
	GiftCardsHandler *giftcards.Handler
	BookingsHandler  *bookings.Handler
	TemplatesHandler *templates.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with studio defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/static/*", http.FileServer(http.FS(web.Static)))

	// Client-facing quote document and decision routes, keyed by slug only.
	r.Route("/quotes", params.QuotesHandler.MountPublicRoutes)

	r.Route("/webhooks", params.GiftCardsHandler.MountWebhookRoutes)

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuth(params.Config, params.Logger))
		r.Route("/quotes", params.QuotesHandler.MountAdminRoutes)
		r.Route("/giftcards", params.GiftCardsHandler.MountAdminRoutes)
		r.Route("/bookings", params.BookingsHandler.MountRoutes)
		r.Route("/templates", params.TemplatesHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
