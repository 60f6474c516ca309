package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/bizdash/bizdash/internal/analytics/http"
	cataloghttp "github.com/bizdash/bizdash/internal/catalog/http"
	crmhttp "github.com/bizdash/bizdash/internal/crm/http"
	"github.com/bizdash/bizdash/internal/observability"
	payableshttp "github.com/bizdash/bizdash/internal/payables/http"
	"github.com/bizdash/bizdash/internal/platform/httpx"
	saleshttp "github.com/bizdash/bizdash/internal/sales/http"
	taxhttp "github.com/bizdash/bizdash/internal/tax/http"
	variancehttp "github.com/bizdash/bizdash/internal/variance/http"
	"github.com/bizdash/bizdash/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AnalyticsHandler *analytichttp.Handler
	SalesHandler     *saleshttp.Handler
	CatalogHandler   *cataloghttp.Handler
	VarianceHandler  *variancehttp.Handler
	TaxHandler       *taxhttp.Handler
	PayablesHandler  *payableshttp.Handler
	CRMHandler       *crmhttp.Handler
	JobHandler       *jobs.Handler
}

// NewRouterParams builds every API handler from the wired services.
func NewRouterParams(cfg *Config, logger *slog.Logger, services *Services, metrics *observability.Metrics, jobHandler *jobs.Handler) RouterParams {
	return RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		AnalyticsHandler: analytichttp.NewHandler(logger, services.Analytics),
		SalesHandler:     saleshttp.NewHandler(logger, services.Sales),
		CatalogHandler:   cataloghttp.NewHandler(logger, services.Catalog),
		VarianceHandler:  variancehttp.NewHandler(logger, services.Variance),
		TaxHandler:       taxhttp.NewHandler(logger, services.Tax, cfg.DeadlineReminderDays),
		PayablesHandler:  payableshttp.NewHandler(logger, services.Payables),
		CRMHandler:       crmhttp.NewHandler(logger, services.CRM),
		JobHandler:       jobHandler,
	}
}

// NewRouter constructs the chi.Router serving the JSON API under /api.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.AnalyticsHandler != nil {
			params.AnalyticsHandler.MountRoutes(r)
		}
		if params.SalesHandler != nil {
			params.SalesHandler.MountRoutes(r)
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.VarianceHandler != nil {
			params.VarianceHandler.MountRoutes(r)
		}
		if params.TaxHandler != nil {
			params.TaxHandler.MountRoutes(r)
		}
		if params.PayablesHandler != nil {
			params.PayablesHandler.MountRoutes(r)
		}
		if params.CRMHandler != nil {
			params.CRMHandler.MountRoutes(r)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	return r
}
