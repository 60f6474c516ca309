package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// ExportsPerMinute bounds export downloads per client.
const ExportsPerMinute = 10

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(ExportsPerMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/dashboard", h.handleDashboard)
	r.Get("/cashflow", h.handleCashflow)
	r.Get("/finance/kpis", h.handleKPIs)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/dashboard.csv", h.handleDashboardCSV)
		gr.Get("/export/cashflow.csv", h.handleCashflowCSV)
		gr.Get("/export/report.xlsx", h.handleReport)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
