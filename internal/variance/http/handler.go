package variancehttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/analytics/export"
	"github.com/bizdash/bizdash/internal/platform/httpx"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/variance"
)

// PlanningService is the budget and comparison contract used by the handler.
type PlanningService interface {
	ListBudgets(ctx context.Context) ([]records.Budget, error)
	CreateBudget(ctx context.Context, input variance.BudgetInput) (records.Budget, error)
	UpdateBudget(ctx context.Context, id string, input variance.BudgetInput) error
	DeleteBudget(ctx context.Context, id string) error
	Compare(ctx context.Context, filter variance.ComparisonFilter) (variance.Report, error)
}

// Handler wires planning endpoints.
type Handler struct {
	logger  *slog.Logger
	service PlanningService
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service PlanningService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/planning", func(r chi.Router) {
		r.Get("/budgets", h.listBudgets)
		r.Post("/budgets", h.createBudget)
		r.Put("/budgets/{id}", h.updateBudget)
		r.Delete("/budgets/{id}", h.deleteBudget)
		r.Get("/comparison", h.comparison)
		r.Get("/comparison.csv", h.comparisonCSV)
	})
}

func (h *Handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.service.ListBudgets(r.Context())
	if err != nil {
		h.fail(w, "list budgets", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

func (h *Handler) createBudget(w http.ResponseWriter, r *http.Request) {
	var input variance.BudgetInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	budget, err := h.service.CreateBudget(r.Context(), input)
	if err != nil {
		h.fail(w, "create budget", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, budget)
}

func (h *Handler) updateBudget(w http.ResponseWriter, r *http.Request) {
	var input variance.BudgetInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.UpdateBudget(r.Context(), chi.URLParam(r, "id"), input); err != nil {
		h.fail(w, "update budget", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBudget(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete budget", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) comparison(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Compare(r.Context(), filterFromQuery(r))
	if err != nil {
		h.fail(w, "compare plan", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) comparisonCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Compare(r.Context(), filterFromQuery(r))
	if err != nil {
		h.fail(w, "compare plan", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="plan-vs-actual.csv"`)
	if err := export.WriteComparisonCSV(w, report.Comparisons); err != nil {
		h.logger.Error("write comparison csv", slog.Any("error", err))
	}
}

func filterFromQuery(r *http.Request) variance.ComparisonFilter {
	q := r.URL.Query()
	return variance.ComparisonFilter{From: q.Get("from"), To: q.Get("to")}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, variance.ErrBudgetNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, variance.ErrBudgetExists):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, variance.ErrInvalidInput), errors.Is(err, analytics.ErrInvalidRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
