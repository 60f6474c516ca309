package saleshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdash/bizdash/internal/platform/httpx"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/sales"
)

// SalesService is the invoicing contract used by the handler.
type SalesService interface {
	ListSales(ctx context.Context, filter sales.Filter) ([]sales.Detail, error)
	GetSale(ctx context.Context, id string) (sales.Detail, error)
	CreateSale(ctx context.Context, input sales.SaleInput) (sales.Detail, error)
	SetStatus(ctx context.Context, id string, status records.SaleStatus) error
}

// Handler wires sale endpoints.
type Handler struct {
	logger  *slog.Logger
	service SalesService
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service SalesService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}/status", h.setStatus)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.ListSales(r.Context(), sales.Filter{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Status: records.SaleStatus(q.Get("status")),
	})
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sale, err := h.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input sales.SaleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.CreateSale(r.Context(), input)
	if err != nil {
		h.fail(w, "create sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

type statusRequest struct {
	Status records.SaleStatus `json:"status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		h.fail(w, "set sale status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, sales.ErrSaleNotFound),
		errors.Is(err, sales.ErrProductNotFound),
		errors.Is(err, sales.ErrCustomerNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, sales.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
