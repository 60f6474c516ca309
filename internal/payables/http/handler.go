package payableshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdash/bizdash/internal/payables"
	"github.com/bizdash/bizdash/internal/platform/httpx"
	"github.com/bizdash/bizdash/internal/records"
)

// PayablesService is the supplier bookkeeping contract used by the handler.
type PayablesService interface {
	ListSuppliers(ctx context.Context) ([]records.Supplier, error)
	CreateSupplier(ctx context.Context, input payables.SupplierInput) (records.Supplier, error)
	UpdateSupplier(ctx context.Context, id string, input payables.SupplierInput) error
	DeleteSupplier(ctx context.Context, id string) error
	Balances(ctx context.Context) (payables.BalanceSheet, error)
	Purchases(ctx context.Context, supplierID string) ([]records.SupplierPurchase, error)
	RecordPurchase(ctx context.Context, input payables.PurchaseInput) (records.SupplierPurchase, error)
	SetPurchaseStatus(ctx context.Context, id string, status records.PurchaseStatus) error
	Payments(ctx context.Context, supplierID string) ([]records.SupplierPayment, error)
	RecordPayment(ctx context.Context, input payables.PaymentInput) (records.SupplierPayment, error)
}

// Handler wires supplier endpoints.
type Handler struct {
	logger  *slog.Logger
	service PayablesService
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service PayablesService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/payables", func(r chi.Router) {
		r.Get("/suppliers", h.listSuppliers)
		r.Post("/suppliers", h.createSupplier)
		r.Put("/suppliers/{id}", h.updateSupplier)
		r.Delete("/suppliers/{id}", h.deleteSupplier)
		r.Get("/balances", h.balances)
		r.Get("/purchases", h.listPurchases)
		r.Post("/purchases", h.recordPurchase)
		r.Put("/purchases/{id}/status", h.setStatus)
		r.Get("/payments", h.listPayments)
		r.Post("/payments", h.recordPayment)
	})
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.fail(w, "list suppliers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var input payables.SupplierInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), input)
	if err != nil {
		h.fail(w, "create supplier", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	var input payables.SupplierInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.UpdateSupplier(r.Context(), chi.URLParam(r, "id"), input); err != nil {
		h.fail(w, "update supplier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSupplier(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete supplier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.Balances(r.Context())
	if err != nil {
		h.fail(w, "supplier balances", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.service.Purchases(r.Context(), r.URL.Query().Get("supplier_id"))
	if err != nil {
		h.fail(w, "list purchases", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var input payables.PurchaseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	purchase, err := h.service.RecordPurchase(r.Context(), input)
	if err != nil {
		h.fail(w, "record purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

type statusRequest struct {
	Status records.PurchaseStatus `json:"status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetPurchaseStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		h.fail(w, "set purchase status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.Payments(r.Context(), r.URL.Query().Get("supplier_id"))
	if err != nil {
		h.fail(w, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var input payables.PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		h.fail(w, "record payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, payables.ErrSupplierNotFound), errors.Is(err, payables.ErrPurchaseNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, payables.ErrSupplierInUse):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, payables.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
