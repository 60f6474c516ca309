package cataloghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bizdash/bizdash/internal/catalog"
	"github.com/bizdash/bizdash/internal/platform/httpx"
	"github.com/bizdash/bizdash/internal/records"
)

// CatalogService is the product, customer and expense contract used by the handler.
type CatalogService interface {
	ListProducts(ctx context.Context, criticalOnly bool) ([]records.Product, error)
	CreateProduct(ctx context.Context, input catalog.ProductInput) (records.Product, error)
	UpdateProduct(ctx context.Context, id string, input catalog.ProductInput) error
	DeleteProduct(ctx context.Context, id string) error

	ListCustomers(ctx context.Context, status records.CustomerStatus) ([]records.Customer, error)
	CreateCustomer(ctx context.Context, input catalog.CustomerInput) (records.Customer, error)
	UpdateCustomer(ctx context.Context, id string, input catalog.CustomerInput) error
	DeleteCustomer(ctx context.Context, id string) error

	ListExpenses(ctx context.Context, filter catalog.ExpenseFilter) ([]records.Expense, error)
	CreateExpense(ctx context.Context, input catalog.ExpenseInput) (records.Expense, error)
	UpdateExpense(ctx context.Context, id string, input catalog.ExpenseInput) error
	DeleteExpense(ctx context.Context, id string) error
}

// Handler wires catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service CatalogService
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service CatalogService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.listExpenses)
		r.Post("/", h.createExpense)
		r.Put("/{id}", h.updateExpense)
		r.Delete("/{id}", h.deleteExpense)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	critical := false
	if raw := r.URL.Query().Get("critical"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "critical must be a boolean")
			return
		}
		critical = v
	}
	products, err := h.service.ListProducts(r.Context(), critical)
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.noContent(w, "update product", h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, "delete product", h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context(), records.CustomerStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, "list customers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var input catalog.CustomerInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), input)
	if err != nil {
		h.fail(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var input catalog.CustomerInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.noContent(w, "update customer", h.service.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), input))
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, "delete customer", h.service.DeleteCustomer(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expenses, err := h.service.ListExpenses(r.Context(), catalog.ExpenseFilter{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Category: q.Get("category"),
	})
	if err != nil {
		h.fail(w, "list expenses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var input catalog.ExpenseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	expense, err := h.service.CreateExpense(r.Context(), input)
	if err != nil {
		h.fail(w, "create expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var input catalog.ExpenseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.noContent(w, "update expense", h.service.UpdateExpense(r.Context(), chi.URLParam(r, "id"), input))
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, "delete expense", h.service.DeleteExpense(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) noContent(w http.ResponseWriter, op string, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, catalog.ErrInUse):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, catalog.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
