package taxhttp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/analytics/export"
	"github.com/bizdash/bizdash/internal/platform/httpx"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/tax"
)

// TaxService is the reporting and deadline contract used by the handler.
type TaxService interface {
	Rate() decimal.Decimal
	Reports(ctx context.Context) (tax.ReportSet, error)
	Report(ctx context.Context, period string) (tax.MonthlyReport, error)
	ListDeadlines(ctx context.Context) ([]records.TaxDeadline, error)
	CreateDeadline(ctx context.Context, input tax.DeadlineInput) (records.TaxDeadline, error)
	CompleteDeadline(ctx context.Context, id string) error
	DueSoon(ctx context.Context, days int) (tax.Reminder, error)
}

// Handler wires tax endpoints.
type Handler struct {
	logger       *slog.Logger
	service      TaxService
	reminderDays int
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service TaxService, reminderDays int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, reminderDays: reminderDays}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/tax", func(r chi.Router) {
		r.Get("/reports", h.reports)
		r.Get("/reports/{file}", h.reportWorkbook)
		r.Get("/deadlines", h.listDeadlines)
		r.Post("/deadlines", h.createDeadline)
		r.Get("/deadlines/due", h.dueSoon)
		r.Post("/deadlines/{id}/complete", h.completeDeadline)
	})
}

func (h *Handler) reports(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.Reports(r.Context())
	if err != nil {
		h.fail(w, "tax reports", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rate":     h.service.Rate(),
		"reports":  set.Reports,
		"warnings": set.Warnings,
	})
}

func (h *Handler) reportWorkbook(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".xlsx")
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "only .xlsx reports are available")
		return
	}
	report, err := h.service.Report(r.Context(), key)
	if err != nil {
		h.fail(w, "tax report", err)
		return
	}
	for _, warning := range report.Warnings {
		h.logger.Warn("tax report built from partial data", slog.String("period", key), slog.String("warning", warning))
	}
	wb, err := export.BuildTaxReport(report, h.service.Rate())
	if err != nil {
		h.fail(w, "build tax workbook", err)
		return
	}
	defer wb.Close()
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		h.fail(w, "write tax workbook", err)
		return
	}
	httpx.Attachment(w, export.ContentTypeXLSX, "tax-report-"+key+".xlsx", buf.Bytes())
}

func (h *Handler) listDeadlines(w http.ResponseWriter, r *http.Request) {
	deadlines, err := h.service.ListDeadlines(r.Context())
	if err != nil {
		h.fail(w, "list deadlines", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deadlines": deadlines})
}

func (h *Handler) createDeadline(w http.ResponseWriter, r *http.Request) {
	var input tax.DeadlineInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	deadline, err := h.service.CreateDeadline(r.Context(), input)
	if err != nil {
		h.fail(w, "create deadline", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, deadline)
}

func (h *Handler) completeDeadline(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CompleteDeadline(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "complete deadline", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dueSoon(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.service.DueSoon(r.Context(), h.reminderDays)
	if err != nil {
		h.fail(w, "due deadlines", err)
		return
	}
	httpx.JSON(w, http.StatusOK, reminder)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, tax.ErrReportNotFound), errors.Is(err, tax.ErrDeadlineNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, tax.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
