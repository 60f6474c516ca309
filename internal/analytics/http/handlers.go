package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/analytics/export"
	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/platform/httpx"
)

const requestTimeout = 10 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	GetDashboard(ctx context.Context) (analytics.Dashboard, error)
	GetCashflow(ctx context.Context, filter analytics.TrendFilter) (analytics.Cashflow, error)
	GetFinancialKPIs(ctx context.Context) (analytics.FinancialKPIs, error)
	LoadSnapshot(ctx context.Context) (analytics.Snapshot, error)
}

// Handler coordinates HTTP requests for the dashboard and its exports.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	bufPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{logger: logger, service: service, now: time.Now}
	h.bufPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dashboard, err := h.service.GetDashboard(ctx)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) handleDashboardCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dashboard, err := h.service.GetDashboard(ctx)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	h.writeCSV(w, "dashboard-"+dashboard.Period+".csv", func(buf *bytes.Buffer) error {
		return export.WriteDashboardCSV(buf, dashboard)
	})
}

func (h *Handler) handleCashflow(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTrendFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cashflow, err := h.service.GetCashflow(ctx, filter)
	if err != nil {
		h.handleCashflowError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cashflow)
}

func (h *Handler) handleCashflowCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTrendFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cashflow, err := h.service.GetCashflow(ctx, filter)
	if err != nil {
		h.handleCashflowError(w, err)
		return
	}
	name := fmt.Sprintf("cashflow-%s-%s.csv", cashflow.From, cashflow.To)
	h.writeCSV(w, name, func(buf *bytes.Buffer) error {
		return export.WriteCashflowCSV(buf, cashflow.Periods)
	})
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	kpis, err := h.service.GetFinancialKPIs(ctx)
	if err != nil {
		h.handleServerError(w, "load financial kpis", err)
		return
	}
	httpx.JSON(w, http.StatusOK, kpis)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.service.LoadSnapshot(ctx)
	if err != nil {
		h.handleServerError(w, "load snapshot", err)
		return
	}
	for _, warning := range snap.Warnings {
		h.logger.Warn("business report built from partial data", slog.String("warning", warning))
	}
	now := h.now().UTC()
	wb, err := export.BuildBusinessReport(export.NewReportData(snap, h.logger), now)
	if err != nil {
		h.handleServerError(w, "build report", err)
		return
	}
	defer wb.Close()

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()
	if err := wb.Write(buf); err != nil {
		h.handleServerError(w, "write report", err)
		return
	}
	httpx.Attachment(w, export.ContentTypeXLSX, "business-report-"+now.Format(time.DateOnly)+".xlsx", buf.Bytes())
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()
	if err := write(buf); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	httpx.Attachment(w, "text/csv", filename, buf.Bytes())
}

func parseTrendFilter(r *http.Request) (analytics.TrendFilter, error) {
	q := r.URL.Query()
	g, err := period.ParseGranularity(q.Get("granularity"))
	if err != nil {
		return analytics.TrendFilter{}, err
	}
	return analytics.TrendFilter{From: q.Get("from"), To: q.Get("to"), Granularity: g}, nil
}

func (h *Handler) handleCashflowError(w http.ResponseWriter, err error) {
	if errors.Is(err, analytics.ErrInvalidRange) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.handleServerError(w, "load cashflow", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn(op+" timed out", slog.Any("error", err))
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "the request took too long")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
