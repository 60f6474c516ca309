package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// Cashflow is the per-period trend over a window.
type Cashflow struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Periods  []PeriodSummary `json:"periods"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Partial reports whether some inputs failed to load.
func (c Cashflow) Partial() bool { return len(c.Warnings) > 0 }

// GetCashflow summarises sales and expenses per period within the filter,
// oldest period first.
func (s *Service) GetCashflow(ctx context.Context, filter TrendFilter) (Cashflow, error) {
	filter, from, end, err := filter.Resolve(s.now(), s.opts.CashflowMonths)
	if err != nil {
		return Cashflow{}, err
	}
	scope := []string{"cashflow", string(filter.Granularity), filter.From, filter.To}
	return Memoize(ctx, s.cache, s.logger, scope, func(ctx context.Context) (Cashflow, error) {
		return s.loadCashflow(ctx, filter, from, end)
	})
}

func (s *Service) loadCashflow(ctx context.Context, filter TrendFilter, from, end time.Time) (Cashflow, error) {
	var (
		sales    []records.Sale
		expenses []records.Expense
		w        warnings
	)
	window := records.Query{}.
		Where("date", records.OpGte, from.Format(time.DateOnly)).
		Where("date", records.OpLt, end.Format(time.DateOnly))
	g, gctx := errgroup.WithContext(ctx)
	fetchInto(gctx, g, s, &w, records.Sales, window, &sales)
	fetchInto(gctx, g, s, &w, records.Expenses, window, &expenses)
	if err := g.Wait(); err != nil {
		return Cashflow{}, err
	}
	return Cashflow{
		From:     filter.From,
		To:       filter.To,
		Periods:  Summarize(sales, expenses, filter.Granularity, s.logger),
		Warnings: w.List(),
	}, nil
}

// SummariesBetween returns monthly summaries for [from, end) without
// memoization. Fetch failures are logged and reported as warnings.
func (s *Service) SummariesBetween(ctx context.Context, from, end time.Time) ([]PeriodSummary, []string, error) {
	cf, err := s.loadCashflow(ctx, TrendFilter{Granularity: period.Month}, from, end)
	if err != nil {
		return nil, nil, err
	}
	return cf.Periods, cf.Warnings, nil
}
