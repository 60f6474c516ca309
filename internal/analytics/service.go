// Package analytics computes the financial summaries and dashboard KPIs
// behind the business dashboard.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bizdash/bizdash/internal/ranking"
	"github.com/bizdash/bizdash/internal/records"
)

// Options tunes the service windows.
type Options struct {
	RankingLimit   int
	CashflowMonths int
	Now            func() time.Time
}

// Service loads record snapshots and memoizes the aggregates built from them.
type Service struct {
	store  records.Store
	cache  *Cache
	logger *slog.Logger
	opts   Options
}

// NewService wires a record store with a Cache helper.
func NewService(store records.Store, cache *Cache, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RankingLimit <= 0 {
		opts.RankingLimit = ranking.DefaultLimit
	}
	if opts.CashflowMonths <= 0 {
		opts.CashflowMonths = 12
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, cache: cache, logger: logger, opts: opts}
}

// Cache exposes the memoization layer for invalidation hooks.
func (s *Service) Cache() *Cache { return s.cache }

func (s *Service) now() time.Time { return s.opts.Now().UTC() }

type warnings = records.Warnings

// fetchInto schedules a best-effort fetch of one collection for the service.
func fetchInto[T any](ctx context.Context, g *errgroup.Group, s *Service, w *warnings, c records.Collection, q records.Query, dest *[]T) {
	records.FetchInto(ctx, g, s.store, s.logger, w, c, q, dest)
}

// Snapshot is every collection the reports are built from.
type Snapshot struct {
	Sales     []records.Sale             `json:"sales"`
	Items     []records.SaleLineItem     `json:"items"`
	Expenses  []records.Expense          `json:"expenses"`
	Customers []records.Customer         `json:"customers"`
	Products  []records.Product          `json:"products"`
	Budgets   []records.Budget           `json:"budgets"`
	Purchases []records.SupplierPurchase `json:"purchases"`
	Warnings  []string                   `json:"warnings,omitempty"`
}

// LoadSnapshot fetches every collection concurrently. It fails only when
// ctx is cancelled.
func (s *Service) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var w warnings
	g, gctx := errgroup.WithContext(ctx)
	byDate := records.Query{}.OrderBy("date", false)
	fetchInto(gctx, g, s, &w, records.Sales, byDate, &snap.Sales)
	fetchInto(gctx, g, s, &w, records.SaleItems, records.Query{}, &snap.Items)
	fetchInto(gctx, g, s, &w, records.Expenses, byDate, &snap.Expenses)
	fetchInto(gctx, g, s, &w, records.Customers, records.Query{}.OrderBy("name", false), &snap.Customers)
	fetchInto(gctx, g, s, &w, records.Products, records.Query{}.OrderBy("name", false), &snap.Products)
	fetchInto(gctx, g, s, &w, records.Budgets, records.Query{}.OrderBy("year", false).OrderBy("month", false), &snap.Budgets)
	fetchInto(gctx, g, s, &w, records.SupplierPurchases, byDate, &snap.Purchases)
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.Warnings = w.List()
	return snap, nil
}

// GetDashboard returns the dashboard for the current month.
func (s *Service) GetDashboard(ctx context.Context) (Dashboard, error) {
	now := s.now()
	scope := []string{"dashboard", now.Format(time.DateOnly)}
	return Memoize(ctx, s.cache, s.logger, scope, func(ctx context.Context) (Dashboard, error) {
		var in DashboardInput
		var w warnings
		g, gctx := errgroup.WithContext(ctx)
		fetchInto(gctx, g, s, &w, records.Sales, records.Query{}, &in.Sales)
		fetchInto(gctx, g, s, &w, records.SaleItems, records.Query{}, &in.Items)
		fetchInto(gctx, g, s, &w, records.Expenses,
			records.Query{}.Where("date", records.OpGte, previousMonthStart(now)), &in.Expenses)
		fetchInto(gctx, g, s, &w, records.Customers, records.Query{}, &in.Customers)
		fetchInto(gctx, g, s, &w, records.Products, records.Query{}.OrderBy("current_stock", false), &in.Products)
		if err := g.Wait(); err != nil {
			return Dashboard{}, err
		}
		d := BuildDashboard(in, now, s.opts.RankingLimit)
		d.Warnings = w.List()
		return d, nil
	})
}

// GetFinancialKPIs returns liquidity and working capital indicators.
func (s *Service) GetFinancialKPIs(ctx context.Context) (FinancialKPIs, error) {
	now := s.now()
	since := now.Add(-KPIWindow).Format(time.DateOnly)
	scope := []string{"finance", now.Format(time.DateOnly)}
	return Memoize(ctx, s.cache, s.logger, scope, func(ctx context.Context) (FinancialKPIs, error) {
		var in FinanceInput
		var w warnings
		g, gctx := errgroup.WithContext(ctx)
		fetchInto(gctx, g, s, &w, records.Sales, records.Query{}.Where("date", records.OpGte, since), &in.Sales)
		fetchInto(gctx, g, s, &w, records.Expenses, records.Query{}.Where("date", records.OpGte, since), &in.Expenses)
		fetchInto(gctx, g, s, &w, records.SupplierPurchases, records.Query{}, &in.Purchases)
		if err := g.Wait(); err != nil {
			return FinancialKPIs{}, err
		}
		k := BuildFinancialKPIs(in, now)
		k.Warnings = w.List()
		return k, nil
	})
}

func previousMonthStart(now time.Time) string {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return start.Format(time.DateOnly)
}
