package variance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// Options tunes the comparison window and alert threshold. A negative
// threshold means none was configured; zero alerts on any deviation.
type Options struct {
	AlertThreshold float64
	Months         int
	Now            func() time.Time
}

// Service coordinates budgets and plan-vs-actual comparisons.
type Service struct {
	store     records.Store
	analytics *analytics.Service
	validate  *validator.Validate
	logger    *slog.Logger
	opts      Options
}

// NewService builds the service.
func NewService(store records.Store, analyticsSvc *analytics.Service, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AlertThreshold < 0 {
		opts.AlertThreshold = DefaultAlertThreshold
	}
	if opts.Months <= 0 {
		opts.Months = 6
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     store,
		analytics: analyticsSvc,
		validate:  validator.New(),
		logger:    logger,
		opts:      opts,
	}
}

// Threshold returns the configured alert threshold.
func (s *Service) Threshold() float64 { return s.opts.AlertThreshold }

// ListBudgets returns every budget, newest month first.
func (s *Service) ListBudgets(ctx context.Context) ([]records.Budget, error) {
	q := records.Query{}.OrderBy("year", true).OrderBy("month", true)
	return records.FetchAll[records.Budget](ctx, s.store, records.Budgets, q)
}

// CreateBudget validates and stores a budget. Each month holds one budget.
func (s *Service) CreateBudget(ctx context.Context, input BudgetInput) (records.Budget, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.Budget{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	n, err := s.store.Count(ctx, records.Budgets, records.Query{}.
		Where("year", records.OpEq, input.Year).
		Where("month", records.OpEq, input.Month))
	if err != nil {
		return records.Budget{}, fmt.Errorf("check existing budget: %w", err)
	}
	if n > 0 {
		return records.Budget{}, fmt.Errorf("%w: %s", ErrBudgetExists, period.MonthKey(input.Year, input.Month))
	}
	budget := records.Budget{
		Year:            input.Year,
		Month:           input.Month,
		ExpectedRevenue: input.ExpectedRevenue,
		ExpectedExpense: input.ExpectedExpense,
		SalesTarget:     input.SalesTarget,
		Notes:           input.Notes,
	}
	if _, err := s.store.Insert(ctx, records.Budgets, &budget); err != nil {
		return records.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return budget, nil
}

// UpdateBudget replaces the figures of an existing budget.
func (s *Service) UpdateBudget(ctx context.Context, id string, input BudgetInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	clash, err := records.FetchAll[records.Budget](ctx, s.store, records.Budgets, records.Query{}.
		Where("year", records.OpEq, input.Year).
		Where("month", records.OpEq, input.Month))
	if err != nil {
		return fmt.Errorf("check existing budget: %w", err)
	}
	for _, b := range clash {
		if b.ID != id {
			return fmt.Errorf("%w: %s", ErrBudgetExists, period.MonthKey(input.Year, input.Month))
		}
	}
	err = s.store.Update(ctx, records.Budgets, id, map[string]any{
		"year":             input.Year,
		"month":            input.Month,
		"expected_revenue": input.ExpectedRevenue,
		"expected_expense": input.ExpectedExpense,
		"sales_target":     input.SalesTarget,
		"notes":            input.Notes,
	})
	if errors.Is(err, records.ErrNotFound) {
		return ErrBudgetNotFound
	}
	return err
}

// DeleteBudget removes a budget.
func (s *Service) DeleteBudget(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, records.Budgets, id)
	if errors.Is(err, records.ErrNotFound) {
		return ErrBudgetNotFound
	}
	return err
}

// ComparisonFilter bounds a comparison by inclusive "YYYY-MM" months.
type ComparisonFilter struct {
	From string
	To   string
}

// Compare builds the plan-vs-actual report for the filter window, which
// defaults to the configured number of months ending this month. Budget
// fetch failures are logged and reported as warnings.
func (s *Service) Compare(ctx context.Context, filter ComparisonFilter) (Report, error) {
	tf, from, end, err := analytics.TrendFilter{From: filter.From, To: filter.To}.Resolve(s.opts.Now().UTC(), s.opts.Months)
	if err != nil {
		return Report{}, err
	}
	report := Report{From: tf.From, To: tf.To, Comparisons: []Comparison{}, Alerts: []Alert{}}

	budgets, err := records.FetchAll[records.Budget](ctx, s.store, records.Budgets, records.Query{}.
		Where("year", records.OpGte, from.Year()).
		Where("year", records.OpLte, end.Year()))
	if err != nil {
		if ctx.Err() != nil {
			return Report{}, ctx.Err()
		}
		s.logger.Warn("variance budgets fetch failed", slog.Any("error", err))
		report.Warnings = append(report.Warnings, "budgets unavailable")
	}
	inWindow := budgets[:0:0]
	for _, b := range budgets {
		key := period.MonthKey(b.Year, b.Month)
		if key >= tf.From && key <= tf.To {
			inWindow = append(inWindow, b)
		}
	}

	summaries, warnings, err := s.analytics.SummariesBetween(ctx, from, end)
	if err != nil {
		return Report{}, err
	}
	report.Warnings = append(report.Warnings, warnings...)
	report.Comparisons = Compare(inWindow, analytics.SummaryIndex(summaries))
	report.Alerts = DetectAlerts(report.Comparisons, s.opts.AlertThreshold)
	return report, nil
}
