package tax

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// Options tunes the reporting window. A negative VATRate means no rate was
// configured and DefaultVATRate applies; zero is a valid rate.
type Options struct {
	VATRate float64
	Months  int
	Now     func() time.Time
}

// Service exposes VAT reports and deadline bookkeeping.
type Service struct {
	store    records.Store
	validate *validator.Validate
	logger   *slog.Logger
	rate     decimal.Decimal
	months   int
	now      func() time.Time
}

// NewService builds the service.
func NewService(store records.Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.VATRate < 0 {
		opts.VATRate = DefaultVATRate
	}
	if opts.Months <= 0 {
		opts.Months = 12
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:    store,
		validate: validator.New(),
		logger:   logger,
		rate:     decimal.NewFromFloat(opts.VATRate),
		months:   opts.Months,
		now:      opts.Now,
	}
}

// Rate returns the VAT rate applied to purchases.
func (s *Service) Rate() decimal.Decimal { return s.rate }

// ReportSet is the trailing window of monthly reports, newest first.
// Warnings name the collections that could not be loaded.
type ReportSet struct {
	Reports  []MonthlyReport `json:"reports"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Reports returns the monthly reports of the trailing window. A collection
// that fails to load is treated as empty and listed in Warnings.
func (s *Service) Reports(ctx context.Context) (ReportSet, error) {
	end := period.StartOfMonth(s.now().UTC()).AddDate(0, 1, 0)
	from := end.AddDate(0, -s.months, 0)
	return s.reportsBetween(ctx, from, end)
}

// Report returns the report of a single "YYYY-MM" period.
func (s *Service) Report(ctx context.Context, key string) (MonthlyReport, error) {
	from, err := period.ParseMonth(key)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	set, err := s.reportsBetween(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return MonthlyReport{}, err
	}
	if len(set.Reports) == 0 {
		return MonthlyReport{}, fmt.Errorf("%w %s", ErrReportNotFound, key)
	}
	report := set.Reports[0]
	report.Warnings = set.Warnings
	return report, nil
}

func (s *Service) reportsBetween(ctx context.Context, from, end time.Time) (ReportSet, error) {
	window := records.Query{}.
		Where("date", records.OpGte, from.Format(time.DateOnly)).
		Where("date", records.OpLt, end.Format(time.DateOnly))
	var (
		sales    []records.Sale
		expenses []records.Expense
		w        records.Warnings
	)
	g, gctx := errgroup.WithContext(ctx)
	records.FetchInto(gctx, g, s.store, s.logger, &w, records.Sales, window, &sales)
	records.FetchInto(gctx, g, s.store, s.logger, &w, records.Expenses, window, &expenses)
	if err := g.Wait(); err != nil {
		return ReportSet{}, err
	}
	return ReportSet{
		Reports:  BuildMonthlyReports(sales, expenses, s.rate, s.logger),
		Warnings: w.List(),
	}, nil
}

// DeadlineInput describes a new filing deadline.
type DeadlineInput struct {
	Name            string             `json:"name" validate:"required,max=200"`
	Description     string             `json:"description" validate:"max=1000"`
	Kind            records.Recurrence `json:"kind" validate:"required,oneof=monthly quarterly annual"`
	DueDate         string             `json:"due_date" validate:"required,datetime=2006-01-02"`
	EstimatedAmount decimal.Decimal    `json:"estimated_amount"`
	Notes           string             `json:"notes" validate:"max=500"`
}

// ListDeadlines returns every deadline ordered by due date.
func (s *Service) ListDeadlines(ctx context.Context) ([]records.TaxDeadline, error) {
	return records.FetchAll[records.TaxDeadline](ctx, s.store, records.TaxDeadlines, records.Query{}.OrderBy("due_date", false))
}

// CreateDeadline validates and stores an open deadline.
func (s *Service) CreateDeadline(ctx context.Context, input DeadlineInput) (records.TaxDeadline, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.TaxDeadline{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.EstimatedAmount.IsNegative() {
		return records.TaxDeadline{}, fmt.Errorf("%w: estimated amount must not be negative", ErrInvalidInput)
	}
	deadline := records.TaxDeadline{
		Name:            input.Name,
		Description:     input.Description,
		Kind:            input.Kind,
		DueDate:         input.DueDate,
		EstimatedAmount: input.EstimatedAmount,
		Notes:           input.Notes,
	}
	if _, err := s.store.Insert(ctx, records.TaxDeadlines, &deadline); err != nil {
		return records.TaxDeadline{}, fmt.Errorf("create deadline: %w", err)
	}
	return deadline, nil
}

// CompleteDeadline marks a deadline as filed today.
func (s *Service) CompleteDeadline(ctx context.Context, id string) error {
	err := s.store.Update(ctx, records.TaxDeadlines, id, map[string]any{
		"completed":      true,
		"completed_date": s.now().UTC().Format(time.DateOnly),
	})
	if errors.Is(err, records.ErrNotFound) {
		return ErrDeadlineNotFound
	}
	return err
}

// Reminder groups the open deadlines needing attention.
type Reminder struct {
	Upcoming []records.TaxDeadline `json:"upcoming"`
	Overdue  []records.TaxDeadline `json:"overdue"`
}

// Empty reports whether nothing needs attention.
func (r Reminder) Empty() bool { return len(r.Upcoming) == 0 && len(r.Overdue) == 0 }

// DueSoon returns deadlines due within the given number of days and those
// already overdue.
func (s *Service) DueSoon(ctx context.Context, days int) (Reminder, error) {
	open, err := records.FetchAll[records.TaxDeadline](ctx, s.store, records.TaxDeadlines, records.Query{}.
		Where("completed", records.OpEq, false).
		OrderBy("due_date", false))
	if err != nil {
		return Reminder{}, err
	}
	now := s.now()
	return Reminder{
		Upcoming: Upcoming(open, now, time.Duration(days)*24*time.Hour),
		Overdue:  Overdue(open, now),
	}, nil
}
