package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/records"
)

// ExpenseInput creates or replaces an expense.
type ExpenseInput struct {
	Date           string          `json:"date" validate:"required,datetime=2006-01-02"`
	SupplierName   string          `json:"supplier_name" validate:"max=200"`
	Amount         decimal.Decimal `json:"amount"`
	Category       string          `json:"category" validate:"required,max=100"`
	FiscalCategory string          `json:"fiscal_category" validate:"max=100"`
}

// ExpenseFilter bounds an expense listing. From and To are inclusive
// "YYYY-MM-DD" dates.
type ExpenseFilter struct {
	From     string `validate:"omitempty,datetime=2006-01-02"`
	To       string `validate:"omitempty,datetime=2006-01-02"`
	Category string
}

func (s *Service) checkExpense(input ExpenseInput) error {
	if err := s.check(input); err != nil {
		return err
	}
	if !input.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return nil
}

// ListExpenses returns expenses newest first.
func (s *Service) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]records.Expense, error) {
	if err := s.check(filter); err != nil {
		return nil, err
	}
	q := records.Query{}.OrderBy("date", true)
	if filter.From != "" {
		q = q.Where("date", records.OpGte, filter.From)
	}
	if filter.To != "" {
		to, _ := time.Parse(time.DateOnly, filter.To)
		q = q.Where("date", records.OpLt, to.AddDate(0, 0, 1).Format(time.DateOnly))
	}
	if filter.Category != "" {
		q = q.Where("category", records.OpEq, filter.Category)
	}
	return records.FetchAll[records.Expense](ctx, s.store, records.Expenses, q)
}

// CreateExpense validates and stores an expense.
func (s *Service) CreateExpense(ctx context.Context, input ExpenseInput) (records.Expense, error) {
	if err := s.checkExpense(input); err != nil {
		return records.Expense{}, err
	}
	expense := records.Expense{
		Date:           input.Date,
		SupplierName:   input.SupplierName,
		Amount:         input.Amount,
		Category:       input.Category,
		FiscalCategory: input.FiscalCategory,
	}
	if _, err := s.store.Insert(ctx, records.Expenses, &expense); err != nil {
		return records.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return expense, nil
}

// UpdateExpense replaces the fields of an existing expense.
func (s *Service) UpdateExpense(ctx context.Context, id string, input ExpenseInput) error {
	if err := s.checkExpense(input); err != nil {
		return err
	}
	return s.update(ctx, records.Expenses, id, map[string]any{
		"date":            input.Date,
		"supplier_name":   input.SupplierName,
		"amount":          input.Amount,
		"category":        input.Category,
		"fiscal_category": input.FiscalCategory,
	})
}

// DeleteExpense removes an expense.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	return s.remove(ctx, records.Expenses, id, nil)
}
