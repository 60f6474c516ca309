package variance

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrBudgetExists occurs when a month already has a budget.
	ErrBudgetExists = errors.New("variance: budget already exists for period")
	// ErrBudgetNotFound occurs when a budget id is unknown.
	ErrBudgetNotFound = errors.New("variance: budget not found")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("variance: invalid input")
)

// Figures is a revenue/expense/balance triple.
type Figures struct {
	Revenue decimal.Decimal `json:"revenue"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Deviation is actual minus planned, plus the balance deviation relative to
// the absolute planned balance.
type Deviation struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Expense    decimal.Decimal `json:"expense"`
	Balance    decimal.Decimal `json:"balance"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Comparison is one budget month set against its actuals.
type Comparison struct {
	Period      string    `json:"period"`
	BudgetID    string    `json:"budget_id"`
	Planned     Figures   `json:"planned"`
	Actual      Figures   `json:"actual"`
	Deviation   Deviation `json:"deviation"`
	SalesTarget int       `json:"sales_target"`
	SalesCount  int       `json:"sales_count"`
}

// AlertKind tells whether actuals beat or missed the plan.
type AlertKind string

const (
	AlertExceeded AlertKind = "exceeded_plan"
	AlertBelow    AlertKind = "below_plan"
)

// Alert flags a comparison whose deviation passed the threshold.
type Alert struct {
	Period     string          `json:"period"`
	Kind       AlertKind       `json:"kind"`
	Percentage decimal.Decimal `json:"percentage"`
	Message    string          `json:"message"`
}

// BudgetInput captures budget creation and update input.
type BudgetInput struct {
	Year            int             `json:"year" validate:"required,min=2000,max=2100"`
	Month           int             `json:"month" validate:"required,min=1,max=12"`
	ExpectedRevenue decimal.Decimal `json:"expected_revenue"`
	ExpectedExpense decimal.Decimal `json:"expected_expense"`
	SalesTarget     int             `json:"sales_target" validate:"min=0"`
	Notes           string          `json:"notes" validate:"max=500"`
}

// Report is the planning view: comparisons newest first plus alerts.
type Report struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Comparisons []Comparison `json:"comparisons"`
	Alerts      []Alert      `json:"alerts"`
	Warnings    []string     `json:"warnings,omitempty"`
}
