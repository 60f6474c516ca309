package analytics

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// PeriodSummary is the financial picture of one period.
type PeriodSummary struct {
	Period            string          `json:"period"`
	Revenue           decimal.Decimal `json:"revenue"`
	Expense           decimal.Decimal `json:"expense"`
	Balance           decimal.Decimal `json:"balance"`
	CumulativeBalance decimal.Decimal `json:"cumulative_balance"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	CollectedRatio    float64         `json:"collected_ratio"`
	SalesCount        int             `json:"sales_count"`
	CollectedCount    int             `json:"collected_count"`
	ExpenseCount      int             `json:"expense_count"`
}

// Summarize aggregates sales and expenses per period. The result covers
// every period that has a sale or an expense, oldest first, with the
// cumulative balance running in that order.
func Summarize(sales []records.Sale, expenses []records.Expense, g period.Granularity, logger *slog.Logger) []PeriodSummary {
	salesBy := period.Bucket(sales, g, logger)
	expensesBy := period.Bucket(expenses, g, logger)

	keys := make(map[string]struct{}, len(salesBy)+len(expensesBy))
	for k := range salesBy {
		keys[k] = struct{}{}
	}
	for k := range expensesBy {
		keys[k] = struct{}{}
	}

	out := make([]PeriodSummary, 0, len(keys))
	cumulative := decimal.Zero
	for _, key := range period.SortedKeys(keys, false) {
		s := summarizePeriod(key, salesBy[key], expensesBy[key])
		cumulative = cumulative.Add(s.Balance)
		s.CumulativeBalance = cumulative
		out = append(out, s)
	}
	return out
}

func summarizePeriod(key string, sales []records.Sale, expenses []records.Expense) PeriodSummary {
	s := PeriodSummary{
		Period:            key,
		Revenue:           decimal.Zero,
		Expense:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
		SalesCount:        len(sales),
		ExpenseCount:      len(expenses),
	}
	for _, sale := range sales {
		s.Revenue = s.Revenue.Add(sale.TotalAmount)
		if sale.Status == records.SaleCollected {
			s.CollectedCount++
		}
	}
	for _, e := range expenses {
		s.Expense = s.Expense.Add(e.Amount)
	}
	s.Balance = s.Revenue.Sub(s.Expense)
	if s.SalesCount > 0 {
		s.AverageOrderValue = s.Revenue.Div(decimal.NewFromInt(int64(s.SalesCount)))
		s.CollectedRatio = float64(s.CollectedCount) / float64(s.SalesCount)
	}
	return s
}

// SummaryIndex keys summaries by period.
func SummaryIndex(summaries []PeriodSummary) map[string]PeriodSummary {
	idx := make(map[string]PeriodSummary, len(summaries))
	for _, s := range summaries {
		idx[s.Period] = s
	}
	return idx
}

// Reverse returns the summaries newest first without touching the input.
func Reverse(summaries []PeriodSummary) []PeriodSummary {
	out := make([]PeriodSummary, len(summaries))
	for i, s := range summaries {
		out[len(summaries)-1-i] = s
	}
	return out
}
