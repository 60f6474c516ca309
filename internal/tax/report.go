// Package tax builds monthly VAT reports and tracks filing deadlines.
package tax

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// DefaultVATRate applies to purchases when no rate is configured.
const DefaultVATRate = 0.21

var (
	ErrReportNotFound   = errors.New("tax: no activity for period")
	ErrDeadlineNotFound = errors.New("tax: deadline not found")
	ErrInvalidInput     = errors.New("tax: invalid input")
)

// MonthlyReport is the VAT position of one month.
type MonthlyReport struct {
	Period         string          `json:"period"`
	SalesTotal     decimal.Decimal `json:"sales_total"`
	SalesVAT       decimal.Decimal `json:"sales_vat"`
	PurchasesTotal decimal.Decimal `json:"purchases_total"`
	PurchasesVAT   decimal.Decimal `json:"purchases_vat"`
	NetVAT         decimal.Decimal `json:"net_vat"`
	NetBalance     decimal.Decimal `json:"net_balance"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// BuildMonthlyReports groups sales and expenses by month, newest first. Sales
// VAT is the tax charged on each sale; purchases VAT is estimated from the
// expense amount at rate.
func BuildMonthlyReports(sales []records.Sale, expenses []records.Expense, rate decimal.Decimal, logger *slog.Logger) []MonthlyReport {
	salesBy := period.Bucket(sales, period.Month, logger)
	expensesBy := period.Bucket(expenses, period.Month, logger)

	keys := make(map[string]struct{}, len(salesBy)+len(expensesBy))
	for k := range salesBy {
		keys[k] = struct{}{}
	}
	for k := range expensesBy {
		keys[k] = struct{}{}
	}

	out := make([]MonthlyReport, 0, len(keys))
	for _, key := range period.SortedKeys(keys, true) {
		r := MonthlyReport{Period: key}
		for _, s := range salesBy[key] {
			r.SalesTotal = r.SalesTotal.Add(s.TotalAmount)
			r.SalesVAT = r.SalesVAT.Add(s.Tax)
		}
		for _, e := range expensesBy[key] {
			r.PurchasesTotal = r.PurchasesTotal.Add(e.Amount)
			r.PurchasesVAT = r.PurchasesVAT.Add(e.Amount.Mul(rate))
		}
		r.PurchasesVAT = r.PurchasesVAT.Round(2)
		r.NetVAT = r.SalesVAT.Sub(r.PurchasesVAT)
		r.NetBalance = r.SalesTotal.Sub(r.PurchasesTotal)
		out = append(out, r)
	}
	return out
}

// Upcoming returns open deadlines due between today and today+within,
// inclusive, ordered by due date.
func Upcoming(deadlines []records.TaxDeadline, now time.Time, within time.Duration) []records.TaxDeadline {
	today := truncateDay(now)
	limit := today.Add(within)
	return selectOpen(deadlines, func(due time.Time) bool {
		return !due.Before(today) && !due.After(limit)
	})
}

// Overdue returns open deadlines whose due date has passed.
func Overdue(deadlines []records.TaxDeadline, now time.Time) []records.TaxDeadline {
	today := truncateDay(now)
	return selectOpen(deadlines, func(due time.Time) bool {
		return due.Before(today)
	})
}

func selectOpen(deadlines []records.TaxDeadline, keep func(time.Time) bool) []records.TaxDeadline {
	out := make([]records.TaxDeadline, 0)
	for _, d := range deadlines {
		if d.Completed {
			continue
		}
		due, err := period.ParseDate(d.DueDate)
		if err != nil {
			continue
		}
		if keep(truncateDay(due)) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
