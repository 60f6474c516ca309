package variance

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// DefaultAlertThreshold is the absolute deviation percentage an alert
// must exceed.
const DefaultAlertThreshold = 20.0

var hundred = decimal.NewFromInt(100)

// Compare sets every budget against the actuals of its month. Months with
// no actuals compare against zero. The result is sorted newest first.
func Compare(budgets []records.Budget, actuals map[string]analytics.PeriodSummary) []Comparison {
	out := make([]Comparison, 0, len(budgets))
	for _, b := range budgets {
		key := period.MonthKey(b.Year, b.Month)
		actual := actuals[key]
		planned := Figures{
			Revenue: b.ExpectedRevenue,
			Expense: b.ExpectedExpense,
			Balance: b.ExpectedRevenue.Sub(b.ExpectedExpense),
		}
		actualFigures := Figures{
			Revenue: actual.Revenue,
			Expense: actual.Expense,
			Balance: actual.Revenue.Sub(actual.Expense),
		}
		dev := Deviation{
			Revenue:    actualFigures.Revenue.Sub(planned.Revenue),
			Expense:    actualFigures.Expense.Sub(planned.Expense),
			Balance:    actualFigures.Balance.Sub(planned.Balance),
			Percentage: decimal.Zero,
		}
		if !planned.Balance.IsZero() {
			dev.Percentage = dev.Balance.Div(planned.Balance.Abs()).Mul(hundred)
		}
		out = append(out, Comparison{
			Period:      key,
			BudgetID:    b.ID,
			Planned:     planned,
			Actual:      actualFigures,
			Deviation:   dev,
			SalesTarget: b.SalesTarget,
			SalesCount:  actual.SalesCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Period > out[j].Period
	})
	return out
}

// DetectAlerts flags comparisons whose absolute percentage is strictly
// greater than threshold. Zero flags every deviation; a negative threshold
// falls back to the default.
func DetectAlerts(comparisons []Comparison, threshold float64) []Alert {
	if threshold < 0 {
		threshold = DefaultAlertThreshold
	}
	limit := decimal.NewFromFloat(threshold)
	p := message.NewPrinter(language.English)
	alerts := []Alert{}
	for _, c := range comparisons {
		pct := c.Deviation.Percentage
		if !pct.Abs().GreaterThan(limit) {
			continue
		}
		alert := Alert{Period: c.Period, Percentage: pct}
		if pct.IsPositive() {
			alert.Kind = AlertExceeded
			alert.Message = p.Sprintf("Exceeded plan by %.1f%%", pct.InexactFloat64())
		} else {
			alert.Kind = AlertBelow
			alert.Message = p.Sprintf("Below plan by %.1f%%", pct.Abs().InexactFloat64())
		}
		alerts = append(alerts, alert)
	}
	return alerts
}

// ExportRows formats comparisons into CSV-ready strings.
func ExportRows(comparisons []Comparison) [][]string {
	out := make([][]string, 0, len(comparisons)+1)
	out = append(out, []string{
		"Period",
		"Planned Revenue", "Planned Expense", "Planned Balance",
		"Actual Revenue", "Actual Expense", "Actual Balance",
		"Deviation Balance", "Deviation %",
	})
	for _, c := range comparisons {
		out = append(out, []string{
			c.Period,
			c.Planned.Revenue.StringFixed(2),
			c.Planned.Expense.StringFixed(2),
			c.Planned.Balance.StringFixed(2),
			c.Actual.Revenue.StringFixed(2),
			c.Actual.Expense.StringFixed(2),
			c.Actual.Balance.StringFixed(2),
			c.Deviation.Balance.StringFixed(2),
			c.Deviation.Percentage.StringFixed(2),
		})
	}
	return out
}
