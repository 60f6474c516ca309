package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/variance"
)

// WriteDashboardCSV serialises the dashboard headline metrics.
func WriteDashboardCSV(w io.Writer, d analytics.Dashboard) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", d.Period},
		{"Revenue", d.CurrentRevenue.StringFixed(2)},
		{"Previous Revenue", d.PreviousRevenue.StringFixed(2)},
		{"Revenue Change %", d.RevenueChangePct.StringFixed(2)},
		{"Expense", d.CurrentExpense.StringFixed(2)},
		{"Balance", d.CurrentBalance.StringFixed(2)},
		{"Average Ticket", d.AverageTicket.StringFixed(2)},
		{"Collected %", formatFloat(d.CollectedPct)},
		{"Sales", strconv.Itoa(d.SalesCount)},
		{"Active Customers", strconv.Itoa(d.ActiveCustomers)},
		{"Products", strconv.Itoa(d.ProductCount)},
		{"Critical Stock", strconv.Itoa(d.CriticalStockCount)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCashflowCSV emits one row per period summary.
func WriteCashflowCSV(w io.Writer, periods []analytics.PeriodSummary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Period", "Revenue", "Expense", "Balance", "Cumulative Balance", "Sales", "Expenses"}); err != nil {
		return err
	}
	for _, p := range periods {
		if err := writer.Write([]string{
			p.Period,
			p.Revenue.StringFixed(2),
			p.Expense.StringFixed(2),
			p.Balance.StringFixed(2),
			p.CumulativeBalance.StringFixed(2),
			strconv.Itoa(p.SalesCount),
			strconv.Itoa(p.ExpenseCount),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteComparisonCSV emits the plan-vs-actual table.
func WriteComparisonCSV(w io.Writer, comparisons []variance.Comparison) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(variance.ExportRows(comparisons)); err != nil {
		return err
	}
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
