package export

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/ranking"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/tax"
	"github.com/bizdash/bizdash/internal/variance"
)

// TopRows bounds the ranking sheets of the business report.
const TopRows = 20

// ReportData feeds the business workbook.
type ReportData struct {
	Snapshot    analytics.Snapshot
	Monthly     []analytics.PeriodSummary
	Comparisons []variance.Comparison
}

// NewReportData derives the monthly summaries and plan comparisons of snap.
func NewReportData(snap analytics.Snapshot, logger *slog.Logger) ReportData {
	monthly := analytics.Summarize(snap.Sales, snap.Expenses, period.Month, logger)
	return ReportData{
		Snapshot:    snap,
		Monthly:     monthly,
		Comparisons: variance.Compare(snap.Budgets, analytics.SummaryIndex(monthly)),
	}
}

// BuildBusinessReport assembles the full business workbook. The caller owns
// the returned workbook and must Close it.
func BuildBusinessReport(data ReportData, now time.Time) (*Workbook, error) {
	wb, err := NewWorkbook()
	if err != nil {
		return nil, err
	}
	snap := data.Snapshot
	customerTotals := ranking.CustomerContributions(snap.Sales)
	productTotals := ranking.ProductContributions(snap.Items)

	sheets := []Sheet{
		summarySheet(snap, now),
		customersSheet(snap.Customers, customerTotals),
		inventorySheet(snap.Products),
		salesSheet(snap),
		expensesSheet(snap.Expenses),
		analysisSheet(data.Monthly),
		topCustomersSheet(snap.Customers, customerTotals),
		topProductsSheet(snap.Products, productTotals),
	}
	if len(data.Comparisons) > 0 {
		sheets = append(sheets, planSheet(data.Comparisons))
	}
	for _, s := range sheets {
		if err := wb.AddSheet(s); err != nil {
			_ = wb.Close()
			return nil, err
		}
	}
	return wb, nil
}

func summarySheet(snap analytics.Snapshot, now time.Time) Sheet {
	revenue, expense := decimal.Zero, decimal.Zero
	for _, s := range snap.Sales {
		revenue = revenue.Add(s.TotalAmount)
	}
	for _, e := range snap.Expenses {
		expense = expense.Add(e.Amount)
	}
	return Sheet{
		Name:    "Summary",
		Title:   "Business summary",
		Columns: []Column{{Header: "Metric", Width: 30}, {Header: "Value", Width: 25}},
		Rows: [][]any{
			{"Customers", len(snap.Customers)},
			{"Products", len(snap.Products)},
			{"Sales", len(snap.Sales)},
			{"Expenses", len(snap.Expenses)},
			{"Financials", ""},
			{"Total revenue", revenue},
			{"Total expense", expense},
			{"Net profit", revenue.Sub(expense)},
			{"Report", ""},
			{"Generated at", now.UTC().Format(time.RFC3339)},
		},
		Highlight: []int{4, 8},
	}
}

func customersSheet(customers []records.Customer, totals map[string]ranking.Contribution) Sheet {
	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		t := totals[c.ID]
		rows = append(rows, []any{c.ID, c.Name, c.Email, c.Phone, c.Company, string(c.Status), t.Amount, t.Count})
	}
	return Sheet{
		Name: "Customers",
		Columns: []Column{
			{"ID", 15}, {"Name", 20}, {"Email", 25}, {"Phone", 15},
			{"Company", 20}, {"Status", 12}, {"Total Purchases", 15}, {"Purchases", 12},
		},
		Rows: rows,
	}
}

func inventorySheet(products []records.Product) Sheet {
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		margin := Percent(0)
		if p.Price.IsPositive() {
			margin = Percent(p.Price.Sub(p.Cost).Div(p.Price).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64())
		}
		status := "OK"
		if p.Critical() {
			status = "LOW STOCK"
		}
		rows = append(rows, []any{
			p.ID, p.Name, p.Category, p.Price, p.Cost, margin,
			p.CurrentStock, p.MinimumStock, status,
			p.Price.Mul(decimal.NewFromInt(int64(p.CurrentStock))),
		})
	}
	return Sheet{
		Name: "Inventory",
		Columns: []Column{
			{"ID", 15}, {"Name", 25}, {"Category", 15}, {"Price", 12}, {"Cost", 12},
			{"Margin %", 10}, {"Stock", 12}, {"Minimum Stock", 14}, {"Status", 12}, {"Inventory Value", 15},
		},
		Rows: rows,
	}
}

func salesSheet(snap analytics.Snapshot) Sheet {
	names := make(map[string]string, len(snap.Customers))
	for _, c := range snap.Customers {
		names[c.ID] = c.Name
	}
	rows := make([][]any, 0, len(snap.Sales))
	for _, s := range snap.Sales {
		customer := "No customer"
		if s.CustomerID != nil {
			if name, ok := names[*s.CustomerID]; ok {
				customer = name
			}
		}
		rows = append(rows, []any{
			s.ID, s.Date, customer, s.PaymentMethod, s.TotalAmount,
			s.Discount, s.Tax, string(s.Status), s.CollectionDate,
		})
	}
	return Sheet{
		Name: "Sales",
		Columns: []Column{
			{"ID", 15}, {"Date", 12}, {"Customer", 20}, {"Payment Method", 15}, {"Total", 15},
			{"Discount", 12}, {"Tax", 12}, {"Status", 12}, {"Collected On", 15},
		},
		Rows: rows,
	}
}

func expensesSheet(expenses []records.Expense) Sheet {
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		fiscal := e.FiscalCategory
		if fiscal == "" {
			fiscal = "Unspecified"
		}
		month := ""
		if t, err := period.ParseDate(e.Date); err == nil {
			month = period.Key(t, period.Month)
		}
		rows = append(rows, []any{e.ID, e.Date, e.SupplierName, e.Amount, e.Category, fiscal, month})
	}
	return Sheet{
		Name: "Expenses",
		Columns: []Column{
			{"ID", 15}, {"Date", 12}, {"Supplier", 20}, {"Amount", 15},
			{"Category", 15}, {"Fiscal Category", 18}, {"Month", 12},
		},
		Rows: rows,
	}
}

func analysisSheet(monthly []analytics.PeriodSummary) Sheet {
	rows := make([][]any, 0, len(monthly))
	for _, m := range monthly {
		margin := Percent(0)
		if m.Revenue.IsPositive() {
			margin = Percent(m.Balance.Div(m.Revenue).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64())
		}
		rows = append(rows, []any{
			m.Period, m.Revenue, m.Expense, m.Balance, margin,
			m.SalesCount, m.ExpenseCount, m.AverageOrderValue.Round(2),
		})
	}
	return Sheet{
		Name: "Financial Analysis",
		Columns: []Column{
			{"Month", 12}, {"Revenue", 15}, {"Expense", 15}, {"Cashflow", 15},
			{"Margin %", 12}, {"Sales", 10}, {"Expenses", 10}, {"Average Ticket", 15},
		},
		Rows: rows,
	}
}

func topCustomersSheet(customers []records.Customer, totals map[string]ranking.Contribution) Sheet {
	top := ranking.TopN(customers, ranking.Lookup(totals, func(c records.Customer) string { return c.ID }), TopRows)
	rows := make([][]any, 0, len(top))
	for i, r := range top {
		rows = append(rows, []any{
			i + 1, r.Entity.Name, r.Amount, r.Count,
			r.Amount.DivRound(decimal.NewFromInt(int64(r.Count)), 2),
			string(r.Entity.Status), r.Entity.Email, r.Entity.Phone,
		})
	}
	return Sheet{
		Name: "Top Customers",
		Columns: []Column{
			{"Rank", 10}, {"Customer", 25}, {"Total Purchases", 15}, {"Purchases", 10},
			{"Average Purchase", 18}, {"Status", 12}, {"Email", 25}, {"Phone", 15},
		},
		Rows: rows,
	}
}

func topProductsSheet(products []records.Product, totals map[string]ranking.Contribution) Sheet {
	top := ranking.TopN(products, ranking.Lookup(totals, func(p records.Product) string { return p.ID }), TopRows)
	rows := make([][]any, 0, len(top))
	for i, r := range top {
		p := r.Entity
		rows = append(rows, []any{i + 1, p.Name, p.Category, r.Amount, r.Count, p.Price, p.CurrentStock, p.Price.Sub(p.Cost)})
	}
	return Sheet{
		Name: "Top Products",
		Columns: []Column{
			{"Rank", 10}, {"Product", 25}, {"Category", 15}, {"Total Sold", 15},
			{"Units Sold", 15}, {"Price", 15}, {"Stock", 12}, {"Unit Margin", 15},
		},
		Rows: rows,
	}
}

func planSheet(comparisons []variance.Comparison) Sheet {
	rows := make([][]any, 0, len(comparisons))
	for _, c := range comparisons {
		rows = append(rows, []any{
			c.Period,
			c.Planned.Revenue, c.Actual.Revenue,
			c.Planned.Expense, c.Actual.Expense,
			c.Planned.Balance, c.Actual.Balance,
			c.Deviation.Balance, Percent(c.Deviation.Percentage.InexactFloat64()),
		})
	}
	return Sheet{
		Name: "Plan vs Actual",
		Columns: []Column{
			{"Month", 12}, {"Planned Revenue", 16}, {"Actual Revenue", 16},
			{"Planned Expense", 16}, {"Actual Expense", 16},
			{"Planned Balance", 16}, {"Actual Balance", 16},
			{"Deviation", 14}, {"Deviation %", 12},
		},
		Rows: rows,
	}
}

// BuildTaxReport renders one month's VAT position as a workbook.
func BuildTaxReport(report tax.MonthlyReport, rate decimal.Decimal) (*Workbook, error) {
	wb, err := NewWorkbook()
	if err != nil {
		return nil, err
	}
	pct := rate.Mul(decimal.NewFromInt(100)).String()
	sheet := Sheet{
		Name:    "Tax Report",
		Title:   "Tax report " + report.Period,
		Columns: []Column{{Header: "Concept", Width: 30}, {Header: "Amount", Width: 18}},
		Rows: [][]any{
			{"Sales total", report.SalesTotal},
			{"Sales VAT", report.SalesVAT},
			{"Purchases total", report.PurchasesTotal},
			{"Purchases VAT (" + pct + "%)", report.PurchasesVAT},
			{"Net VAT", report.NetVAT},
			{"Net balance", report.NetBalance},
		},
	}
	if err := wb.AddSheet(sheet); err != nil {
		_ = wb.Close()
		return nil, err
	}
	return wb, nil
}
