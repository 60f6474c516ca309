package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/ranking"
	"github.com/bizdash/bizdash/internal/records"
)

const (
	// CriticalProductsShown caps the critical-stock list on the dashboard.
	CriticalProductsShown = 5
	// TopProductsWindow is how far back product sales count towards the ranking.
	TopProductsWindow = 30 * 24 * time.Hour
)

var hundred = decimal.NewFromInt(100)

// DashboardInput is the record snapshot the dashboard is computed from.
type DashboardInput struct {
	Sales     []records.Sale
	Items     []records.SaleLineItem
	Expenses  []records.Expense
	Customers []records.Customer
	Products  []records.Product
}

// Dashboard holds the headline KPIs.
type Dashboard struct {
	Period             string                             `json:"period"`
	CurrentRevenue     decimal.Decimal                    `json:"current_revenue"`
	PreviousRevenue    decimal.Decimal                    `json:"previous_revenue"`
	RevenueChangePct   decimal.Decimal                    `json:"revenue_change_pct"`
	CurrentExpense     decimal.Decimal                    `json:"current_expense"`
	CurrentBalance     decimal.Decimal                    `json:"current_balance"`
	AverageTicket      decimal.Decimal                    `json:"average_ticket"`
	CollectedPct       float64                            `json:"collected_pct"`
	SalesCount         int                                `json:"sales_count"`
	ActiveCustomers    int                                `json:"active_customers"`
	ProductCount       int                                `json:"product_count"`
	CriticalStockCount int                                `json:"critical_stock_count"`
	CriticalProducts   []records.Product                  `json:"critical_products"`
	TopProducts        []ranking.Ranked[records.Product]  `json:"top_products"`
	TopCustomers       []ranking.Ranked[records.Customer] `json:"top_customers"`
	Warnings           []string                           `json:"warnings,omitempty"`
}

// Partial reports whether some inputs failed to load.
func (d Dashboard) Partial() bool { return len(d.Warnings) > 0 }

// PercentChange is (current-previous)/previous*100, or 0 when previous is 0.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

// BuildDashboard computes the dashboard for the month containing now.
// limit bounds both rankings.
func BuildDashboard(in DashboardInput, now time.Time, limit int) Dashboard {
	current := period.StartOfMonth(now)
	currentKey := period.Key(current, period.Month)
	previousKey := period.Key(current.AddDate(0, -1, 0), period.Month)

	months := SummaryIndex(Summarize(in.Sales, in.Expenses, period.Month, nil))
	cur, prev := months[currentKey], months[previousKey]

	d := Dashboard{
		Period:           currentKey,
		CurrentRevenue:   cur.Revenue,
		PreviousRevenue:  prev.Revenue,
		RevenueChangePct: PercentChange(cur.Revenue, prev.Revenue),
		CurrentExpense:   cur.Expense,
		CurrentBalance:   cur.Revenue.Sub(cur.Expense),
		AverageTicket:    cur.AverageOrderValue,
		CollectedPct:     cur.CollectedRatio * 100,
		SalesCount:       cur.SalesCount,
		ProductCount:     len(in.Products),
		CriticalProducts: []records.Product{},
	}

	for _, c := range in.Customers {
		if c.Status == records.CustomerActive {
			d.ActiveCustomers++
		}
	}
	for _, p := range in.Products {
		if !p.Critical() {
			continue
		}
		d.CriticalStockCount++
		if len(d.CriticalProducts) < CriticalProductsShown {
			d.CriticalProducts = append(d.CriticalProducts, p)
		}
	}

	recent := recentItems(in.Sales, in.Items, now.Add(-TopProductsWindow))
	d.TopProducts = ranking.TopN(in.Products,
		ranking.Lookup(ranking.ProductContributions(recent), func(p records.Product) string { return p.ID }),
		limit)
	d.TopCustomers = ranking.TopN(in.Customers,
		ranking.Lookup(ranking.CustomerContributions(in.Sales), func(c records.Customer) string { return c.ID }),
		limit)
	return d
}

// recentItems keeps line items whose sale is dated on or after since.
func recentItems(sales []records.Sale, items []records.SaleLineItem, since time.Time) []records.SaleLineItem {
	cutoff := since.Truncate(24 * time.Hour)
	recentSales := make(map[string]bool, len(sales))
	for _, s := range sales {
		t, err := period.ParseDate(s.Date)
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			recentSales[s.ID] = true
		}
	}
	out := make([]records.SaleLineItem, 0, len(items))
	for _, item := range items {
		if recentSales[item.SaleID] {
			out = append(out, item)
		}
	}
	return out
}
