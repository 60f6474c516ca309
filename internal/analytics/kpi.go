package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// Thresholds behind the optimisation suggestions.
const (
	SlowCollectionDays = 30
	LowLiquidityPct    = 20
	KPIWindow          = 30 * 24 * time.Hour
)

// HighReceivables is the pending-collection amount that triggers a suggestion.
var HighReceivables = decimal.NewFromInt(50000)

// FinanceInput is the snapshot the financial KPIs are computed from.
type FinanceInput struct {
	Sales     []records.Sale
	Expenses  []records.Expense
	Purchases []records.SupplierPurchase
}

// FinancialKPIs summarises liquidity and working capital.
type FinancialKPIs struct {
	WindowStart        string          `json:"window_start"`
	AvgCollectionDays  int             `json:"avg_collection_days"`
	AvgPaymentDays     int             `json:"avg_payment_days"`
	LiquidityPct       float64         `json:"liquidity_pct"`
	CollectedCount     int             `json:"collected_count"`
	ReceivablesPending decimal.Decimal `json:"receivables_pending"`
	PayablesPending    decimal.Decimal `json:"payables_pending"`
	Suggestions        []Suggestion    `json:"suggestions"`
	Warnings           []string        `json:"warnings,omitempty"`
}

// Partial reports whether some inputs failed to load.
func (k FinancialKPIs) Partial() bool { return len(k.Warnings) > 0 }

// SuggestionLevel grades a suggestion.
type SuggestionLevel string

const (
	LevelInfo    SuggestionLevel = "info"
	LevelWarning SuggestionLevel = "warning"
	LevelDanger  SuggestionLevel = "danger"
)

// Suggestion is an actionable hint derived from the KPIs.
type Suggestion struct {
	Level   SuggestionLevel `json:"level"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
}

// BuildFinancialKPIs computes the KPIs over sales and expenses dated in the
// KPIWindow before now. Supplier payment days and payables use every
// purchase regardless of date.
func BuildFinancialKPIs(in FinanceInput, now time.Time) FinancialKPIs {
	since := now.Add(-KPIWindow).Truncate(24 * time.Hour)
	k := FinancialKPIs{
		WindowStart:        since.Format(time.DateOnly),
		ReceivablesPending: decimal.Zero,
		PayablesPending:    decimal.Zero,
	}

	income, spent := decimal.Zero, decimal.Zero
	var collectionDays float64
	for _, s := range in.Sales {
		issued, err := period.ParseDate(s.Date)
		if err != nil || issued.Before(since) {
			continue
		}
		income = income.Add(s.TotalAmount)
		if s.Status == records.SalePending {
			k.ReceivablesPending = k.ReceivablesPending.Add(s.TotalAmount)
		}
		if days, ok := daysBetween(issued, s.CollectionDate); ok {
			collectionDays += days
			k.CollectedCount++
		}
	}
	if k.CollectedCount > 0 {
		k.AvgCollectionDays = int(math.Round(collectionDays / float64(k.CollectedCount)))
	}

	for _, e := range in.Expenses {
		spentOn, err := period.ParseDate(e.Date)
		if err != nil || spentOn.Before(since) {
			continue
		}
		spent = spent.Add(e.Amount)
	}
	if income.IsPositive() {
		k.LiquidityPct = income.Sub(spent).Div(income).Mul(hundred).InexactFloat64()
	}

	var paymentDays float64
	var paid int
	for _, p := range in.Purchases {
		if p.Status == records.PurchasePending || p.Status == records.PurchaseOverdue {
			k.PayablesPending = k.PayablesPending.Add(p.TotalAmount)
		}
		issued, err := period.ParseDate(p.Date)
		if err != nil {
			continue
		}
		if days, ok := daysBetween(issued, p.PaymentDate); ok {
			paymentDays += days
			paid++
		}
	}
	if paid > 0 {
		k.AvgPaymentDays = int(math.Round(paymentDays / float64(paid)))
	}

	k.Suggestions = Suggestions(k)
	return k
}

func daysBetween(from time.Time, to *string) (float64, bool) {
	if to == nil || *to == "" {
		return 0, false
	}
	end, err := period.ParseDate(*to)
	if err != nil {
		return 0, false
	}
	return end.Sub(from).Hours() / 24, true
}

// Suggestions derives hints from the KPIs. The result is never nil.
func Suggestions(k FinancialKPIs) []Suggestion {
	p := message.NewPrinter(language.English)
	out := []Suggestion{}
	if k.AvgCollectionDays > SlowCollectionDays {
		out = append(out, Suggestion{
			Level:   LevelWarning,
			Title:   "Reduce collection days",
			Message: p.Sprintf("Customers pay in %d days on average. Consider early payment discounts.", k.AvgCollectionDays),
		})
	}
	if k.LiquidityPct < LowLiquidityPct {
		out = append(out, Suggestion{
			Level:   LevelDanger,
			Title:   "Improve liquidity",
			Message: p.Sprintf("Liquidity is %.1f%%. Review non-essential expenses and speed up collections.", k.LiquidityPct),
		})
	}
	if k.ReceivablesPending.GreaterThan(HighReceivables) {
		out = append(out, Suggestion{
			Level:   LevelInfo,
			Title:   "Collections follow-up",
			Message: p.Sprintf("%.2f is pending collection. Schedule automatic reminders.", k.ReceivablesPending.InexactFloat64()),
		})
	}
	return out
}
