package tax

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/records"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildMonthlyReports(t *testing.T) {
	sales := []records.Sale{
		{ID: "s1", Date: "2024-01-05", TotalAmount: dec("121"), Tax: dec("21")},
		{ID: "s2", Date: "2024-01-20", TotalAmount: dec("242"), Tax: dec("42")},
		{ID: "s3", Date: "2024-02-02", TotalAmount: dec("100"), Tax: dec("0")},
		{ID: "bad", Date: "not-a-date", TotalAmount: dec("999"), Tax: dec("99")},
	}
	expenses := []records.Expense{
		{ID: "e1", Date: "2024-01-10", Amount: dec("100")},
		{ID: "e2", Date: "2023-12-31", Amount: dec("50")},
	}

	reports := BuildMonthlyReports(sales, expenses, decimal.NewFromFloat(DefaultVATRate), nil)
	require.Len(t, reports, 3)
	assert.Equal(t, []string{"2024-02", "2024-01", "2023-12"}, []string{reports[0].Period, reports[1].Period, reports[2].Period})

	jan := reports[1]
	assert.True(t, jan.SalesTotal.Equal(dec("363")))
	assert.True(t, jan.SalesVAT.Equal(dec("63")))
	assert.True(t, jan.PurchasesTotal.Equal(dec("100")))
	assert.True(t, jan.PurchasesVAT.Equal(dec("21")))
	assert.True(t, jan.NetVAT.Equal(dec("42")))
	assert.True(t, jan.NetBalance.Equal(dec("263")))

	dec23 := reports[2]
	assert.True(t, dec23.SalesTotal.IsZero())
	assert.True(t, dec23.NetVAT.Equal(dec("-10.5")))
	assert.True(t, dec23.NetBalance.Equal(dec("-50")))
}

func TestBuildMonthlyReportsEmpty(t *testing.T) {
	reports := BuildMonthlyReports(nil, nil, decimal.NewFromFloat(DefaultVATRate), nil)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestUpcomingAndOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)
	deadlines := []records.TaxDeadline{
		{ID: "late", DueDate: "2024-03-09"},
		{ID: "today", DueDate: "2024-03-10"},
		{ID: "edge", DueDate: "2024-03-17"},
		{ID: "far", DueDate: "2024-03-18"},
		{ID: "done", DueDate: "2024-03-01", Completed: true},
		{ID: "soon", DueDate: "2024-03-12"},
		{ID: "broken", DueDate: "someday"},
	}

	upcoming := Upcoming(deadlines, now, 7*24*time.Hour)
	assert.Equal(t, []string{"today", "soon", "edge"}, ids(upcoming))

	overdue := Overdue(deadlines, now)
	assert.Equal(t, []string{"late"}, ids(overdue))
}

func ids(ds []records.TaxDeadline) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}
