package variance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/records"
)

var now = time.Date(2024, time.March, 12, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, records.Store) {
	t.Helper()
	store := records.NewMemoryStore()
	clock := func() time.Time { return now }
	an := analytics.NewService(store, nil, nil, analytics.Options{Now: clock})
	return NewService(store, an, nil, Options{AlertThreshold: DefaultAlertThreshold, Months: 3, Now: clock}), store
}

func TestBudgetLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.CreateBudget(ctx, BudgetInput{Year: 2024, Month: 1, ExpectedRevenue: dec("200"), ExpectedExpense: dec("50")})
	require.NoError(t, err)
	require.NotEmpty(t, b.ID)

	_, err = svc.CreateBudget(ctx, BudgetInput{Year: 2024, Month: 1})
	assert.ErrorIs(t, err, ErrBudgetExists)

	_, err = svc.CreateBudget(ctx, BudgetInput{Year: 2024, Month: 13})
	assert.ErrorIs(t, err, ErrInvalidInput)

	other, err := svc.CreateBudget(ctx, BudgetInput{Year: 2024, Month: 2})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.UpdateBudget(ctx, other.ID, BudgetInput{Year: 2024, Month: 1}), ErrBudgetExists)

	require.NoError(t, svc.UpdateBudget(ctx, b.ID, BudgetInput{Year: 2024, Month: 1, ExpectedRevenue: dec("300"), ExpectedExpense: dec("50")}))
	assert.ErrorIs(t, svc.UpdateBudget(ctx, "missing", BudgetInput{Year: 2023, Month: 1}), ErrBudgetNotFound)

	list, err := svc.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Month)
	assert.True(t, list[1].ExpectedRevenue.Equal(dec("300")))

	require.NoError(t, svc.DeleteBudget(ctx, other.ID))
	assert.ErrorIs(t, svc.DeleteBudget(ctx, other.ID), ErrBudgetNotFound)
}

func TestServiceCompare(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for _, in := range []BudgetInput{
		{Year: 2024, Month: 1, ExpectedRevenue: dec("200"), ExpectedExpense: dec("50")},
		{Year: 2024, Month: 2, ExpectedRevenue: dec("100"), ExpectedExpense: dec("80")},
		{Year: 2023, Month: 6, ExpectedRevenue: dec("999"), ExpectedExpense: dec("0")},
	} {
		_, err := svc.CreateBudget(ctx, in)
		require.NoError(t, err)
	}
	for _, s := range []records.Sale{
		{Date: "2024-01-05", TotalAmount: dec("100"), Status: records.SaleCollected},
		{Date: "2024-01-20", TotalAmount: dec("50"), Status: records.SalePending},
		{Date: "2024-02-11", TotalAmount: dec("10"), Status: records.SalePending},
	} {
		_, err := store.Insert(ctx, records.Sales, s)
		require.NoError(t, err)
	}
	_, err := store.Insert(ctx, records.Expenses, records.Expense{Date: "2024-01-10", Amount: dec("30")})
	require.NoError(t, err)

	report, err := svc.Compare(ctx, ComparisonFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2024-01", report.From)
	assert.Equal(t, "2024-03", report.To)
	require.Len(t, report.Comparisons, 2)
	assert.Equal(t, "2024-02", report.Comparisons[0].Period)
	assert.True(t, report.Comparisons[1].Deviation.Percentage.Equal(dec("-20")))

	// February: planned 20, actual 10 => -50%.
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, "2024-02", report.Alerts[0].Period)
	assert.Equal(t, AlertBelow, report.Alerts[0].Kind)

	_, err = svc.Compare(ctx, ComparisonFilter{From: "2024-04", To: "2024-01"})
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
}

func TestNewServiceThreshold(t *testing.T) {
	store := records.NewMemoryStore()
	assert.Equal(t, 0.0, NewService(store, nil, nil, Options{AlertThreshold: 0}).Threshold())
	assert.Equal(t, DefaultAlertThreshold, NewService(store, nil, nil, Options{AlertThreshold: -1}).Threshold())
	assert.Equal(t, 12.5, NewService(store, nil, nil, Options{AlertThreshold: 12.5}).Threshold())
}
