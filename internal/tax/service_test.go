package tax

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/records"
)

var now = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, records.Store) {
	t.Helper()
	store := records.NewMemoryStore()
	return NewService(store, nil, Options{VATRate: DefaultVATRate, Months: 3, Now: func() time.Time { return now }}), store
}

// brokenStore fails every fetch of the listed collections.
type brokenStore struct {
	records.Store
	broken map[records.Collection]bool
}

func (s brokenStore) Fetch(ctx context.Context, c records.Collection, q records.Query, dest any) error {
	if s.broken[c] {
		return errors.New("boom")
	}
	return s.Store.Fetch(ctx, c, q, dest)
}

func TestNewServiceRate(t *testing.T) {
	store := records.NewMemoryStore()
	assert.True(t, NewService(store, nil, Options{VATRate: 0}).Rate().IsZero())
	assert.True(t, NewService(store, nil, Options{VATRate: -1}).Rate().Equal(dec("0.21")))
	assert.True(t, NewService(store, nil, Options{VATRate: 0.1}).Rate().Equal(dec("0.1")))
}

func TestZeroRateEstimatesNoPurchaseVAT(t *testing.T) {
	store := records.NewMemoryStore()
	ctx := context.Background()
	_, err := store.Insert(ctx, records.Expenses, &records.Expense{Date: "2024-03-02", Amount: dec("200")})
	require.NoError(t, err)
	svc := NewService(store, nil, Options{VATRate: 0, Months: 3, Now: func() time.Time { return now }})

	report, err := svc.Report(ctx, "2024-03")
	require.NoError(t, err)
	assert.True(t, report.PurchasesVAT.IsZero())
	assert.True(t, report.PurchasesTotal.Equal(dec("200")))
}

func TestReportsDegradeOnFetchFailure(t *testing.T) {
	mem := records.NewMemoryStore()
	ctx := context.Background()
	_, err := mem.Insert(ctx, records.Sales, &records.Sale{Date: "2024-03-01", TotalAmount: dec("242"), Tax: dec("42")})
	require.NoError(t, err)
	_, err = mem.Insert(ctx, records.Expenses, &records.Expense{Date: "2024-03-02", Amount: dec("200")})
	require.NoError(t, err)
	store := brokenStore{Store: mem, broken: map[records.Collection]bool{records.Expenses: true}}
	svc := NewService(store, nil, Options{VATRate: DefaultVATRate, Months: 3, Now: func() time.Time { return now }})

	set, err := svc.Reports(ctx)
	require.NoError(t, err)
	require.Len(t, set.Reports, 1)
	assert.True(t, set.Reports[0].SalesVAT.Equal(dec("42")))
	assert.True(t, set.Reports[0].PurchasesTotal.IsZero())
	assert.Equal(t, []string{"expenses unavailable"}, set.Warnings)

	march, err := svc.Report(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"expenses unavailable"}, march.Warnings)
}

func TestReportsFailWhenCancelled(t *testing.T) {
	store := brokenStore{Store: records.NewMemoryStore(), broken: map[records.Collection]bool{records.Sales: true}}
	svc := NewService(store, nil, Options{Months: 3, Now: func() time.Time { return now }})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Reports(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportsWindow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	for _, s := range []records.Sale{
		{Date: "2023-12-31", TotalAmount: dec("500"), Tax: dec("50")},
		{Date: "2024-01-15", TotalAmount: dec("121"), Tax: dec("21")},
		{Date: "2024-03-01", TotalAmount: dec("242"), Tax: dec("42")},
	} {
		s := s
		_, err := store.Insert(ctx, records.Sales, &s)
		require.NoError(t, err)
	}
	_, err := store.Insert(ctx, records.Expenses, &records.Expense{Date: "2024-03-02", Amount: dec("200")})
	require.NoError(t, err)

	set, err := svc.Reports(ctx)
	require.NoError(t, err)
	assert.Empty(t, set.Warnings)
	reports := set.Reports
	require.Len(t, reports, 2)
	assert.Equal(t, "2024-03", reports[0].Period)
	assert.True(t, reports[0].NetVAT.Equal(dec("0")))
	assert.Equal(t, "2024-01", reports[1].Period)

	jan, err := svc.Report(ctx, "2024-01")
	require.NoError(t, err)
	assert.True(t, jan.SalesVAT.Equal(dec("21")))

	_, err = svc.Report(ctx, "2024-02")
	assert.ErrorIs(t, err, ErrReportNotFound)
	_, err = svc.Report(ctx, "2024-13")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeadlineLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDeadline(ctx, DeadlineInput{Name: "VAT", Kind: "weekly", DueDate: "2024-03-20"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateDeadline(ctx, DeadlineInput{Name: "VAT", Kind: records.RecurrenceMonthly, DueDate: "20/03/2024"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateDeadline(ctx, DeadlineInput{Name: "VAT", Kind: records.RecurrenceMonthly, DueDate: "2024-03-20", EstimatedAmount: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	soon, err := svc.CreateDeadline(ctx, DeadlineInput{Name: "VAT March", Kind: records.RecurrenceMonthly, DueDate: "2024-03-15", EstimatedAmount: dec("420")})
	require.NoError(t, err)
	late, err := svc.CreateDeadline(ctx, DeadlineInput{Name: "Income Q4", Kind: records.RecurrenceQuarterly, DueDate: "2024-03-01"})
	require.NoError(t, err)
	_, err = svc.CreateDeadline(ctx, DeadlineInput{Name: "Annual", Kind: records.RecurrenceAnnual, DueDate: "2024-06-30"})
	require.NoError(t, err)

	list, err := svc.ListDeadlines(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, late.ID, list[0].ID)

	reminder, err := svc.DueSoon(ctx, 7)
	require.NoError(t, err)
	require.Len(t, reminder.Upcoming, 1)
	assert.Equal(t, soon.ID, reminder.Upcoming[0].ID)
	require.Len(t, reminder.Overdue, 1)
	assert.Equal(t, late.ID, reminder.Overdue[0].ID)

	require.NoError(t, svc.CompleteDeadline(ctx, late.ID))
	assert.ErrorIs(t, svc.CompleteDeadline(ctx, "missing"), ErrDeadlineNotFound)

	list, err = svc.ListDeadlines(ctx)
	require.NoError(t, err)
	assert.True(t, list[0].Completed)
	require.NotNil(t, list[0].CompletedDate)
	assert.Equal(t, "2024-03-10", *list[0].CompletedDate)

	reminder, err = svc.DueSoon(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, reminder.Overdue)
	assert.False(t, reminder.Empty())
}
