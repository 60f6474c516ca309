package records

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func seedSales(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	sales := []Sale{
		{ID: "s1", Date: "2025-01-10", TotalAmount: decimal.NewFromInt(100), Status: SaleCollected, CustomerID: strPtr("c1")},
		{ID: "s2", Date: "2025-01-20", TotalAmount: decimal.NewFromInt(50), Status: SalePending},
		{ID: "s3", Date: "2025-02-05", TotalAmount: decimal.NewFromInt(200), Status: SaleCollected, CustomerID: strPtr("c2")},
	}
	for i := range sales {
		_, err := store.Insert(ctx, Sales, &sales[i])
		require.NoError(t, err)
	}
}

func TestMemoryStoreFetchFiltersAndOrders(t *testing.T) {
	store := NewMemoryStore()
	seedSales(t, store)
	ctx := context.Background()

	got, err := FetchAll[Sale](ctx, store, Sales, Query{}.
		Where("date", OpGte, "2025-01-15").
		OrderBy("total_amount", true))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s3", got[0].ID)
	assert.Equal(t, "s2", got[1].ID)

	collected, err := FetchAll[Sale](ctx, store, Sales, Query{}.Where("status", OpEq, SaleCollected))
	require.NoError(t, err)
	assert.Len(t, collected, 2)

	withCustomer, err := FetchAll[Sale](ctx, store, Sales, Query{}.Where("customer_id", OpNotNull, nil))
	require.NoError(t, err)
	assert.Len(t, withCustomer, 2)

	in, err := FetchAll[Sale](ctx, store, Sales, Query{}.Where("id", OpIn, []string{"s1", "s3", "zz"}))
	require.NoError(t, err)
	assert.Len(t, in, 2)

	limited, err := FetchAll[Sale](ctx, store, Sales, Query{}.OrderBy("date", false).Take(1))
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "s1", limited[0].ID)
}

func TestMemoryStoreNumericComparisons(t *testing.T) {
	store := NewMemoryStore()
	seedSales(t, store)

	n, err := store.Count(context.Background(), Sales, Query{}.Where("total_amount", OpGt, 75))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryStoreInsertGeneratesID(t *testing.T) {
	store := NewMemoryStore()
	product := Product{Name: "Widget", CurrentStock: 3, MinimumStock: 5}

	id, err := store.Insert(context.Background(), Products, &product)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, product.ID)

	_, err = store.Insert(context.Background(), Products, product)
	assert.Error(t, err)
}

func TestMemoryStoreUpdateAndDelete(t *testing.T) {
	store := NewMemoryStore()
	seedSales(t, store)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, Sales, "s2", map[string]any{
		"status":          SaleCollected,
		"collection_date": "2025-01-25",
		"total_amount":    "75.50",
	}))
	got, err := FetchAll[Sale](ctx, store, Sales, Query{}.Where("id", OpEq, "s2"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, SaleCollected, got[0].Status)
	require.NotNil(t, got[0].CollectionDate)
	assert.Equal(t, "2025-01-25", *got[0].CollectionDate)
	assert.True(t, got[0].TotalAmount.Equal(decimal.RequireFromString("75.50")))

	err = store.Update(ctx, Sales, "missing", map[string]any{"status": SalePending})
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Update(ctx, Sales, "s2", map[string]any{"nope": 1})
	assert.ErrorIs(t, err, ErrInvalidField)

	require.NoError(t, store.Delete(ctx, Sales, "s1"))
	assert.ErrorIs(t, store.Delete(ctx, Sales, "s1"), ErrNotFound)

	n, err := store.Count(ctx, Sales, Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryStoreRejectsBadInput(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wrong []Expense
	assert.ErrorIs(t, store.Fetch(ctx, Sales, Query{}, &wrong), ErrTypeMismatch)
	assert.ErrorIs(t, store.Fetch(ctx, Collection("ledger"), Query{}, &wrong), ErrUnknownCollection)

	var sales []Sale
	err := store.Fetch(ctx, Sales, Query{}.Where("drop table", OpEq, 1), &sales)
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = store.Insert(ctx, Sales, Expense{})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestObserveRunsHookAfterWrites(t *testing.T) {
	var touched []Collection
	store := Observe(NewMemoryStore(), func(_ context.Context, c Collection) {
		touched = append(touched, c)
	})
	ctx := context.Background()

	id, err := store.Insert(ctx, Budgets, &Budget{Year: 2025, Month: 3})
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, Budgets, id, map[string]any{"sales_target": 10}))
	require.Error(t, store.Delete(ctx, Budgets, "missing"))
	require.NoError(t, store.Delete(ctx, Budgets, id))

	var budgets []Budget
	require.NoError(t, store.Fetch(ctx, Budgets, Query{}, &budgets))
	assert.Equal(t, []Collection{Budgets, Budgets, Budgets}, touched)
}
