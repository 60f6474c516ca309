package payables

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/records"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBalances(t *testing.T) {
	suppliers := []records.Supplier{{ID: "a", Name: "Acme"}, {ID: "b", Name: "Beta"}, {ID: "c", Name: "Cero"}}
	purchases := []records.SupplierPurchase{
		{SupplierID: "a", TotalAmount: dec("100"), Status: records.PurchasePaid},
		{SupplierID: "a", TotalAmount: dec("50"), Status: records.PurchaseOverdue},
		{SupplierID: "b", TotalAmount: dec("80"), Status: records.PurchasePending},
		{SupplierID: "ghost", TotalAmount: dec("999"), Status: records.PurchasePending},
	}
	payments := []records.SupplierPayment{
		{SupplierID: "a", Amount: dec("100")},
		{SupplierID: "c", Amount: dec("30")},
	}

	balances := Balances(suppliers, purchases, payments)
	require.Len(t, balances, 3)

	assert.Equal(t, "b", balances[0].Supplier.ID)
	assert.True(t, balances[0].Outstanding.Equal(dec("80")))
	assert.True(t, balances[0].PendingAmount.Equal(dec("80")))

	acme := balances[1]
	assert.Equal(t, "a", acme.Supplier.ID)
	assert.True(t, acme.Purchased.Equal(dec("150")))
	assert.True(t, acme.Paid.Equal(dec("100")))
	assert.True(t, acme.Outstanding.Equal(dec("50")))
	assert.True(t, acme.PendingAmount.Equal(dec("50")))
	assert.Equal(t, 1, acme.OverdueCount)

	overpaid := balances[2]
	assert.Equal(t, "c", overpaid.Supplier.ID)
	assert.True(t, overpaid.Outstanding.IsZero())

	assert.True(t, TotalOutstanding(balances).Equal(dec("130")))
}

func TestServiceFlow(t *testing.T) {
	now := time.Date(2024, time.May, 3, 10, 0, 0, 0, time.UTC)
	svc := NewService(records.NewMemoryStore(), nil, func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Acme", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	acme, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Acme", Email: "billing@acme.test"})
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{SupplierID: "nope", Date: "2024-05-01", TotalAmount: dec("10")})
	assert.ErrorIs(t, err, ErrSupplierNotFound)
	_, err = svc.RecordPurchase(ctx, PurchaseInput{SupplierID: acme.ID, Date: "2024-05-01", TotalAmount: dec("0")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	purchase, err := svc.RecordPurchase(ctx, PurchaseInput{SupplierID: acme.ID, Date: "2024-05-01", TotalAmount: dec("200")})
	require.NoError(t, err)
	assert.Equal(t, records.PurchasePending, purchase.Status)
	assert.Nil(t, purchase.PaymentDate)

	assert.ErrorIs(t, svc.SetPurchaseStatus(ctx, purchase.ID, "lost"), ErrInvalidInput)
	assert.ErrorIs(t, svc.SetPurchaseStatus(ctx, "missing", records.PurchasePaid), ErrPurchaseNotFound)
	require.NoError(t, svc.SetPurchaseStatus(ctx, purchase.ID, records.PurchasePaid))

	list, err := svc.Purchases(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, records.PurchasePaid, list[0].Status)
	require.NotNil(t, list[0].PaymentDate)
	assert.Equal(t, "2024-05-03", *list[0].PaymentDate)

	_, err = svc.RecordPayment(ctx, PaymentInput{SupplierID: acme.ID, Date: "2024-05-03", Amount: dec("-5"), Method: "cash"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.RecordPayment(ctx, PaymentInput{SupplierID: acme.ID, Date: "2024-05-03", Amount: dec("150"), Method: "transfer"})
	require.NoError(t, err)

	sheet, err := svc.Balances(ctx)
	require.NoError(t, err)
	assert.Empty(t, sheet.Warnings)
	require.Len(t, sheet.Balances, 1)
	assert.True(t, sheet.Balances[0].Outstanding.Equal(dec("50")))
	assert.True(t, sheet.Balances[0].PendingAmount.IsZero())
	assert.True(t, sheet.TotalOutstanding.Equal(dec("50")))

	payments, err := svc.Payments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestSupplierUpdateAndDelete(t *testing.T) {
	svc := NewService(records.NewMemoryStore(), nil, nil)
	ctx := context.Background()

	acme, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Acme"})
	require.NoError(t, err)
	idle, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Idle"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateSupplier(ctx, acme.ID, SupplierInput{}), ErrInvalidInput)
	assert.ErrorIs(t, svc.UpdateSupplier(ctx, "missing", SupplierInput{Name: "X"}), ErrSupplierNotFound)
	require.NoError(t, svc.UpdateSupplier(ctx, acme.ID, SupplierInput{Name: "Acme Ltd", TaxID: "B123"}))

	suppliers, err := svc.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "Acme Ltd", suppliers[0].Name)
	assert.Equal(t, "B123", suppliers[0].TaxID)

	_, err = svc.RecordPayment(ctx, PaymentInput{SupplierID: acme.ID, Date: "2024-05-03", Amount: dec("10"), Method: "cash"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteSupplier(ctx, acme.ID), ErrSupplierInUse)

	require.NoError(t, svc.DeleteSupplier(ctx, idle.ID))
	assert.ErrorIs(t, svc.DeleteSupplier(ctx, idle.ID), ErrSupplierNotFound)
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

func TestBalancesDegradeOnFetchFailure(t *testing.T) {
	mem := records.NewMemoryStore()
	ctx := context.Background()
	supplier := records.Supplier{Name: "Acme"}
	_, err := mem.Insert(ctx, records.Suppliers, &supplier)
	require.NoError(t, err)
	_, err = mem.Insert(ctx, records.SupplierPurchases, &records.SupplierPurchase{
		SupplierID: supplier.ID, Date: "2024-05-01", TotalAmount: dec("120"), Status: records.PurchasePending,
	})
	require.NoError(t, err)
	_, err = mem.Insert(ctx, records.SupplierPayments, &records.SupplierPayment{SupplierID: supplier.ID, Date: "2024-05-02", Amount: dec("20")})
	require.NoError(t, err)

	svc := NewService(brokenStore{Store: mem, broken: map[records.Collection]bool{records.SupplierPayments: true}}, nil, nil)
	sheet, err := svc.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, sheet.Balances, 1)
	assert.True(t, sheet.Balances[0].Purchased.Equal(dec("120")))
	assert.True(t, sheet.Balances[0].Paid.IsZero())
	assert.Equal(t, []string{"supplier_payments unavailable"}, sheet.Warnings)
}
