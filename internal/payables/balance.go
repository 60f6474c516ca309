// Package payables tracks what the business owes its suppliers.
package payables

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/records"
)

var (
	ErrSupplierNotFound = errors.New("payables: supplier not found")
	ErrPurchaseNotFound = errors.New("payables: purchase not found")
	ErrInvalidInput     = errors.New("payables: invalid input")
	ErrSupplierInUse    = errors.New("payables: supplier has ledger entries")
)

// Balance is the running position with one supplier.
type Balance struct {
	Supplier      records.Supplier `json:"supplier"`
	Purchased     decimal.Decimal  `json:"purchased"`
	Paid          decimal.Decimal  `json:"paid"`
	Outstanding   decimal.Decimal  `json:"outstanding"`
	PendingAmount decimal.Decimal  `json:"pending_amount"`
	OverdueCount  int              `json:"overdue_count"`
}

// Balances folds purchases and payments into one balance per supplier,
// largest outstanding first. Outstanding never drops below zero. Records
// of unknown suppliers are ignored.
func Balances(suppliers []records.Supplier, purchases []records.SupplierPurchase, payments []records.SupplierPayment) []Balance {
	index := make(map[string]*Balance, len(suppliers))
	out := make([]Balance, len(suppliers))
	for i, s := range suppliers {
		out[i] = Balance{Supplier: s}
		index[s.ID] = &out[i]
	}
	for _, p := range purchases {
		b, ok := index[p.SupplierID]
		if !ok {
			continue
		}
		b.Purchased = b.Purchased.Add(p.TotalAmount)
		switch p.Status {
		case records.PurchaseOverdue:
			b.OverdueCount++
			b.PendingAmount = b.PendingAmount.Add(p.TotalAmount)
		case records.PurchasePending:
			b.PendingAmount = b.PendingAmount.Add(p.TotalAmount)
		}
	}
	for _, p := range payments {
		if b, ok := index[p.SupplierID]; ok {
			b.Paid = b.Paid.Add(p.Amount)
		}
	}
	for i := range out {
		out[i].Outstanding = decimal.Max(out[i].Purchased.Sub(out[i].Paid), decimal.Zero)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Outstanding.Cmp(out[j].Outstanding); c != 0 {
			return c > 0
		}
		return out[i].Supplier.Name < out[j].Supplier.Name
	})
	return out
}

// TotalOutstanding sums the outstanding amount across balances.
func TotalOutstanding(balances []Balance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Outstanding)
	}
	return total
}
