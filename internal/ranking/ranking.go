// Package ranking reduces entity lists to their top contributors.
package ranking

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/records"
)

// DefaultLimit is used when a caller asks for a non-positive N.
const DefaultLimit = 5

// Contribution is what an entity brought in: an amount and the number of
// transactions (or units) behind it.
type Contribution struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Add accumulates another contribution.
func (c Contribution) Add(other Contribution) Contribution {
	return Contribution{Amount: c.Amount.Add(other.Amount), Count: c.Count + other.Count}
}

// Ranked pairs an entity with its contribution.
type Ranked[E any] struct {
	Entity E               `json:"entity"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// TopN returns at most n entities ordered by descending amount. Entities
// whose amount is not positive are dropped and ties keep input order.
func TopN[E any](entities []E, contribute func(E) Contribution, n int) []Ranked[E] {
	if n <= 0 {
		n = DefaultLimit
	}
	ranked := make([]Ranked[E], 0, len(entities))
	for _, e := range entities {
		c := contribute(e)
		if !c.Amount.IsPositive() {
			continue
		}
		ranked = append(ranked, Ranked[E]{Entity: e, Amount: c.Amount, Count: c.Count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount.GreaterThan(ranked[j].Amount)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ProductContributions sums revenue and units sold per product.
func ProductContributions(items []records.SaleLineItem) map[string]Contribution {
	out := make(map[string]Contribution)
	for _, item := range items {
		out[item.ProductID] = out[item.ProductID].Add(Contribution{Amount: item.Subtotal(), Count: item.Quantity})
	}
	return out
}

// CustomerContributions sums revenue and order count per customer. Sales
// without a customer are ignored.
func CustomerContributions(sales []records.Sale) map[string]Contribution {
	out := make(map[string]Contribution)
	for _, sale := range sales {
		if sale.CustomerID == nil || *sale.CustomerID == "" {
			continue
		}
		id := *sale.CustomerID
		out[id] = out[id].Add(Contribution{Amount: sale.TotalAmount, Count: 1})
	}
	return out
}

// Lookup adapts a contribution map to the extractor TopN expects.
func Lookup[E any](contributions map[string]Contribution, id func(E) string) func(E) Contribution {
	return func(e E) Contribution {
		return contributions[id(e)]
	}
}
