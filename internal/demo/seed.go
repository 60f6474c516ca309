// Package demo fills a record store with a reproducible small-business
// history so the dashboard has something to show.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/records"
)

// Options controls the generated history.
type Options struct {
	// Months of sales and expenses ending with the current month. Defaults to 12.
	Months int
	// Seed makes the output reproducible.
	Seed uint64
	Now  func() time.Time
}

// Counts reports how many records were inserted per collection.
type Counts map[records.Collection]int

type seeder struct {
	store  records.Store
	rng    *rand.Rand
	now    time.Time
	counts Counts
}

var (
	customerNames = []string{"Ana Ruiz", "Blue Harbor Cafe", "Carlos Vega", "Delta Studio", "Elena Ortiz", "Fenwick & Co", "Gaia Market", "Hugo Prats"}
	productNames  = []struct {
		name, category string
		cost, price    int64
	}{
		{"Espresso beans 1kg", "coffee", 12, 22},
		{"Ceramic mug", "merch", 3, 9},
		{"Cold brew bottle", "coffee", 2, 5},
		{"Grinder", "equipment", 60, 120},
		{"Filter papers", "supplies", 1, 4},
		{"Gift card", "merch", 0, 25},
	}
	supplierNames    = []string{"Roastery Norte", "PackRight Ltd", "Utility Power"}
	expenseCategory  = []string{"rent", "utilities", "marketing", "payroll"}
	interactionKinds = []string{"call", "email", "meeting"}
)

// Seed inserts the demo history through store.
func Seed(ctx context.Context, store records.Store, opts Options, logger *slog.Logger) (Counts, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Months <= 0 {
		opts.Months = 12
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &seeder{
		store:  store,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		now:    opts.Now().UTC(),
		counts: Counts{},
	}
	customers, err := s.customers(ctx)
	if err != nil {
		return s.counts, err
	}
	products, err := s.products(ctx)
	if err != nil {
		return s.counts, err
	}
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return s.sales(ctx, opts.Months, customers, products) },
		func(ctx context.Context) error { return s.expenses(ctx, opts.Months) },
		s.suppliers,
		func(ctx context.Context) error { return s.budgets(ctx, opts.Months) },
		s.deadlines,
		func(ctx context.Context) error { return s.crm(ctx, customers) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return s.counts, err
		}
	}
	logger.Info("demo data seeded", slog.Any("counts", s.counts))
	return s.counts, nil
}

func (s *seeder) insert(ctx context.Context, c records.Collection, record any) error {
	if _, err := s.store.Insert(ctx, c, record); err != nil {
		return fmt.Errorf("demo: seed %s: %w", c, err)
	}
	s.counts[c]++
	return nil
}

func (s *seeder) date(t time.Time) string { return t.Format(time.DateOnly) }

func (s *seeder) money(min, max int64) decimal.Decimal {
	return decimal.NewFromInt(min + s.rng.Int64N(max-min+1))
}

func (s *seeder) customers(ctx context.Context) ([]records.Customer, error) {
	out := make([]records.Customer, 0, len(customerNames))
	for i, name := range customerNames {
		status := records.CustomerActive
		switch {
		case i%4 == 3:
			status = records.CustomerProspect
		case i == len(customerNames)-1:
			status = records.CustomerInactive
		}
		c := records.Customer{Name: name, Email: fmt.Sprintf("contact%d@example.com", i+1), Status: status}
		if err := s.insert(ctx, records.Customers, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *seeder) products(ctx context.Context) ([]records.Product, error) {
	out := make([]records.Product, 0, len(productNames))
	for i, p := range productNames {
		prod := records.Product{
			Name:         p.name,
			Category:     p.category,
			Cost:         decimal.NewFromInt(p.cost),
			Price:        decimal.NewFromInt(p.price),
			CurrentStock: 5 + s.rng.IntN(60),
			MinimumStock: 10,
		}
		if i == 3 {
			prod.CurrentStock = 2
		}
		if err := s.insert(ctx, records.Products, &prod); err != nil {
			return nil, err
		}
		out = append(out, prod)
	}
	return out, nil
}

func (s *seeder) monthStart(offset int) time.Time {
	return time.Date(s.now.Year(), s.now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -offset, 0)
}

func (s *seeder) sales(ctx context.Context, months int, customers []records.Customer, products []records.Product) error {
	for m := months - 1; m >= 0; m-- {
		start := s.monthStart(m)
		days := 28
		if m == 0 {
			days = s.now.Day()
		}
		for n := 0; n < 6+s.rng.IntN(6); n++ {
			day := start.AddDate(0, 0, s.rng.IntN(days))
			sale := records.Sale{Date: s.date(day), PaymentMethod: "card", Status: records.SaleCollected}
			if s.rng.IntN(5) > 0 {
				id := customers[s.rng.IntN(len(customers))].ID
				sale.CustomerID = &id
			}
			var items []records.SaleLineItem
			total := decimal.Zero
			for k := 0; k < 1+s.rng.IntN(3); k++ {
				p := products[s.rng.IntN(len(products))]
				item := records.SaleLineItem{ProductID: p.ID, Quantity: 1 + s.rng.IntN(4), UnitPrice: p.Price}
				items = append(items, item)
				total = total.Add(item.Subtotal())
			}
			sale.TotalAmount = total
			sale.Tax = total.Mul(decimal.NewFromFloat(0.21)).Round(2)
			if m == 0 && s.rng.IntN(3) == 0 {
				sale.Status = records.SalePending
			} else {
				when := day.AddDate(0, 0, s.rng.IntN(20))
				if when.After(s.now) {
					when = s.now
				}
				collected := s.date(when)
				sale.CollectionDate = &collected
			}
			if err := s.insert(ctx, records.Sales, &sale); err != nil {
				return err
			}
			for _, item := range items {
				item.SaleID = sale.ID
				if err := s.insert(ctx, records.SaleItems, &item); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *seeder) expenses(ctx context.Context, months int) error {
	for m := months - 1; m >= 0; m-- {
		start := s.monthStart(m)
		for i, category := range expenseCategory {
			day := start.AddDate(0, 0, 3+i*5)
			if day.After(s.now) {
				continue
			}
			e := records.Expense{
				Date:           s.date(day),
				SupplierName:   supplierNames[i%len(supplierNames)],
				Category:       category,
				FiscalCategory: "deductible",
				Amount:         s.money(80, 600),
			}
			if err := s.insert(ctx, records.Expenses, &e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) suppliers(ctx context.Context) error {
	for i, name := range supplierNames {
		sup := records.Supplier{Name: name, TaxID: fmt.Sprintf("B%08d", 10000000+i)}
		if err := s.insert(ctx, records.Suppliers, &sup); err != nil {
			return err
		}
		for m := 2; m >= 0; m-- {
			p := records.SupplierPurchase{
				SupplierID:  sup.ID,
				Date:        s.date(s.monthStart(m).AddDate(0, 0, 2)),
				TotalAmount: s.money(200, 900),
				Status:      records.PurchasePending,
				Description: "monthly order",
			}
			switch m {
			case 2:
				p.Status = records.PurchasePaid
				paid := s.date(s.monthStart(m).AddDate(0, 0, 20))
				p.PaymentDate = &paid
			case 1:
				p.Status = records.PurchaseOverdue
			}
			if err := s.insert(ctx, records.SupplierPurchases, &p); err != nil {
				return err
			}
			if p.Status == records.PurchasePaid {
				pay := records.SupplierPayment{SupplierID: sup.ID, Date: *p.PaymentDate, Amount: p.TotalAmount, Method: "transfer"}
				if err := s.insert(ctx, records.SupplierPayments, &pay); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *seeder) budgets(ctx context.Context, months int) error {
	for m := min(months, 6) - 1; m >= 0; m-- {
		start := s.monthStart(m)
		b := records.Budget{
			Year:            start.Year(),
			Month:           int(start.Month()),
			ExpectedRevenue: s.money(900, 1600),
			ExpectedExpense: s.money(900, 1400),
			SalesTarget:     8,
		}
		if err := s.insert(ctx, records.Budgets, &b); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) deadlines(ctx context.Context) error {
	list := []records.TaxDeadline{
		{Name: "Quarterly VAT return", Kind: records.RecurrenceQuarterly, DueDate: s.date(s.now.AddDate(0, 0, 5)), EstimatedAmount: s.money(300, 900)},
		{Name: "Withholding filing", Kind: records.RecurrenceMonthly, DueDate: s.date(s.now.AddDate(0, 0, -3)), EstimatedAmount: s.money(50, 200)},
		{Name: "Annual income tax", Kind: records.RecurrenceAnnual, DueDate: s.date(s.now.AddDate(0, 3, 0)), EstimatedAmount: s.money(1000, 3000)},
	}
	for i := range list {
		if err := s.insert(ctx, records.TaxDeadlines, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) crm(ctx context.Context, customers []records.Customer) error {
	for i, c := range customers {
		stage := records.PipelineStages[i%len(records.PipelineStages)]
		stageDate := s.date(s.now.AddDate(0, 0, -i))
		entry := records.PipelineEntry{
			CustomerID:     c.ID,
			Stage:          stage,
			EstimatedValue: s.money(500, 5000),
			Probability:    []int{20, 60, 100, 0}[i%4],
			StageDate:      &stageDate,
		}
		if err := s.insert(ctx, records.Pipeline, &entry); err != nil {
			return err
		}
		it := records.Interaction{
			CustomerID: c.ID,
			Kind:       interactionKinds[i%len(interactionKinds)],
			Title:      "Check-in with " + c.Name,
			Date:       s.date(s.now.AddDate(0, 0, -2*i)),
		}
		if err := s.insert(ctx, records.Interactions, &it); err != nil {
			return err
		}
		if i%2 == 0 {
			id := c.ID
			due := s.date(s.now.AddDate(0, 0, 4-2*i))
			task := records.Task{CustomerID: &id, Title: "Follow up " + c.Name, Kind: "follow_up", DueDate: &due, Priority: records.PriorityMedium}
			if err := s.insert(ctx, records.Tasks, &task); err != nil {
				return err
			}
		}
	}
	return nil
}
