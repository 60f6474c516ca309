// Package sales records invoices with their line items and keeps product
// stock in step with what was sold.
package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bizdash/bizdash/internal/records"
)

var (
	ErrSaleNotFound     = errors.New("sales: sale not found")
	ErrProductNotFound  = errors.New("sales: product not found")
	ErrCustomerNotFound = errors.New("sales: customer not found")
	ErrInvalidInput     = errors.New("sales: invalid input")
)

// ItemInput is one product line of a new sale.
type ItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleInput records a sale. When TotalAmount is zero it is derived from
// the items as subtotal minus discount plus tax.
type SaleInput struct {
	Date           string             `json:"date" validate:"required,datetime=2006-01-02"`
	CustomerID     *string            `json:"customer_id"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Discount       decimal.Decimal    `json:"discount"`
	Tax            decimal.Decimal    `json:"tax"`
	PaymentMethod  string             `json:"payment_method" validate:"required,oneof=cash card transfer"`
	Status         records.SaleStatus `json:"status" validate:"omitempty,oneof=collected pending"`
	CollectionDate string             `json:"collection_date" validate:"omitempty,datetime=2006-01-02"`
	Items          []ItemInput        `json:"items" validate:"dive"`
}

// Detail is a sale joined with its lines and customer name.
type Detail struct {
	records.Sale
	CustomerName string                 `json:"customer_name,omitempty"`
	Items        []records.SaleLineItem `json:"items"`
}

// Filter bounds a sale listing. From and To are inclusive dates.
type Filter struct {
	From   string             `validate:"omitempty,datetime=2006-01-02"`
	To     string             `validate:"omitempty,datetime=2006-01-02"`
	Status records.SaleStatus `validate:"omitempty,oneof=collected pending"`
}

// Service records sales.
type Service struct {
	store    records.Store
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds the service.
func NewService(store records.Store, logger *slog.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, validate: validator.New(), logger: logger, now: now}
}

func (s *Service) today() string {
	return s.now().UTC().Format(time.DateOnly)
}

// CreateSale stores the sale and its lines, then lowers the stock of every
// product sold. Stock may go negative; products left at or below their
// minimum are logged.
func (s *Service) CreateSale(ctx context.Context, input SaleInput) (Detail, error) {
	if err := s.validate.Struct(input); err != nil {
		return Detail{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.Discount.IsNegative() || input.Tax.IsNegative() || input.TotalAmount.IsNegative() {
		return Detail{}, fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	for _, item := range input.Items {
		if item.UnitPrice.IsNegative() {
			return Detail{}, fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
		}
	}
	if input.CustomerID != nil && *input.CustomerID == "" {
		input.CustomerID = nil
	}
	customerName, err := s.customerName(ctx, input.CustomerID)
	if err != nil {
		return Detail{}, err
	}
	products, err := s.products(ctx, input.Items)
	if err != nil {
		return Detail{}, err
	}

	sale := records.Sale{
		Date:          input.Date,
		CustomerID:    input.CustomerID,
		TotalAmount:   input.TotalAmount,
		Discount:      input.Discount,
		Tax:           input.Tax,
		PaymentMethod: input.PaymentMethod,
		Status:        input.Status,
	}
	if sale.TotalAmount.IsZero() {
		sale.TotalAmount = Total(input.Items, input.Discount, input.Tax)
	}
	if !sale.TotalAmount.IsPositive() {
		return Detail{}, fmt.Errorf("%w: total amount must be positive", ErrInvalidInput)
	}
	if sale.Status == "" {
		sale.Status = records.SalePending
	}
	if sale.Status == records.SaleCollected {
		collected := input.CollectionDate
		if collected == "" {
			collected = s.today()
		}
		sale.CollectionDate = &collected
	}
	if _, err := s.store.Insert(ctx, records.Sales, &sale); err != nil {
		return Detail{}, fmt.Errorf("create sale: %w", err)
	}

	detail := Detail{Sale: sale, CustomerName: customerName, Items: make([]records.SaleLineItem, 0, len(input.Items))}
	sold := make(map[string]int, len(input.Items))
	for _, in := range input.Items {
		item := records.SaleLineItem{SaleID: sale.ID, ProductID: in.ProductID, Quantity: in.Quantity, UnitPrice: in.UnitPrice}
		if _, err := s.store.Insert(ctx, records.SaleItems, &item); err != nil {
			return Detail{}, fmt.Errorf("create sale item: %w", err)
		}
		detail.Items = append(detail.Items, item)
		sold[in.ProductID] += in.Quantity
	}
	for id, qty := range sold {
		p := products[id]
		stock := p.CurrentStock - qty
		if err := s.store.Update(ctx, records.Products, id, map[string]any{"current_stock": stock}); err != nil {
			return Detail{}, fmt.Errorf("update stock of %s: %w", id, err)
		}
		if stock <= p.MinimumStock {
			s.logger.Warn("product stock critical",
				slog.String("product_id", id),
				slog.String("product", p.Name),
				slog.Int("stock", stock),
				slog.Int("minimum", p.MinimumStock))
		}
	}
	s.logger.Info("sale recorded",
		slog.String("sale_id", sale.ID),
		slog.String("total", sale.TotalAmount.StringFixed(2)),
		slog.Int("items", len(detail.Items)))
	return detail, nil
}

// Total is the sum of the line subtotals minus discount plus tax.
func Total(items []ItemInput, discount, tax decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Sub(discount).Add(tax)
}

// SetStatus marks a sale collected, stamping today's collection date, or
// back to pending, clearing it.
func (s *Service) SetStatus(ctx context.Context, id string, status records.SaleStatus) error {
	patch := map[string]any{"status": string(status)}
	switch status {
	case records.SaleCollected:
		patch["collection_date"] = s.today()
	case records.SalePending:
		patch["collection_date"] = nil
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	err := s.store.Update(ctx, records.Sales, id, patch)
	if errors.Is(err, records.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSaleNotFound, id)
	}
	return err
}

// ListSales returns sales newest first with their lines and customer names.
func (s *Service) ListSales(ctx context.Context, filter Filter) ([]Detail, error) {
	if err := s.validate.Struct(filter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	q := records.Query{}.OrderBy("date", true)
	if filter.From != "" {
		q = q.Where("date", records.OpGte, filter.From)
	}
	if filter.To != "" {
		to, _ := time.Parse(time.DateOnly, filter.To)
		q = q.Where("date", records.OpLt, to.AddDate(0, 0, 1).Format(time.DateOnly))
	}
	if filter.Status != "" {
		q = q.Where("status", records.OpEq, string(filter.Status))
	}
	list, err := records.FetchAll[records.Sale](ctx, s.store, records.Sales, q)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, list)
}

// GetSale returns one sale with its lines.
func (s *Service) GetSale(ctx context.Context, id string) (Detail, error) {
	list, err := records.FetchAll[records.Sale](ctx, s.store, records.Sales, records.Query{}.Where("id", records.OpEq, id))
	if err != nil {
		return Detail{}, err
	}
	if len(list) == 0 {
		return Detail{}, fmt.Errorf("%w: %s", ErrSaleNotFound, id)
	}
	details, err := s.details(ctx, list)
	if err != nil {
		return Detail{}, err
	}
	return details[0], nil
}

func (s *Service) details(ctx context.Context, list []records.Sale) ([]Detail, error) {
	out := make([]Detail, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]string, len(list))
	var customerIDs []string
	for i, sale := range list {
		ids[i] = sale.ID
		if sale.CustomerID != nil {
			customerIDs = append(customerIDs, *sale.CustomerID)
		}
	}

	var (
		items     []records.SaleLineItem
		customers []records.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = records.FetchAll[records.SaleLineItem](gctx, s.store, records.SaleItems,
			records.Query{}.Where("sale_id", records.OpIn, ids))
		return err
	})
	if len(customerIDs) > 0 {
		g.Go(func() (err error) {
			customers, err = records.FetchAll[records.Customer](gctx, s.store, records.Customers,
				records.Query{}.Where("id", records.OpIn, customerIDs))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	bySale := make(map[string][]records.SaleLineItem, len(list))
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], item)
	}
	for i, sale := range list {
		lines := bySale[sale.ID]
		if lines == nil {
			lines = []records.SaleLineItem{}
		}
		sort.SliceStable(lines, func(a, b int) bool { return lines[a].ProductID < lines[b].ProductID })
		out[i] = Detail{Sale: sale, Items: lines}
		if sale.CustomerID != nil {
			out[i].CustomerName = names[*sale.CustomerID]
		}
	}
	return out, nil
}

func (s *Service) customerName(ctx context.Context, id *string) (string, error) {
	if id == nil {
		return "", nil
	}
	found, err := records.FetchAll[records.Customer](ctx, s.store, records.Customers, records.Query{}.Where("id", records.OpEq, *id))
	if err != nil {
		return "", fmt.Errorf("check customer: %w", err)
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: %s", ErrCustomerNotFound, *id)
	}
	return found[0].Name, nil
}

func (s *Service) products(ctx context.Context, items []ItemInput) (map[string]records.Product, error) {
	out := make(map[string]records.Product, len(items))
	if len(items) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	found, err := records.FetchAll[records.Product](ctx, s.store, records.Products, records.Query{}.Where("id", records.OpIn, ids))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, p := range found {
		out[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}
	return out, nil
}
