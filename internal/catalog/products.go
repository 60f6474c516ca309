package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/records"
)

// ProductInput creates or replaces a product.
type ProductInput struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Cost         decimal.Decimal `json:"cost"`
	Price        decimal.Decimal `json:"price"`
	CurrentStock int             `json:"current_stock" validate:"gte=0"`
	MinimumStock int             `json:"minimum_stock" validate:"gte=0"`
	Category     string          `json:"category" validate:"max=100"`
}

func (s *Service) checkProduct(input ProductInput) error {
	if err := s.check(input); err != nil {
		return err
	}
	if input.Cost.IsNegative() || input.Price.IsNegative() {
		return fmt.Errorf("%w: cost and price must not be negative", ErrInvalidInput)
	}
	return nil
}

// ListProducts returns products by name. criticalOnly keeps those at or
// below their minimum stock.
func (s *Service) ListProducts(ctx context.Context, criticalOnly bool) ([]records.Product, error) {
	products, err := records.FetchAll[records.Product](ctx, s.store, records.Products, records.Query{}.OrderBy("name", false))
	if err != nil || !criticalOnly {
		return products, err
	}
	critical := products[:0]
	for _, p := range products {
		if p.Critical() {
			critical = append(critical, p)
		}
	}
	return critical, nil
}

// CreateProduct validates and stores a product.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (records.Product, error) {
	if err := s.checkProduct(input); err != nil {
		return records.Product{}, err
	}
	product := records.Product{
		Name:         input.Name,
		Cost:         input.Cost,
		Price:        input.Price,
		CurrentStock: input.CurrentStock,
		MinimumStock: input.MinimumStock,
		Category:     input.Category,
	}
	if _, err := s.store.Insert(ctx, records.Products, &product); err != nil {
		return records.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdateProduct replaces the fields of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) error {
	if err := s.checkProduct(input); err != nil {
		return err
	}
	return s.update(ctx, records.Products, id, map[string]any{
		"name":          input.Name,
		"cost":          input.Cost,
		"price":         input.Price,
		"current_stock": input.CurrentStock,
		"minimum_stock": input.MinimumStock,
		"category":      input.Category,
	})
}

// DeleteProduct removes a product that no sale line refers to.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.remove(ctx, records.Products, id, map[records.Collection]string{records.SaleItems: "product_id"})
}
