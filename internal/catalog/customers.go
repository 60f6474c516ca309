package catalog

import (
	"context"
	"fmt"

	"github.com/bizdash/bizdash/internal/records"
)

// CustomerInput creates or replaces a customer. Status defaults to prospect.
type CustomerInput struct {
	Name    string                 `json:"name" validate:"required,max=200"`
	Email   string                 `json:"email" validate:"omitempty,email"`
	Phone   string                 `json:"phone" validate:"max=50"`
	Company string                 `json:"company" validate:"max=200"`
	Status  records.CustomerStatus `json:"status" validate:"omitempty,oneof=prospect active inactive"`
}

func (in CustomerInput) status() records.CustomerStatus {
	if in.Status == "" {
		return records.CustomerProspect
	}
	return in.Status
}

// ListCustomers returns customers by name, optionally of one status.
func (s *Service) ListCustomers(ctx context.Context, status records.CustomerStatus) ([]records.Customer, error) {
	q := records.Query{}.OrderBy("name", false)
	if status != "" {
		q = q.Where("status", records.OpEq, string(status))
	}
	return records.FetchAll[records.Customer](ctx, s.store, records.Customers, q)
}

// CreateCustomer validates and stores a customer.
func (s *Service) CreateCustomer(ctx context.Context, input CustomerInput) (records.Customer, error) {
	if err := s.check(input); err != nil {
		return records.Customer{}, err
	}
	customer := records.Customer{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Company: input.Company,
		Status:  input.status(),
	}
	if _, err := s.store.Insert(ctx, records.Customers, &customer); err != nil {
		return records.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}

// UpdateCustomer replaces the fields of an existing customer.
func (s *Service) UpdateCustomer(ctx context.Context, id string, input CustomerInput) error {
	if err := s.check(input); err != nil {
		return err
	}
	return s.update(ctx, records.Customers, id, map[string]any{
		"name":    input.Name,
		"email":   input.Email,
		"phone":   input.Phone,
		"company": input.Company,
		"status":  string(input.status()),
	})
}

// DeleteCustomer removes a customer with no sales, opportunities or
// interactions on file.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	return s.remove(ctx, records.Customers, id, map[records.Collection]string{
		records.Sales:        "customer_id",
		records.Pipeline:     "customer_id",
		records.Interactions: "customer_id",
	})
}
