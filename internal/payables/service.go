package payables

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bizdash/bizdash/internal/records"
)

// SupplierInput registers a supplier.
type SupplierInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=50"`
	TaxID string `json:"tax_id" validate:"max=50"`
}

// PurchaseInput records a supplier invoice.
type PurchaseInput struct {
	SupplierID  string                 `json:"supplier_id" validate:"required"`
	Date        string                 `json:"date" validate:"required,datetime=2006-01-02"`
	TotalAmount decimal.Decimal        `json:"total_amount"`
	Status      records.PurchaseStatus `json:"status" validate:"omitempty,oneof=pending paid overdue"`
	Description string                 `json:"description" validate:"max=500"`
}

// PaymentInput records money sent to a supplier.
type PaymentInput struct {
	SupplierID string          `json:"supplier_id" validate:"required"`
	Date       string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,max=50"`
}

// Service records supplier activity and reports balances.
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

// ListSuppliers returns suppliers by name.
func (s *Service) ListSuppliers(ctx context.Context) ([]records.Supplier, error) {
	return records.FetchAll[records.Supplier](ctx, s.store, records.Suppliers, records.Query{}.OrderBy("name", false))
}

// CreateSupplier validates and stores a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (records.Supplier, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.Supplier{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	supplier := records.Supplier{Name: input.Name, Email: input.Email, Phone: input.Phone, TaxID: input.TaxID}
	if _, err := s.store.Insert(ctx, records.Suppliers, &supplier); err != nil {
		return records.Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	return supplier, nil
}

// UpdateSupplier replaces the details of an existing supplier.
func (s *Service) UpdateSupplier(ctx context.Context, id string, input SupplierInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	err := s.store.Update(ctx, records.Suppliers, id, map[string]any{
		"name":   input.Name,
		"email":  input.Email,
		"phone":  input.Phone,
		"tax_id": input.TaxID,
	})
	if errors.Is(err, records.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSupplierNotFound, id)
	}
	return err
}

// DeleteSupplier removes a supplier without purchases or payments on file.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	bySupplier := records.Query{}.Where("supplier_id", records.OpEq, id)
	for _, c := range []records.Collection{records.SupplierPurchases, records.SupplierPayments} {
		n, err := s.store.Count(ctx, c, bySupplier)
		if err != nil {
			return fmt.Errorf("check %s: %w", c, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d %s on file", ErrSupplierInUse, n, c)
		}
	}
	err := s.store.Delete(ctx, records.Suppliers, id)
	if errors.Is(err, records.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSupplierNotFound, id)
	}
	return err
}

// BalanceSheet is the per-supplier position together with the collections
// that could not be loaded.
type BalanceSheet struct {
	Balances         []Balance       `json:"balances"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// Balances loads suppliers, purchases and payments concurrently and folds
// them into per-supplier balances. A collection that fails to load is
// treated as empty and listed in Warnings.
func (s *Service) Balances(ctx context.Context) (BalanceSheet, error) {
	var (
		suppliers []records.Supplier
		purchases []records.SupplierPurchase
		payments  []records.SupplierPayment
		w         records.Warnings
	)
	g, gctx := errgroup.WithContext(ctx)
	records.FetchInto(gctx, g, s.store, s.logger, &w, records.Suppliers, records.Query{}, &suppliers)
	records.FetchInto(gctx, g, s.store, s.logger, &w, records.SupplierPurchases, records.Query{}, &purchases)
	records.FetchInto(gctx, g, s.store, s.logger, &w, records.SupplierPayments, records.Query{}, &payments)
	if err := g.Wait(); err != nil {
		return BalanceSheet{}, err
	}
	balances := Balances(suppliers, purchases, payments)
	return BalanceSheet{
		Balances:         balances,
		TotalOutstanding: TotalOutstanding(balances),
		Warnings:         w.List(),
	}, nil
}

// Purchases lists invoices newest first, optionally for one supplier.
func (s *Service) Purchases(ctx context.Context, supplierID string) ([]records.SupplierPurchase, error) {
	q := records.Query{}.OrderBy("date", true)
	if supplierID != "" {
		q = q.Where("supplier_id", records.OpEq, supplierID)
	}
	return records.FetchAll[records.SupplierPurchase](ctx, s.store, records.SupplierPurchases, q)
}

// Payments lists payments newest first, optionally for one supplier.
func (s *Service) Payments(ctx context.Context, supplierID string) ([]records.SupplierPayment, error) {
	q := records.Query{}.OrderBy("date", true)
	if supplierID != "" {
		q = q.Where("supplier_id", records.OpEq, supplierID)
	}
	return records.FetchAll[records.SupplierPayment](ctx, s.store, records.SupplierPayments, q)
}

// RecordPurchase stores an invoice for an existing supplier. New invoices
// are pending unless stated otherwise.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (records.SupplierPurchase, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.SupplierPurchase{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !input.TotalAmount.IsPositive() {
		return records.SupplierPurchase{}, fmt.Errorf("%w: total amount must be positive", ErrInvalidInput)
	}
	if err := s.requireSupplier(ctx, input.SupplierID); err != nil {
		return records.SupplierPurchase{}, err
	}
	purchase := records.SupplierPurchase{
		SupplierID:  input.SupplierID,
		Date:        input.Date,
		TotalAmount: input.TotalAmount,
		Status:      input.Status,
		Description: input.Description,
	}
	if purchase.Status == "" {
		purchase.Status = records.PurchasePending
	}
	if purchase.Status == records.PurchasePaid {
		today := s.today()
		purchase.PaymentDate = &today
	}
	if _, err := s.store.Insert(ctx, records.SupplierPurchases, &purchase); err != nil {
		return records.SupplierPurchase{}, fmt.Errorf("record purchase: %w", err)
	}
	return purchase, nil
}

// SetPurchaseStatus moves an invoice to status. Marking it paid stamps
// today's date as the payment date.
func (s *Service) SetPurchaseStatus(ctx context.Context, id string, status records.PurchaseStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	patch := map[string]any{"status": string(status)}
	if status == records.PurchasePaid {
		patch["payment_date"] = s.today()
	}
	err := s.store.Update(ctx, records.SupplierPurchases, id, patch)
	if errors.Is(err, records.ErrNotFound) {
		return ErrPurchaseNotFound
	}
	return err
}

// RecordPayment stores a payment to an existing supplier.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (records.SupplierPayment, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.SupplierPayment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !input.Amount.IsPositive() {
		return records.SupplierPayment{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if err := s.requireSupplier(ctx, input.SupplierID); err != nil {
		return records.SupplierPayment{}, err
	}
	payment := records.SupplierPayment{
		SupplierID: input.SupplierID,
		Date:       input.Date,
		Amount:     input.Amount,
		Method:     input.Method,
	}
	if _, err := s.store.Insert(ctx, records.SupplierPayments, &payment); err != nil {
		return records.SupplierPayment{}, fmt.Errorf("record payment: %w", err)
	}
	s.logger.Info("supplier payment recorded",
		slog.String("supplier_id", payment.SupplierID),
		slog.String("amount", payment.Amount.StringFixed(2)))
	return payment, nil
}

func (s *Service) requireSupplier(ctx context.Context, id string) error {
	n, err := s.store.Count(ctx, records.Suppliers, records.Query{}.Where("id", records.OpEq, id))
	if err != nil {
		return fmt.Errorf("check supplier: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSupplierNotFound, id)
	}
	return nil
}

func (s *Service) today() string {
	return s.now().UTC().Format(time.DateOnly)
}
