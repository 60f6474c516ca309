// Package records holds the typed business records and the store they are
// read from and written to.
package records

import "github.com/shopspring/decimal"

// SaleStatus tracks whether a sale has been paid.
type SaleStatus string

const (
	SaleCollected SaleStatus = "collected"
	SalePending   SaleStatus = "pending"
)

// CustomerStatus classifies a customer relationship.
type CustomerStatus string

const (
	CustomerProspect CustomerStatus = "prospect"
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// PurchaseStatus tracks a supplier invoice.
type PurchaseStatus string

const (
	PurchasePending PurchaseStatus = "pending"
	PurchasePaid    PurchaseStatus = "paid"
	PurchaseOverdue PurchaseStatus = "overdue"
)

// Valid reports whether s is a known purchase status.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchasePending, PurchasePaid, PurchaseOverdue:
		return true
	}
	return false
}

// PipelineStage is a step of the sales pipeline.
type PipelineStage string

const (
	StageProspect    PipelineStage = "prospect"
	StageNegotiation PipelineStage = "negotiation"
	StageWon         PipelineStage = "won"
	StageLost        PipelineStage = "lost"
)

// PipelineStages lists the stages in funnel order.
var PipelineStages = []PipelineStage{StageProspect, StageNegotiation, StageWon, StageLost}

// Valid reports whether s is a known stage.
func (s PipelineStage) Valid() bool {
	for _, stage := range PipelineStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Dates are kept as the ISO strings the store returns so that malformed
// values reach the bucketing layer instead of failing the whole fetch.

// Sale is an invoice issued to a customer.
type Sale struct {
	ID             string          `db:"id" json:"id"`
	Date           string          `db:"date" json:"date"`
	CustomerID     *string         `db:"customer_id" json:"customer_id,omitempty"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	Discount       decimal.Decimal `db:"discount" json:"discount"`
	Tax            decimal.Decimal `db:"tax" json:"tax"`
	PaymentMethod  string          `db:"payment_method" json:"payment_method"`
	Status         SaleStatus      `db:"status" json:"status"`
	CollectionDate *string         `db:"collection_date" json:"collection_date,omitempty"`
}

// SaleLineItem is one product line of a sale.
type SaleLineItem struct {
	ID        string          `db:"id" json:"id"`
	SaleID    string          `db:"sale_id" json:"sale_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (i SaleLineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Expense is money spent outside the supplier ledger.
type Expense struct {
	ID             string          `db:"id" json:"id"`
	Date           string          `db:"date" json:"date"`
	SupplierName   string          `db:"supplier_name" json:"supplier_name"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Category       string          `db:"category" json:"category"`
	FiscalCategory string          `db:"fiscal_category" json:"fiscal_category"`
}

// Customer is a person or company the business sells to.
type Customer struct {
	ID      string         `db:"id" json:"id"`
	Name    string         `db:"name" json:"name"`
	Email   string         `db:"email" json:"email"`
	Phone   string         `db:"phone" json:"phone"`
	Company string         `db:"company" json:"company"`
	Status  CustomerStatus `db:"status" json:"status"`
}

// Product is a stocked item.
type Product struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Cost         decimal.Decimal `db:"cost" json:"cost"`
	Price        decimal.Decimal `db:"price" json:"price"`
	CurrentStock int             `db:"current_stock" json:"current_stock"`
	MinimumStock int             `db:"minimum_stock" json:"minimum_stock"`
	Category     string          `db:"category" json:"category"`
}

// Critical reports whether stock fell to or below the minimum.
func (p Product) Critical() bool {
	return p.CurrentStock <= p.MinimumStock
}

// Budget is the plan for one calendar month.
type Budget struct {
	ID              string          `db:"id" json:"id"`
	Year            int             `db:"year" json:"year"`
	Month           int             `db:"month" json:"month"`
	ExpectedRevenue decimal.Decimal `db:"expected_revenue" json:"expected_revenue"`
	ExpectedExpense decimal.Decimal `db:"expected_expense" json:"expected_expense"`
	SalesTarget     int             `db:"sales_target" json:"sales_target"`
	Notes           string          `db:"notes" json:"notes"`
}

// Supplier provides goods on credit.
type Supplier struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Phone string `db:"phone" json:"phone"`
	TaxID string `db:"tax_id" json:"tax_id"`
}

// SupplierPurchase is an invoice received from a supplier.
type SupplierPurchase struct {
	ID          string          `db:"id" json:"id"`
	SupplierID  string          `db:"supplier_id" json:"supplier_id"`
	Date        string          `db:"date" json:"date"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status      PurchaseStatus  `db:"status" json:"status"`
	PaymentDate *string         `db:"payment_date" json:"payment_date,omitempty"`
	Description string          `db:"description" json:"description"`
}

// SupplierPayment is money sent to a supplier.
type SupplierPayment struct {
	ID         string          `db:"id" json:"id"`
	SupplierID string          `db:"supplier_id" json:"supplier_id"`
	Date       string          `db:"date" json:"date"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Method     string          `db:"method" json:"method"`
}

// Recurrence of a tax deadline.
type Recurrence string

const (
	RecurrenceMonthly   Recurrence = "monthly"
	RecurrenceQuarterly Recurrence = "quarterly"
	RecurrenceAnnual    Recurrence = "annual"
)

// TaxDeadline is a filing obligation.
type TaxDeadline struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	Kind            Recurrence      `db:"kind" json:"kind"`
	DueDate         string          `db:"due_date" json:"due_date"`
	EstimatedAmount decimal.Decimal `db:"estimated_amount" json:"estimated_amount"`
	Completed       bool            `db:"completed" json:"completed"`
	CompletedDate   *string         `db:"completed_date" json:"completed_date,omitempty"`
	Notes           string          `db:"notes" json:"notes"`
}

// PipelineEntry is an opportunity tracked in the sales pipeline.
type PipelineEntry struct {
	ID             string          `db:"id" json:"id"`
	CustomerID     string          `db:"customer_id" json:"customer_id"`
	Stage          PipelineStage   `db:"stage" json:"stage"`
	EstimatedValue decimal.Decimal `db:"estimated_value" json:"estimated_value"`
	Probability    int             `db:"probability" json:"probability"`
	StageDate      *string         `db:"stage_date" json:"stage_date,omitempty"`
	Notes          string          `db:"notes" json:"notes"`
}

// TaskPriority orders follow-up work.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task is a follow-up item, optionally tied to a customer.
type Task struct {
	ID            string       `db:"id" json:"id"`
	CustomerID    *string      `db:"customer_id" json:"customer_id,omitempty"`
	Title         string       `db:"title" json:"title"`
	Description   string       `db:"description" json:"description"`
	Kind          string       `db:"kind" json:"kind"`
	DueDate       *string      `db:"due_date" json:"due_date,omitempty"`
	Priority      TaskPriority `db:"priority" json:"priority"`
	Completed     bool         `db:"completed" json:"completed"`
	CompletedDate *string      `db:"completed_date" json:"completed_date,omitempty"`
}

// Interaction is a logged touchpoint with a customer.
type Interaction struct {
	ID          string `db:"id" json:"id"`
	CustomerID  string `db:"customer_id" json:"customer_id"`
	Kind        string `db:"kind" json:"kind"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Date        string `db:"date" json:"date"`
}

// RecordID and RecordDate let the period package bucket records.

func (s Sale) RecordID() string               { return s.ID }
func (s Sale) RecordDate() string             { return s.Date }
func (e Expense) RecordID() string            { return e.ID }
func (e Expense) RecordDate() string          { return e.Date }
func (p SupplierPurchase) RecordID() string   { return p.ID }
func (p SupplierPurchase) RecordDate() string { return p.Date }
func (p SupplierPayment) RecordID() string    { return p.ID }
func (p SupplierPayment) RecordDate() string  { return p.Date }
