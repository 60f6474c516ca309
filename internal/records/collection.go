package records

import (
	"fmt"
	"reflect"
	"strings"
)

// Collection names a table of records.
type Collection string

const (
	Customers         Collection = "customers"
	Products          Collection = "products"
	Sales             Collection = "sales"
	SaleItems         Collection = "sale_items"
	Expenses          Collection = "expenses"
	Suppliers         Collection = "suppliers"
	SupplierPurchases Collection = "supplier_purchases"
	SupplierPayments  Collection = "supplier_payments"
	Budgets           Collection = "budgets"
	TaxDeadlines      Collection = "tax_deadlines"
	Pipeline          Collection = "pipeline"
	Tasks             Collection = "tasks"
	Interactions      Collection = "interactions"
)

type schema struct {
	name    Collection
	typ     reflect.Type
	columns []string
	valid   map[string]bool
}

var schemas = map[Collection]*schema{}

func register[T any](c Collection) {
	var zero T
	t := reflect.TypeOf(zero)
	cols := dbColumns(t)
	valid := make(map[string]bool, len(cols))
	for _, col := range cols {
		valid[col] = true
	}
	schemas[c] = &schema{name: c, typ: t, columns: cols, valid: valid}
}

func init() {
	register[Customer](Customers)
	register[Product](Products)
	register[Sale](Sales)
	register[SaleLineItem](SaleItems)
	register[Expense](Expenses)
	register[Supplier](Suppliers)
	register[SupplierPurchase](SupplierPurchases)
	register[SupplierPayment](SupplierPayments)
	register[Budget](Budgets)
	register[TaxDeadline](TaxDeadlines)
	register[PipelineEntry](Pipeline)
	register[Task](Tasks)
	register[Interaction](Interactions)
}

func lookup(c Collection) (*schema, error) {
	s, ok := schemas[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	return s, nil
}

// Columns returns the column names of c in declaration order.
func Columns(c Collection) ([]string, error) {
	s, err := lookup(c)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), s.columns...), nil
}

func (s *schema) checkQuery(q Query) error {
	for _, f := range q.Filters {
		if !s.valid[f.Field] {
			return fmt.Errorf("%w: %s.%s", ErrInvalidField, s.name, f.Field)
		}
		if !f.Op.valid() {
			return fmt.Errorf("%w: operator %q", ErrInvalidField, f.Op)
		}
	}
	for _, o := range q.Order {
		if !s.valid[o.Field] {
			return fmt.Errorf("%w: %s.%s", ErrInvalidField, s.name, o.Field)
		}
	}
	return nil
}

func (s *schema) checkPatch(patch map[string]any) error {
	if len(patch) == 0 {
		return fmt.Errorf("%w: empty patch", ErrInvalidField)
	}
	for field := range patch {
		if field == "id" || !s.valid[field] {
			return fmt.Errorf("%w: %s.%s", ErrInvalidField, s.name, field)
		}
	}
	return nil
}

// dateColumn reports whether a column is stored as DATE. Such columns are
// named "date" or end in "_date".
func dateColumn(col string) bool {
	return col == "date" || strings.HasSuffix(col, "_date")
}
