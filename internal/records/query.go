package records

// Operator compares a column with a filter value.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNeq     Operator = "neq"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpIn      Operator = "in"
	OpNull    Operator = "null"
	OpNotNull Operator = "not_null"
)

func (o Operator) valid() bool {
	switch o {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpIn, OpNull, OpNotNull:
		return true
	}
	return false
}

// Filter restricts a query to rows where Field Op Value holds. Value must be
// a slice for OpIn and is ignored by OpNull and OpNotNull.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Order sorts query results by Field.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a fetch. The zero value returns every row.
type Query struct {
	Filters []Filter
	Order   []Order
	Limit   int
}

// Where appends a filter and returns the query.
func (q Query) Where(field string, op Operator, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy appends a sort key and returns the query.
func (q Query) OrderBy(field string, desc bool) Query {
	q.Order = append(append([]Order(nil), q.Order...), Order{Field: field, Desc: desc})
	return q
}

// Take limits the number of rows returned.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}
