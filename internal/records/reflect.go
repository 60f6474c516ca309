package records

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

func dbColumns(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// fieldIndex maps db tags to struct field indexes.
func fieldIndex(t reflect.Type) map[string]int {
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		idx[tag] = i
	}
	return idx
}

// structValue resolves record to a struct value of the collection type.
func (s *schema) structValue(record any) (reflect.Value, error) {
	rv := reflect.ValueOf(record)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil %s record", ErrTypeMismatch, s.name)
		}
		rv = rv.Elem()
	}
	if rv.Type() != s.typ {
		return reflect.Value{}, fmt.Errorf("%w: %s expects %s, got %s", ErrTypeMismatch, s.name, s.typ, rv.Type())
	}
	return rv, nil
}

// sliceTarget checks that dest points to a slice of the collection type.
func (s *schema) sliceTarget(dest any) (reflect.Value, error) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("%w: dest must be a pointer to a slice", ErrTypeMismatch)
	}
	if rv.Elem().Type().Elem() != s.typ {
		return reflect.Value{}, fmt.Errorf("%w: %s expects []%s, got %s", ErrTypeMismatch, s.name, s.typ, rv.Elem().Type())
	}
	return rv.Elem(), nil
}

func toMap(rv reflect.Value) map[string]any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	for tag, i := range fieldIndex(t) {
		out[tag] = rv.Field(i).Interface()
	}
	return out
}

// assign converts v into the field's type. Nil clears the field.
func assign(field reflect.Value, v any) error {
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if field.Kind() == reflect.Pointer {
		src := reflect.ValueOf(v)
		if src.Kind() == reflect.Pointer {
			if src.IsNil() {
				field.Set(reflect.Zero(field.Type()))
				return nil
			}
			v = src.Elem().Interface()
		}
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}
	if field.Type() == decimalType {
		d, err := toDecimal(v)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}
	src := reflect.ValueOf(v)
	switch field.Kind() {
	case reflect.String:
		if src.Kind() != reflect.String {
			return fmt.Errorf("%w: cannot assign %T to string", ErrTypeMismatch, v)
		}
		field.SetString(src.String())
	case reflect.Int, reflect.Int64, reflect.Int32:
		d, err := toDecimal(v)
		if err != nil || !d.IsInteger() {
			return fmt.Errorf("%w: cannot assign %v to integer", ErrTypeMismatch, v)
		}
		field.SetInt(d.IntPart())
	case reflect.Bool:
		if src.Kind() != reflect.Bool {
			return fmt.Errorf("%w: cannot assign %T to bool", ErrTypeMismatch, v)
		}
		field.SetBool(src.Bool())
	default:
		if !src.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, field.Type())
		}
		field.Set(src)
	}
	return nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(x)
	}
	return decimal.Zero, fmt.Errorf("%w: %T is not numeric", ErrTypeMismatch, v)
}

// normalize unwraps pointers and widens numbers to decimal so values of
// different Go types compare consistently.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	switch v.(type) {
	case decimal.Decimal, int, int32, int64, float64:
		d, _ := toDecimal(v)
		return d
	}
	return v
}

// compare orders a and b. ok is false when the values are not comparable.
func compare(a, b any) (cmp int, ok bool) {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}
		return 0, false
	}
	switch x := a.(type) {
	case decimal.Decimal:
		y, isDec := b.(decimal.Decimal)
		if !isDec {
			s, isStr := b.(string)
			if !isStr {
				return 0, false
			}
			var err error
			if y, err = decimal.NewFromString(s); err != nil {
				return 0, false
			}
		}
		return x.Cmp(y), true
	case string:
		if y, isStr := b.(string); isStr {
			return strings.Compare(x, y), true
		}
		if y, isDec := b.(decimal.Decimal); isDec {
			d, err := decimal.NewFromString(x)
			if err != nil {
				return 0, false
			}
			return d.Cmp(y), true
		}
	case bool:
		if y, isBool := b.(bool); isBool && x == y {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

func matches(row map[string]any, f Filter) bool {
	v := row[f.Field]
	switch f.Op {
	case OpNull:
		return normalize(v) == nil
	case OpNotNull:
		return normalize(v) != nil
	case OpIn:
		list := reflect.ValueOf(f.Value)
		if list.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < list.Len(); i++ {
			if c, ok := compare(v, list.Index(i).Interface()); ok && c == 0 {
				return true
			}
		}
		return false
	case OpNeq:
		if normalize(f.Value) == nil {
			return normalize(v) != nil
		}
		c, ok := compare(v, f.Value)
		return ok && c != 0
	}
	c, ok := compare(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		return c == 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	}
	return false
}
