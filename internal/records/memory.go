package records

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process. It applies the same filter and
// ordering rules as PostgresStore and is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[Collection][]reflect.Value
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[Collection][]reflect.Value)}
}

// Fetch implements Store.
func (m *MemoryStore) Fetch(ctx context.Context, c Collection, q Query, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := lookup(c)
	if err != nil {
		return err
	}
	if err := s.checkQuery(q); err != nil {
		return err
	}
	out, err := s.sliceTarget(dest)
	if err != nil {
		return err
	}

	m.mu.RLock()
	selected := m.selectRows(c, q)
	m.mu.RUnlock()

	result := reflect.MakeSlice(out.Type(), 0, len(selected))
	for _, row := range selected {
		result = reflect.Append(result, row)
	}
	out.Set(result)
	return nil
}

// selectRows filters, sorts and limits rows. Callers hold the read lock.
func (m *MemoryStore) selectRows(c Collection, q Query) []reflect.Value {
	type candidate struct {
		value reflect.Value
		cols  map[string]any
	}
	var picked []candidate
	for _, rv := range m.rows[c] {
		cols := toMap(rv)
		keep := true
		for _, f := range q.Filters {
			if !matches(cols, f) {
				keep = false
				break
			}
		}
		if keep {
			picked = append(picked, candidate{value: rv, cols: cols})
		}
	}
	if len(q.Order) > 0 {
		sort.SliceStable(picked, func(i, j int) bool {
			for _, o := range q.Order {
				cmp, ok := compare(picked[i].cols[o.Field], picked[j].cols[o.Field])
				if !ok {
					// NULLs sort last ascending and first descending, as in Postgres.
					iNil := normalize(picked[i].cols[o.Field]) == nil
					jNil := normalize(picked[j].cols[o.Field]) == nil
					if iNil == jNil {
						continue
					}
					return jNil != o.Desc
				}
				if cmp == 0 {
					continue
				}
				if o.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(picked) > q.Limit {
		picked = picked[:q.Limit]
	}
	out := make([]reflect.Value, len(picked))
	for i, p := range picked {
		out[i] = p.value
	}
	return out
}

// Insert implements Store. A pointer record receives the generated id.
func (m *MemoryStore) Insert(ctx context.Context, c Collection, record any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := lookup(c)
	if err != nil {
		return "", err
	}
	src, err := s.structValue(record)
	if err != nil {
		return "", err
	}
	row := reflect.New(s.typ).Elem()
	row.Set(src)
	id, err := ensureID(row)
	if err != nil {
		return "", err
	}
	if src.CanSet() {
		src.Set(row)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows[c] {
		if existing.FieldByName("ID").String() == id {
			return "", fmt.Errorf("records: duplicate id %s in %s", id, c)
		}
	}
	m.rows[c] = append(m.rows[c], row)
	return id, nil
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, c Collection, id string, patch map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := lookup(c)
	if err != nil {
		return err
	}
	if err := s.checkPatch(patch); err != nil {
		return err
	}
	index := fieldIndex(s.typ)

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.rows[c] {
		if existing.FieldByName("ID").String() != id {
			continue
		}
		updated := reflect.New(s.typ).Elem()
		updated.Set(existing)
		for field, value := range patch {
			if err := assign(updated.Field(index[field]), value); err != nil {
				return fmt.Errorf("update %s.%s: %w", c, field, err)
			}
		}
		m.rows[c][i] = updated
		return nil
	}
	return fmt.Errorf("%w: %s %s", ErrNotFound, c, id)
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, c Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := lookup(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[c]
	for i, existing := range rows {
		if existing.FieldByName("ID").String() == id {
			m.rows[c] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s", ErrNotFound, c, id)
}

// Count implements Store.
func (m *MemoryStore) Count(ctx context.Context, c Collection, q Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s, err := lookup(c)
	if err != nil {
		return 0, err
	}
	q.Order, q.Limit = nil, 0
	if err := s.checkQuery(q); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.selectRows(c, q)), nil
}

func ensureID(row reflect.Value) (string, error) {
	field := row.FieldByName("ID")
	if !field.IsValid() || field.Kind() != reflect.String {
		return "", fmt.Errorf("%w: record has no string ID", ErrTypeMismatch)
	}
	if field.String() == "" {
		field.SetString(uuid.NewString())
	}
	return field.String(), nil
}
