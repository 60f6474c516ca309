package records

import (
	"context"
	_ "embed"
	"fmt"
	"reflect"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore persists records in Postgres, one table per collection.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates missing tables.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("records: ensure schema: %w", err)
	}
	return nil
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// selectColumns casts DATE columns to text so they scan into strings. NULL
// dates become "" unless the field is a pointer.
func selectColumns(s *schema) []string {
	index := fieldIndex(s.typ)
	cols := make([]string, len(s.columns))
	for i, col := range s.columns {
		switch {
		case !dateColumn(col):
			cols[i] = col
		case s.typ.Field(index[col]).Type.Kind() == reflect.Pointer:
			cols[i] = fmt.Sprintf("%s::text AS %s", col, col)
		default:
			cols[i] = fmt.Sprintf("COALESCE(%s::text, '') AS %s", col, col)
		}
	}
	return cols
}

func applyFilters(b sq.SelectBuilder, filters []Filter) sq.SelectBuilder {
	for _, f := range filters {
		switch f.Op {
		case OpEq, OpIn:
			b = b.Where(sq.Eq{f.Field: f.Value})
		case OpNeq:
			b = b.Where(sq.NotEq{f.Field: f.Value})
		case OpLt:
			b = b.Where(sq.Lt{f.Field: f.Value})
		case OpLte:
			b = b.Where(sq.LtOrEq{f.Field: f.Value})
		case OpGt:
			b = b.Where(sq.Gt{f.Field: f.Value})
		case OpGte:
			b = b.Where(sq.GtOrEq{f.Field: f.Value})
		case OpNull:
			b = b.Where(sq.Eq{f.Field: nil})
		case OpNotNull:
			b = b.Where(sq.NotEq{f.Field: nil})
		}
	}
	return b
}

func buildSelect(s *schema, q Query) sq.SelectBuilder {
	b := applyFilters(builder().Select(selectColumns(s)...).From(string(s.name)), q.Filters)
	for _, o := range q.Order {
		if o.Desc {
			b = b.OrderBy(o.Field + " DESC")
		} else {
			b = b.OrderBy(o.Field + " ASC")
		}
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b
}

// Fetch implements Store.
func (p *PostgresStore) Fetch(ctx context.Context, c Collection, q Query, dest any) error {
	s, err := lookup(c)
	if err != nil {
		return err
	}
	if err := s.checkQuery(q); err != nil {
		return err
	}
	if _, err := s.sliceTarget(dest); err != nil {
		return err
	}
	sql, args, err := buildSelect(s, q).ToSql()
	if err != nil {
		return fmt.Errorf("build select %s: %w", c, err)
	}
	if err := pgxscan.Select(ctx, p.pool, dest, sql, args...); err != nil {
		return fmt.Errorf("select %s: %w", c, err)
	}
	return nil
}

// Insert implements Store.
func (p *PostgresStore) Insert(ctx context.Context, c Collection, record any) (string, error) {
	s, err := lookup(c)
	if err != nil {
		return "", err
	}
	rv, err := s.structValue(record)
	if err != nil {
		return "", err
	}
	data := toMap(rv)
	id, _ := data["id"].(string)
	if id == "" {
		id = uuid.NewString()
		data["id"] = id
		if field := rv.FieldByName("ID"); field.CanSet() {
			field.SetString(id)
		}
	}
	sql, args, err := builder().Insert(string(c)).SetMap(data).ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert %s: %w", c, err)
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		return "", fmt.Errorf("insert %s: %w", c, err)
	}
	return id, nil
}

// Update implements Store.
func (p *PostgresStore) Update(ctx context.Context, c Collection, id string, patch map[string]any) error {
	s, err := lookup(c)
	if err != nil {
		return err
	}
	if err := s.checkPatch(patch); err != nil {
		return err
	}
	sql, args, err := builder().Update(string(c)).SetMap(patch).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", c, err)
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", c, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, c, id)
	}
	return nil
}

// Delete implements Store.
func (p *PostgresStore) Delete(ctx context.Context, c Collection, id string) error {
	if _, err := lookup(c); err != nil {
		return err
	}
	sql, args, err := builder().Delete(string(c)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", c, err)
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, c, id)
	}
	return nil
}

// Count implements Store.
func (p *PostgresStore) Count(ctx context.Context, c Collection, q Query) (int, error) {
	s, err := lookup(c)
	if err != nil {
		return 0, err
	}
	if err := s.checkQuery(Query{Filters: q.Filters}); err != nil {
		return 0, err
	}
	sql, args, err := applyFilters(builder().Select("COUNT(*)").From(string(c)), q.Filters).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s: %w", c, err)
	}
	var n int
	if err := p.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c, err)
	}
	return n, nil
}
