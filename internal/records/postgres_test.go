package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelectCastsDatesAndAppliesFilters(t *testing.T) {
	s, err := lookup(Sales)
	require.NoError(t, err)

	sql, args, err := buildSelect(s, Query{}.
		Where("date", OpGte, "2025-01-01").
		Where("customer_id", OpNotNull, nil).
		OrderBy("date", true).
		Take(10)).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "COALESCE(date::text, '') AS date")
	assert.Contains(t, sql, "collection_date::text AS collection_date")
	assert.Contains(t, sql, "FROM sales")
	assert.Contains(t, sql, "date >= $1")
	assert.Contains(t, sql, "customer_id IS NOT NULL")
	assert.Contains(t, sql, "ORDER BY date DESC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Equal(t, []any{"2025-01-01"}, args)
}

func TestColumnsFollowStructTags(t *testing.T) {
	cols, err := Columns(Budgets)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "year", "month", "expected_revenue", "expected_expense", "sales_target", "notes"}, cols)

	_, err = Columns("nope")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}
