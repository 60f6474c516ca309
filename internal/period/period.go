// Package period turns record dates into sortable period keys.
package period

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Granularity selects the width of a period.
type Granularity string

const (
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// ParseGranularity maps user input to a Granularity, defaulting to Month.
func ParseGranularity(raw string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(raw))) {
	case "", Month:
		return Month, nil
	case Quarter:
		return Quarter, nil
	case Year:
		return Year, nil
	}
	return "", fmt.Errorf("period: unknown granularity %q", raw)
}

const monthLayout = "2006-01"

// ParseDate accepts calendar dates and RFC3339 timestamps.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("period: empty date")
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("period: parse date %q: %w", raw, err)
	}
	return t, nil
}

// Key returns the period key of t: "YYYY-MM", "YYYY-Qn" or "YYYY". Keys of
// one granularity sort lexicographically in chronological order.
func Key(t time.Time, g Granularity) string {
	switch g {
	case Quarter:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case Year:
		return fmt.Sprintf("%04d", t.Year())
	default:
		return t.Format(monthLayout)
	}
}

// MonthKey formats a year and month as "YYYY-MM".
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseMonth parses a "YYYY-MM" key into the first day of that month.
func ParseMonth(key string) (time.Time, error) {
	if key == "" {
		return time.Time{}, fmt.Errorf("period: empty month")
	}
	t, err := time.ParseInLocation(monthLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("period: parse month %q: %w", key, err)
	}
	return t, nil
}

// StartOfMonth truncates t to the first instant of its month in UTC.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Months lists month starts from the month of from through the month of to.
func Months(from, to time.Time) []time.Time {
	if from.After(to) {
		return nil
	}
	var months []time.Time
	current := StartOfMonth(from)
	end := StartOfMonth(to)
	for !current.After(end) {
		months = append(months, current)
		current = current.AddDate(0, 1, 0)
	}
	return months
}

// Dated is a record that can be placed in a period.
type Dated interface {
	RecordID() string
	RecordDate() string
}

// Bucket groups records by period key. Records with a missing or
// unparseable date are skipped and logged at debug level.
func Bucket[T Dated](items []T, g Granularity, logger *slog.Logger) map[string][]T {
	if logger == nil {
		logger = slog.Default()
	}
	buckets := make(map[string][]T)
	for _, item := range items {
		t, err := ParseDate(item.RecordDate())
		if err != nil {
			logger.LogAttrs(context.Background(), slog.LevelDebug, "skip record with invalid date",
				slog.String("id", item.RecordID()),
				slog.String("date", item.RecordDate()))
			continue
		}
		key := Key(t, g)
		buckets[key] = append(buckets[key], item)
	}
	return buckets
}

// SortedKeys returns the keys of m in chronological order, or reverse
// chronological when desc is set.
func SortedKeys[V any](m map[string]V, desc bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if desc {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	} else {
		sort.Strings(keys)
	}
	return keys
}
