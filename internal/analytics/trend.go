package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/bizdash/bizdash/internal/period"
)

// ErrInvalidRange is returned for malformed or inverted period ranges.
var ErrInvalidRange = errors.New("analytics: invalid range")

// TrendFilter bounds a trend query by inclusive "YYYY-MM" months. Empty
// bounds default to a window ending in the current month.
type TrendFilter struct {
	From        string
	To          string
	Granularity period.Granularity
}

// Resolve fills defaults and validates the filter. It returns the first day
// of From and the first day after To.
func (f TrendFilter) Resolve(now time.Time, months int) (TrendFilter, time.Time, time.Time, error) {
	if f.Granularity == "" {
		f.Granularity = period.Month
	}
	if f.To == "" {
		f.To = period.Key(now, period.Month)
	}
	to, err := period.ParseMonth(f.To)
	if err != nil {
		return f, time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if f.From == "" {
		f.From = period.Key(to.AddDate(0, -(months - 1), 0), period.Month)
	}
	from, err := period.ParseMonth(f.From)
	if err != nil {
		return f, time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if from.After(to) {
		return f, time.Time{}, time.Time{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, f.From, f.To)
	}
	return f, from, to.AddDate(0, 1, 0), nil
}
