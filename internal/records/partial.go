package records

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Warnings collects per-collection fetch failures from concurrent loaders.
type Warnings struct {
	mu   sync.Mutex
	list []string
}

// Add records one warning.
func (w *Warnings) Add(msg string) {
	w.mu.Lock()
	w.list = append(w.list, msg)
	w.mu.Unlock()
}

// List returns a copy of the recorded warnings, nil when there are none.
func (w *Warnings) List() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.list) == 0 {
		return nil
	}
	return append([]string(nil), w.list...)
}

// FetchInto schedules a best-effort fetch on g. A failed fetch is logged,
// leaves dest empty and adds "<collection> unavailable" to w. Only context
// cancellation fails the group.
func FetchInto[T any](ctx context.Context, g *errgroup.Group, store Store, logger *slog.Logger, w *Warnings, c Collection, q Query, dest *[]T) {
	g.Go(func() error {
		items, err := FetchAll[T](ctx, store, c, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Warn("record fetch failed",
				slog.String("collection", string(c)),
				slog.Any("error", err))
			w.Add(fmt.Sprintf("%s unavailable", c))
			*dest = []T{}
			return nil
		}
		if items == nil {
			items = []T{}
		}
		*dest = items
		return nil
	})
}
