package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/bizdash/bizdash/internal/demo"
	"github.com/bizdash/bizdash/internal/records"
)

// ParseSeedArgs reads the -months and -seed flags of the seed command.
func ParseSeedArgs(args []string, stderr io.Writer) (demo.Options, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	months := fs.Int("months", 12, "months of history to generate")
	seed := fs.Uint64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return demo.Options{}, err
	}
	return demo.Options{Months: *months, Seed: *seed}, nil
}

// SeedCommand loads demo records into store. It refuses to touch a store that
// already holds sales.
func SeedCommand(ctx context.Context, store records.Store, opts demo.Options, logger *slog.Logger, stdout, stderr io.Writer) int {
	existing, err := store.Count(ctx, records.Sales, records.Query{})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "seed: %v\n", err)
		return 1
	}
	if existing > 0 {
		_, _ = fmt.Fprintf(stderr, "seed: store already has %d sales, refusing to seed\n", existing)
		return 1
	}
	counts, err := demo.Seed(ctx, store, opts, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "seed: %v\n", err)
		return 1
	}
	names := make([]string, 0, len(counts))
	for c := range counts {
		names = append(names, string(c))
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(stdout, "%-20s %d\n", name, counts[records.Collection(name)])
	}
	return 0
}
