// Package cli implements the bizdash maintenance subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/analytics/export"
)

// SnapshotLoader loads the records behind the business report.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (analytics.Snapshot, error)
}

// ExportOptions defines the flags of the export command.
type ExportOptions struct {
	Out    string
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Now    func() time.Time
}

// ParseExportArgs reads export flags. -out defaults to
// business-report-<date>.xlsx in the working directory.
func ParseExportArgs(args []string, stderr io.Writer) (ExportOptions, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "destination .xlsx path")
	if err := fs.Parse(args); err != nil {
		return ExportOptions{}, err
	}
	return ExportOptions{Out: *out, Stderr: stderr}, nil
}

// ExportCommand writes the business workbook to disk and returns the exit code.
func ExportCommand(ctx context.Context, loader SnapshotLoader, opts ExportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now().UTC()
	if opts.Out == "" {
		opts.Out = "business-report-" + now.Format(time.DateOnly) + ".xlsx"
	}

	snap, err := loader.LoadSnapshot(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export: load records: %v\n", err)
		return 1
	}
	for _, warning := range snap.Warnings {
		_, _ = fmt.Fprintf(opts.Stderr, "export: warning: %s\n", warning)
	}
	wb, err := export.BuildBusinessReport(export.NewReportData(snap, opts.Logger), now)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export: build workbook: %v\n", err)
		return 1
	}
	defer wb.Close()
	if err := wb.SaveAs(opts.Out); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export: save %s: %v\n", opts.Out, err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "wrote %s (%d sheets)\n", opts.Out, len(wb.SheetNames()))
	return 0
}
