package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/jobs"
)

type stubLoader struct {
	snap analytics.Snapshot
	err  error
}

func (s stubLoader) LoadSnapshot(ctx context.Context) (analytics.Snapshot, error) {
	return s.snap, s.err
}

type stubTriggerer struct {
	got string
}

func (s *stubTriggerer) Trigger(ctx context.Context, taskType string) (*asynq.TaskInfo, error) {
	if taskType != jobs.TaskTaxDeadlineReminder {
		return nil, errors.New("unknown task")
	}
	s.got = taskType
	return &asynq.TaskInfo{ID: "abc", Queue: jobs.QueueDefault}, nil
}

func TestExportCommandWritesWorkbook(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xlsx")
	loader := stubLoader{snap: analytics.Snapshot{
		Sales:     []records.Sale{{ID: "s1", Date: "2024-05-02", TotalAmount: decimal.NewFromInt(100)}},
		Warnings:  []string{"products: timeout"},
		Customers: []records.Customer{{ID: "c1", Name: "Ana"}},
	}}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := ExportCommand(context.Background(), loader, ExportOptions{
		Out:    out,
		Stdout: stdout,
		Stderr: stderr,
		Now:    func() time.Time { return time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC) },
	})
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "wrote "+out)
	assert.Contains(t, stderr.String(), "warning: products: timeout")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Summary", f.GetSheetList()[0])
}

func TestExportCommandLoadFailure(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := ExportCommand(context.Background(), stubLoader{err: errors.New("db down")}, ExportOptions{
		Out:    filepath.Join(t.TempDir(), "x.xlsx"),
		Stdout: new(bytes.Buffer),
		Stderr: stderr,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "db down")
}

func TestParseExportArgs(t *testing.T) {
	opts, err := ParseExportArgs([]string{"-out", "x.xlsx"}, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Equal(t, "x.xlsx", opts.Out)

	_, err = ParseExportArgs([]string{"-bogus"}, new(bytes.Buffer))
	assert.Error(t, err)
}

func TestJobsCommandTrigger(t *testing.T) {
	trig := &stubTriggerer{}
	c := &JobsCLI{client: trig}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := c.JobsCommand(context.Background(), []string{"trigger", jobs.TaskTaxDeadlineReminder}, stdout, stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, jobs.TaskTaxDeadlineReminder, trig.got)
	assert.Contains(t, stdout.String(), "id=abc")

	assert.Equal(t, 1, c.JobsCommand(context.Background(), []string{"trigger", "nope"}, stdout, stderr))
	assert.Equal(t, 2, c.JobsCommand(context.Background(), []string{"trigger"}, stdout, stderr))
	assert.Equal(t, 2, c.JobsCommand(context.Background(), nil, stdout, stderr))
	assert.Equal(t, 1, c.JobsCommand(context.Background(), []string{"stats"}, stdout, stderr))
}

func TestSeedCommandRefusesNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemoryStore()
	opts, err := ParseSeedArgs([]string{"-months", "2", "-seed", "9"}, new(bytes.Buffer))
	require.NoError(t, err)
	opts.Now = func() time.Time { return time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC) }

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	require.Equal(t, 0, SeedCommand(ctx, store, opts, nil, stdout, stderr), stderr.String())
	assert.Contains(t, stdout.String(), "tax_deadlines")

	stderr.Reset()
	assert.Equal(t, 1, SeedCommand(ctx, store, opts, nil, stdout, stderr))
	assert.Contains(t, stderr.String(), "refusing to seed")
}
