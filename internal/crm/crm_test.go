package crm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/records"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

var now = time.Date(2024, time.April, 15, 16, 0, 0, 0, time.UTC)

func TestSummarizePipeline(t *testing.T) {
	entries := []records.PipelineEntry{
		{Stage: records.StageProspect, EstimatedValue: dec("1000"), Probability: 10},
		{Stage: records.StageProspect, EstimatedValue: dec("500"), Probability: 50},
		{Stage: records.StageNegotiation, EstimatedValue: dec("2000"), Probability: 75},
		{Stage: records.StageWon, EstimatedValue: dec("300"), Probability: 100},
		{Stage: "archived", EstimatedValue: dec("9999"), Probability: 100},
	}

	stages := SummarizePipeline(entries)
	require.Len(t, stages, 4)
	assert.Equal(t, records.StageProspect, stages[0].Stage)
	assert.Equal(t, 2, stages[0].Count)
	assert.True(t, stages[0].Value.Equal(dec("1500")))
	assert.True(t, stages[0].Weighted.Equal(dec("350")))
	assert.True(t, stages[1].Weighted.Equal(dec("1500")))
	assert.Equal(t, 0, stages[3].Count)
	assert.True(t, stages[3].Value.IsZero())

	assert.True(t, Forecast(stages).Equal(dec("1850")))
}

func TestOverdueTasks(t *testing.T) {
	tasks := []records.Task{
		{ID: "late2", DueDate: strPtr("2024-04-10")},
		{ID: "late1", DueDate: strPtr("2024-04-01")},
		{ID: "today", DueDate: strPtr("2024-04-15")},
		{ID: "done", DueDate: strPtr("2024-03-01"), Completed: true},
		{ID: "undated"},
		{ID: "garbled", DueDate: strPtr("soon")},
	}
	overdue := OverdueTasks(tasks, now)
	require.Len(t, overdue, 2)
	assert.Equal(t, "late1", overdue[0].ID)
	assert.Equal(t, "late2", overdue[1].ID)
}

func newTestService(t *testing.T) (*Service, records.Customer) {
	t.Helper()
	store := records.NewMemoryStore()
	customer := records.Customer{Name: "Ana", Status: records.CustomerActive}
	_, err := store.Insert(context.Background(), records.Customers, &customer)
	require.NoError(t, err)
	return NewService(store, nil, func() time.Time { return now }), customer
}

func TestPipelineFlow(t *testing.T) {
	svc, customer := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddOpportunity(ctx, OpportunityInput{CustomerID: "ghost", EstimatedValue: dec("10")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AddOpportunity(ctx, OpportunityInput{CustomerID: customer.ID, Probability: 120})
	assert.ErrorIs(t, err, ErrInvalidInput)

	entry, err := svc.AddOpportunity(ctx, OpportunityInput{CustomerID: customer.ID, EstimatedValue: dec("1000"), Probability: 40})
	require.NoError(t, err)
	assert.Equal(t, records.StageProspect, entry.Stage)

	assert.ErrorIs(t, svc.MoveStage(ctx, entry.ID, "closed", ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.MoveStage(ctx, "missing", records.StageWon, ""), ErrNotFound)
	require.NoError(t, svc.MoveStage(ctx, entry.ID, records.StageNegotiation, "sent quote"))

	report, err := svc.Pipeline(ctx)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "sent quote", report.Entries[0].Notes)
	require.NotNil(t, report.Entries[0].StageDate)
	assert.Equal(t, "2024-04-15", *report.Entries[0].StageDate)
	assert.Equal(t, 1, report.Stages[1].Count)
	assert.True(t, report.Forecast.Equal(dec("400")))
}

func TestTaskFlow(t *testing.T) {
	svc, customer := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, TaskInput{Title: "Call", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateTask(ctx, TaskInput{Title: "Call", CustomerID: strPtr("ghost")})
	assert.ErrorIs(t, err, ErrNotFound)

	late, err := svc.CreateTask(ctx, TaskInput{Title: "Call back", CustomerID: &customer.ID, DueDate: strPtr("2024-04-01")})
	require.NoError(t, err)
	assert.Equal(t, records.PriorityMedium, late.Priority)
	_, err = svc.CreateTask(ctx, TaskInput{Title: "Send brochure", Kind: "email", DueDate: strPtr("2024-05-01"), Priority: records.PriorityLow})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, TaskInput{Title: "Someday"})
	require.NoError(t, err)

	board, err := svc.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, board.Tasks, 3)
	assert.Equal(t, late.ID, board.Tasks[0].ID)
	assert.Equal(t, "Someday", board.Tasks[2].Title)
	require.Len(t, board.Overdue, 1)

	require.NoError(t, svc.CompleteTask(ctx, late.ID))
	assert.ErrorIs(t, svc.CompleteTask(ctx, "missing"), ErrNotFound)

	board, err = svc.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, board.Overdue)
	assert.True(t, board.Tasks[0].Completed)
	require.NotNil(t, board.Tasks[0].CompletedDate)
}

func TestInteractions(t *testing.T) {
	svc, customer := newTestService(t)
	ctx := context.Background()

	_, err := svc.LogInteraction(ctx, InteractionInput{CustomerID: customer.ID, Kind: "call"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	for i := 1; i <= RecentInteractionsLimit+5; i++ {
		day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		_, err := svc.LogInteraction(ctx, InteractionInput{
			CustomerID: customer.ID,
			Kind:       "call",
			Title:      fmt.Sprintf("call %d", i),
			Date:       day.Format(time.DateOnly),
		})
		require.NoError(t, err)
	}
	undated, err := svc.LogInteraction(ctx, InteractionInput{CustomerID: customer.ID, Kind: "visit", Title: "walk-in"})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-15", undated.Date)

	recent, err := svc.RecentInteractions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, RecentInteractionsLimit)
	assert.Equal(t, "walk-in", recent[0].Title)
	assert.Equal(t, "call 55", recent[1].Title)

	few, err := svc.RecentInteractions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, few, 3)
}
