// Package crm summarizes the sales pipeline and customer follow-ups.
package crm

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/period"
	"github.com/bizdash/bizdash/internal/records"
)

// RecentInteractionsLimit caps the interaction feed.
const RecentInteractionsLimit = 50

var (
	ErrNotFound     = errors.New("crm: record not found")
	ErrInvalidInput = errors.New("crm: invalid input")
)

var hundred = decimal.NewFromInt(100)

// StageSummary aggregates the opportunities in one stage.
type StageSummary struct {
	Stage    records.PipelineStage `json:"stage"`
	Count    int                   `json:"count"`
	Value    decimal.Decimal       `json:"value"`
	Weighted decimal.Decimal       `json:"weighted"`
}

// Weighted is value scaled by the win probability percentage.
func Weighted(e records.PipelineEntry) decimal.Decimal {
	return e.EstimatedValue.Mul(decimal.NewFromInt(int64(e.Probability))).Div(hundred)
}

// SummarizePipeline returns one summary per known stage in funnel order,
// including empty stages. Entries in unknown stages are ignored.
func SummarizePipeline(entries []records.PipelineEntry) []StageSummary {
	out := make([]StageSummary, len(records.PipelineStages))
	index := make(map[records.PipelineStage]int, len(out))
	for i, stage := range records.PipelineStages {
		out[i] = StageSummary{Stage: stage}
		index[stage] = i
	}
	for _, e := range entries {
		i, ok := index[e.Stage]
		if !ok {
			continue
		}
		out[i].Count++
		out[i].Value = out[i].Value.Add(e.EstimatedValue)
		out[i].Weighted = out[i].Weighted.Add(Weighted(e))
	}
	return out
}

// Forecast is the weighted value of deals still open.
func Forecast(stages []StageSummary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range stages {
		if s.Stage == records.StageProspect || s.Stage == records.StageNegotiation {
			total = total.Add(s.Weighted)
		}
	}
	return total
}

// OverdueTasks returns open tasks due before today, oldest first. Tasks
// without a due date never become overdue.
func OverdueTasks(tasks []records.Task, now time.Time) []records.Task {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]records.Task, 0)
	for _, t := range tasks {
		if t.Completed || t.DueDate == nil {
			continue
		}
		due, err := period.ParseDate(*t.DueDate)
		if err != nil {
			continue
		}
		if due.Before(today) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DueDate < *out[j].DueDate })
	return out
}
