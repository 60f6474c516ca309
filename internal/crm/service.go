package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/bizdash/bizdash/internal/records"
)

// OpportunityInput opens a pipeline entry for a customer.
type OpportunityInput struct {
	CustomerID     string                `json:"customer_id" validate:"required"`
	Stage          records.PipelineStage `json:"stage" validate:"omitempty,oneof=prospect negotiation won lost"`
	EstimatedValue decimal.Decimal       `json:"estimated_value"`
	Probability    int                   `json:"probability" validate:"min=0,max=100"`
	Notes          string                `json:"notes" validate:"max=1000"`
}

// TaskInput creates a follow-up task.
type TaskInput struct {
	CustomerID  *string              `json:"customer_id"`
	Title       string               `json:"title" validate:"required,max=200"`
	Description string               `json:"description" validate:"max=1000"`
	Kind        string               `json:"kind" validate:"omitempty,oneof=call meeting follow_up email"`
	DueDate     *string              `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Priority    records.TaskPriority `json:"priority" validate:"omitempty,oneof=high medium low"`
}

// InteractionInput logs a customer touchpoint.
type InteractionInput struct {
	CustomerID  string `json:"customer_id" validate:"required"`
	Kind        string `json:"kind" validate:"required,max=50"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// PipelineReport is the pipeline with its per-stage rollup.
type PipelineReport struct {
	Entries  []records.PipelineEntry `json:"entries"`
	Stages   []StageSummary          `json:"stages"`
	Forecast decimal.Decimal         `json:"forecast"`
}

// TaskBoard lists tasks with the overdue subset.
type TaskBoard struct {
	Tasks   []records.Task `json:"tasks"`
	Overdue []records.Task `json:"overdue"`
}

// Service coordinates pipeline, task and interaction records.
type Service struct {
	store    records.Store
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds the service.
func NewService(store records.Store, logger *slog.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, validate: validator.New(), logger: logger, now: now}
}

func (s *Service) today() string {
	return s.now().UTC().Format(time.DateOnly)
}

// Pipeline loads every opportunity and summarizes it by stage.
func (s *Service) Pipeline(ctx context.Context) (PipelineReport, error) {
	entries, err := records.FetchAll[records.PipelineEntry](ctx, s.store, records.Pipeline, records.Query{}.OrderBy("estimated_value", true))
	if err != nil {
		return PipelineReport{}, err
	}
	stages := SummarizePipeline(entries)
	return PipelineReport{Entries: entries, Stages: stages, Forecast: Forecast(stages)}, nil
}

// AddOpportunity opens a pipeline entry, in the prospect stage by default.
func (s *Service) AddOpportunity(ctx context.Context, input OpportunityInput) (records.PipelineEntry, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.PipelineEntry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.EstimatedValue.IsNegative() {
		return records.PipelineEntry{}, fmt.Errorf("%w: estimated value must not be negative", ErrInvalidInput)
	}
	if err := s.requireCustomer(ctx, input.CustomerID); err != nil {
		return records.PipelineEntry{}, err
	}
	today := s.today()
	entry := records.PipelineEntry{
		CustomerID:     input.CustomerID,
		Stage:          input.Stage,
		EstimatedValue: input.EstimatedValue,
		Probability:    input.Probability,
		StageDate:      &today,
		Notes:          input.Notes,
	}
	if entry.Stage == "" {
		entry.Stage = records.StageProspect
	}
	if _, err := s.store.Insert(ctx, records.Pipeline, &entry); err != nil {
		return records.PipelineEntry{}, fmt.Errorf("add opportunity: %w", err)
	}
	return entry, nil
}

// MoveStage moves an opportunity to stage and stamps the change date. Notes
// replace the existing ones when given.
func (s *Service) MoveStage(ctx context.Context, id string, stage records.PipelineStage, notes string) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, stage)
	}
	patch := map[string]any{"stage": string(stage), "stage_date": s.today()}
	if notes != "" {
		patch["notes"] = notes
	}
	err := s.store.Update(ctx, records.Pipeline, id, patch)
	if errors.Is(err, records.ErrNotFound) {
		return fmt.Errorf("%w: opportunity %s", ErrNotFound, id)
	}
	if err == nil {
		s.logger.Info("pipeline stage changed", slog.String("id", id), slog.String("stage", string(stage)))
	}
	return err
}

// Tasks returns every task by due date along with the overdue ones.
func (s *Service) Tasks(ctx context.Context) (TaskBoard, error) {
	tasks, err := records.FetchAll[records.Task](ctx, s.store, records.Tasks, records.Query{}.OrderBy("due_date", false))
	if err != nil {
		return TaskBoard{}, err
	}
	return TaskBoard{Tasks: tasks, Overdue: OverdueTasks(tasks, s.now())}, nil
}

// CreateTask validates and stores an open task.
func (s *Service) CreateTask(ctx context.Context, input TaskInput) (records.Task, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.CustomerID != nil && *input.CustomerID != "" {
		if err := s.requireCustomer(ctx, *input.CustomerID); err != nil {
			return records.Task{}, err
		}
	}
	task := records.Task{
		CustomerID:  input.CustomerID,
		Title:       input.Title,
		Description: input.Description,
		Kind:        input.Kind,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
	}
	if task.Kind == "" {
		task.Kind = "follow_up"
	}
	if task.Priority == "" {
		task.Priority = records.PriorityMedium
	}
	if _, err := s.store.Insert(ctx, records.Tasks, &task); err != nil {
		return records.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// CompleteTask closes a task today.
func (s *Service) CompleteTask(ctx context.Context, id string) error {
	err := s.store.Update(ctx, records.Tasks, id, map[string]any{
		"completed":      true,
		"completed_date": s.today(),
	})
	if errors.Is(err, records.ErrNotFound) {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return err
}

// RecentInteractions returns the newest interactions, at most limit. A
// non-positive limit uses RecentInteractionsLimit.
func (s *Service) RecentInteractions(ctx context.Context, limit int) ([]records.Interaction, error) {
	if limit <= 0 || limit > RecentInteractionsLimit {
		limit = RecentInteractionsLimit
	}
	return records.FetchAll[records.Interaction](ctx, s.store, records.Interactions, records.Query{}.OrderBy("date", true).Take(limit))
}

// LogInteraction records a touchpoint, dated today unless given.
func (s *Service) LogInteraction(ctx context.Context, input InteractionInput) (records.Interaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return records.Interaction{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.requireCustomer(ctx, input.CustomerID); err != nil {
		return records.Interaction{}, err
	}
	interaction := records.Interaction{
		CustomerID:  input.CustomerID,
		Kind:        input.Kind,
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
	}
	if interaction.Date == "" {
		interaction.Date = s.today()
	}
	if _, err := s.store.Insert(ctx, records.Interactions, &interaction); err != nil {
		return records.Interaction{}, fmt.Errorf("log interaction: %w", err)
	}
	return interaction, nil
}

func (s *Service) requireCustomer(ctx context.Context, id string) error {
	n, err := s.store.Count(ctx, records.Customers, records.Query{}.Where("id", records.OpEq, id))
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	return nil
}
