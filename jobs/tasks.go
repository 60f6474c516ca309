package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending notification emails.
	TaskTypeSendEmail = "mail:send"
	// TaskAnalyticsDashboardWarmup recomputes cached dashboard views.
	TaskAnalyticsDashboardWarmup = "analytics:dashboard_warmup"
	// TaskTaxDeadlineReminder scans open tax deadlines.
	TaskTaxDeadlineReminder = "tax:deadline_reminder"
	// TaskPlanningAlertScan compares budgets against actuals.
	TaskPlanningAlertScan = "planning:alert_scan"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler returns a handler for TaskTypeSendEmail. Delivery is
// logged only; no mail transport is configured.
func NewSendEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskTypeSendEmail))
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.To == "" {
			logger.Warn("dropping email without recipient", slog.String("subject", payload.Subject))
			return asynq.SkipRetry
		}
		logger.Info("send email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
		return nil
	}
}
