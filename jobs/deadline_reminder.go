package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizdash/bizdash/internal/jobs"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/tax"
)

// DefaultReminderDays is the look-ahead window used when none is configured.
const DefaultReminderDays = 7

// DeadlineSource lists tax deadlines needing attention.
type DeadlineSource interface {
	DueSoon(ctx context.Context, days int) (tax.Reminder, error)
}

// DeadlineReminderJob logs upcoming and overdue tax deadlines and, when a
// recipient is configured, queues a summary email.
type DeadlineReminderJob struct {
	Tax       DeadlineSource
	Mailer    Enqueuer
	Recipient string
	Days      int
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDeadlineReminderJob wires dependencies for the reminder handler. mailer
// may be nil.
func NewDeadlineReminderJob(source DeadlineSource, mailer Enqueuer, recipient string, days int, logger *slog.Logger, metrics *jobmetrics.Metrics) *DeadlineReminderJob {
	if days <= 0 {
		days = DefaultReminderDays
	}
	return &DeadlineReminderJob{Tax: source, Mailer: mailer, Recipient: recipient, Days: days, Logger: logger, Metrics: metrics}
}

// Handle processes reminder tasks.
func (j *DeadlineReminderJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Tax == nil {
		return errors.New("deadline reminder: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskTaxDeadlineReminder)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskTaxDeadlineReminder))

	reminder, err := j.Tax.DueSoon(ctx, j.Days)
	if err != nil {
		logger.Error("load tax deadlines", slog.Any("error", err))
		return err
	}
	if reminder.Empty() {
		logger.Info("no tax deadlines need attention", slog.Int("days", j.Days))
		return nil
	}
	for _, d := range reminder.Overdue {
		logger.Warn("tax deadline overdue", slog.String("name", d.Name), slog.String("due_date", d.DueDate))
	}
	for _, d := range reminder.Upcoming {
		logger.Info("tax deadline upcoming", slog.String("name", d.Name), slog.String("due_date", d.DueDate))
	}
	metrics.AddReminders("overdue", len(reminder.Overdue))
	metrics.AddReminders("upcoming", len(reminder.Upcoming))

	if j.Mailer == nil || j.Recipient == "" {
		return nil
	}
	payload := SendEmailPayload{
		To:      j.Recipient,
		Subject: fmt.Sprintf("Tax deadlines: %d overdue, %d upcoming", len(reminder.Overdue), len(reminder.Upcoming)),
		Body:    reminderBody(reminder),
	}
	if _, err := j.Mailer.EnqueueSendEmail(ctx, payload); err != nil {
		logger.Error("enqueue reminder email", slog.Any("error", err))
		return err
	}
	return nil
}

func reminderBody(r tax.Reminder) string {
	var b strings.Builder
	write := func(title string, list []records.TaxDeadline) {
		if len(list) == 0 {
			return
		}
		b.WriteString(title)
		b.WriteString(":\n")
		for _, d := range list {
			fmt.Fprintf(&b, "- %s due %s (estimated %s)\n", d.Name, d.DueDate, d.EstimatedAmount.StringFixed(2))
		}
	}
	write("Overdue", r.Overdue)
	write("Upcoming", r.Upcoming)
	return b.String()
}
