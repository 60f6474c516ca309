package variance

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizdash/bizdash/internal/jobs"
	"github.com/bizdash/bizdash/jobs"
)

// AlertScanJob logs plan deviations for the current window.
type AlertScanJob struct {
	service *Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAlertScanJob constructs a job handler.
func NewAlertScanJob(service *Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AlertScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertScanJob{service: service, logger: logger.With(slog.String("job", jobs.TaskPlanningAlertScan)), metrics: metrics}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *AlertScanJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := j.metrics.Track(jobs.TaskPlanningAlertScan)
	defer func() { err = tracker.End(err) }()

	report, err := j.service.Compare(ctx, ComparisonFilter{})
	if err != nil {
		j.logger.Error("plan alert scan", slog.Any("error", err))
		return err
	}
	for _, alert := range report.Alerts {
		j.logger.Warn("plan deviation",
			slog.String("period", alert.Period),
			slog.String("kind", string(alert.Kind)),
			slog.String("percentage", alert.Percentage.StringFixed(2)))
		j.metrics.AddAlerts(string(alert.Kind), 1)
	}
	j.logger.Info("plan alert scan complete",
		slog.Int("comparisons", len(report.Comparisons)),
		slog.Int("alerts", len(report.Alerts)))
	return nil
}
