package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizdash/bizdash/internal/analytics"
	jobmetrics "github.com/bizdash/bizdash/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupTimeout = 30 * time.Second

// DashboardSource is the subset of the analytics service the warmup needs.
type DashboardSource interface {
	GetDashboard(ctx context.Context) (analytics.Dashboard, error)
	GetCashflow(ctx context.Context, filter analytics.TrendFilter) (analytics.Cashflow, error)
	GetFinancialKPIs(ctx context.Context) (analytics.FinancialKPIs, error)
}

// DashboardWarmupJob recomputes the cached dashboard views so the first
// request after an invalidation is served from Redis.
type DashboardWarmupJob struct {
	Analytics DashboardSource
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(source DashboardSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Analytics: source,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	tracker := j.metrics().Track(TaskAnalyticsDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := j.now()
	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	dashboard, err := j.Analytics.GetDashboard(ctx)
	if err != nil {
		logger.Error("warm dashboard", slog.Any("error", err))
		return err
	}
	cashflow, err := j.Analytics.GetCashflow(ctx, analytics.TrendFilter{})
	if err != nil {
		logger.Error("warm cashflow", slog.Any("error", err))
		return err
	}
	if _, err := j.Analytics.GetFinancialKPIs(ctx); err != nil {
		logger.Error("warm financial kpis", slog.Any("error", err))
		return err
	}

	logger.Info("completed dashboard warmup",
		slog.String("period", dashboard.Period),
		slog.Int("cashflow_periods", len(cashflow.Periods)),
		slog.Duration("duration", j.now().Sub(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
