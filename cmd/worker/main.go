package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bizdash/bizdash/internal/app"
	jobmetrics "github.com/bizdash/bizdash/internal/jobs"
	"github.com/bizdash/bizdash/internal/variance"
	"github.com/bizdash/bizdash/jobs"
)

const (
	warmupSpec   = "@hourly"
	reminderSpec = "0 7 * * *"
	alertSpec    = "30 7 * * *"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("open backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer backends.Close(logger)

	services, err := app.NewServices(cfg, backends, logger)
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}
	services.Analytics.Cache().ListenForInvalidation(ctx, logger)

	redisOpts := cfg.QueueRedis()
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = client.Close() }()

	metrics := jobmetrics.NewMetrics(nil)
	warmupJob := jobs.NewDashboardWarmupJob(services.Analytics, logger, metrics)
	reminderJob := jobs.NewDeadlineReminderJob(services.Tax, client, cfg.ReminderEmail, cfg.DeadlineReminderDays, logger, metrics)
	alertJob := variance.NewAlertScanJob(services.Variance, logger, metrics)

	retry := []asynq.Option{asynq.MaxRetry(3)}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalyticsDashboardWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskTaxDeadlineReminder, Handler: reminderJob.Handle},
			{Type: jobs.TaskPlanningAlertScan, Handler: alertJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: warmupSpec, Task: asynq.NewTask(jobs.TaskAnalyticsDashboardWarmup, nil), Options: retry},
			{Spec: reminderSpec, Task: asynq.NewTask(jobs.TaskTaxDeadlineReminder, nil), Options: retry},
			{Spec: alertSpec, Task: asynq.NewTask(jobs.TaskPlanningAlertScan, nil), Options: retry},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
