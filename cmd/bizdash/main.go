package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizdash/bizdash/cmd/bizdash/cli"
	"github.com/bizdash/bizdash/internal/app"
	"github.com/bizdash/bizdash/internal/demo"
	"github.com/bizdash/bizdash/internal/observability"
	"github.com/bizdash/bizdash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 {
		os.Exit(runCommand(ctx, cfg, logger, os.Args[1], os.Args[2:]))
	}
	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, name string, args []string) int {
	switch name {
	case "export":
		opts, err := cli.ParseExportArgs(args, os.Stderr)
		if err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			return 2
		}
		backends, err := app.OpenBackends(ctx, cfg, logger)
		if err != nil {
			logger.Error("open backends", slog.Any("error", err))
			return 1
		}
		defer backends.Close(logger)
		services, err := app.NewServices(cfg, backends, logger)
		if err != nil {
			logger.Error("wire services", slog.Any("error", err))
			return 1
		}
		opts.Logger = logger
		return cli.ExportCommand(ctx, services.Analytics, opts)
	case "seed":
		opts, err := cli.ParseSeedArgs(args, os.Stderr)
		if err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			return 2
		}
		backends, err := app.OpenBackends(ctx, cfg, logger)
		if err != nil {
			logger.Error("open backends", slog.Any("error", err))
			return 1
		}
		defer backends.Close(logger)
		return cli.SeedCommand(ctx, backends.Store, opts, logger, os.Stdout, os.Stderr)
	case "jobs":
		jobsCLI, err := cli.NewJobsCLI(cfg.QueueRedis())
		if err != nil {
			logger.Error("init jobs cli", slog.Any("error", err))
			return 1
		}
		defer func() { _ = jobsCLI.Close() }()
		return jobsCLI.JobsCommand(ctx, args, os.Stdout, os.Stderr)
	default:
		logger.Error("unknown command", slog.String("command", name))
		return 2
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close(logger)

	services, err := app.NewServices(cfg, backends, logger)
	if err != nil {
		return err
	}
	services.Analytics.Cache().ListenForInvalidation(ctx, logger)
	if cfg.SeedDemo && cfg.StoreDriver == app.StoreDriverMemory {
		if _, err := demo.Seed(ctx, backends.Store, demo.Options{Months: cfg.CashflowMonths}, logger); err != nil {
			return err
		}
	}

	metrics := observability.NewMetrics()
	var inspector *asynq.Inspector
	if backends.Redis != nil {
		inspector = asynq.NewInspector(cfg.QueueRedis())
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}
	router := app.NewRouter(app.NewRouterParams(cfg, logger, services, metrics, jobs.NewHandler(inspector, logger)))

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
