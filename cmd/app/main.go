package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tenant-fanout-pipeline/internal/config"
	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/adapter"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
	alerts "tenant-fanout-pipeline/internal/infra/adapters/alert"
	"tenant-fanout-pipeline/internal/infra/adapters/runner"
	pg "tenant-fanout-pipeline/internal/infra/db/postgres"
	"tenant-fanout-pipeline/internal/infra/logging"
	"tenant-fanout-pipeline/internal/infra/metrics"
	red "tenant-fanout-pipeline/internal/infra/redis"
	"tenant-fanout-pipeline/internal/infra/sched"
	"tenant-fanout-pipeline/internal/infra/web"
	"tenant-fanout-pipeline/internal/infra/worker"
	"tenant-fanout-pipeline/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	jobLogRepo := pg.NewJobLogRepo(pool)
	tenantRepo := pg.NewTenantRepo(pool)
	completionRepo := pg.NewCompletionRepo(pool)

	// ---- Job stores (primary + dead-letter share one driver) ----
	var primary, deadLetter repository.JobStore
	switch cfg.Queue.Driver {
	case "redis":
		cli, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer cli.Close()
		primary = red.NewJobStore(cli, "primary")
		deadLetter = red.NewJobStore(cli, "dead_letter")
	default:
		primary = pg.NewJobStore(pool, tm, "primary")
		deadLetter = pg.NewJobStore(pool, tm, "dead_letter")
	}

	// ---- Domain operation ----
	var jobRunner adapter.JobRunner
	switch cfg.Runner.Mode {
	case "webhook":
		jobRunner = runner.NewWebhookRunner(cfg.Runner.WebhookURL, cfg.Runner.WebhookToken, cfg.Runner.Timeout.Std(), logger)
		logger.Info().Str("url", cfg.Runner.WebhookURL).Msg("runner: webhook")
	default:
		jobRunner = runner.NewCompletionRunner(completionRepo, logger)
		logger.Info().Msg("runner: completion-record only")
	}

	// ---- Alert sink ----
	var alertSink adapter.AlertSink
	if cfg.Alert.TelegramToken != "" && cfg.Alert.TelegramChatID != 0 {
		alertSink, err = alerts.NewTelegramSink(cfg.Alert.TelegramToken, cfg.Alert.TelegramChatID, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram alert sink failed")
		}
	} else {
		alertSink = alerts.NewLogSink(logger)
	}

	// ---- Use cases ----
	granularity := model.PeriodGranularity(cfg.Scheduler.Period)
	enqueueUC := usecase.NewEnqueueUseCase(primary, jobLogRepo, tenantRepo, completionRepo, granularity, logger)
	processUC := usecase.NewProcessUseCase(primary, jobLogRepo, completionRepo, jobRunner, granularity, logger)
	statsUC := usecase.NewStatsUseCase(primary, deadLetter, jobLogRepo, logger)

	wpool := worker.NewPool(cfg.Scheduler.Workers, logger)
	wpool.Start(ctx)
	defer wpool.Stop()

	dispatchUC := usecase.NewDispatchUseCase(primary, deadLetter, jobLogRepo, processUC, wpool, alertSink, usecase.DispatchConfig{
		BatchSize:         cfg.Queue.BatchSize,
		VisibilityTimeout: cfg.Queue.VisibilityTimeout.Std(),
		MaxAttempts:       cfg.Queue.MaxAttempts,
	}, logger)

	// ---- Schedulers (enqueue cadence >> dispatch cadence) ----
	enqWorker := sched.NewEnqueueWorker(cfg.Scheduler.EnqueueInterval.Std(), enqueueUC, logger)
	go func() { _ = enqWorker.Run(ctx) }()
	dispWorker := sched.NewDispatchWorker(cfg.Scheduler.DispatchInterval.Std(), dispatchUC, logger)
	go func() { _ = dispWorker.Run(ctx) }()

	// ---- Admin / observability API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SessionTTL.Std())
	srv := web.NewServer(statsUC, enqueueUC, processUC, auth, cfg.Admin.APIKey, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin API server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	_ = server.Shutdown(context.Background())
	cancel()
}
