package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"tenant-fanout-pipeline/internal/config"
	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/adapter"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
	"tenant-fanout-pipeline/internal/infra/adapters/runner"
	pg "tenant-fanout-pipeline/internal/infra/db/postgres"
	"tenant-fanout-pipeline/internal/infra/logging"
	red "tenant-fanout-pipeline/internal/infra/redis"
	"tenant-fanout-pipeline/internal/usecase"
)

// runctl is the manual invocation path. A bare run triggers a full enqueue
// pass; -tenant reprocesses a single tenant immediately, bypassing the queue.
// Exit code is non-zero only for setup errors; a tenant's own failure is
// reported inside the printed summary.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	tenantID := flag.String("tenant", "", "reprocess this tenant immediately, bypassing the queue")
	jobKey := flag.String("job-key", "", "override the clock-derived job key")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, false)
	ctx := context.Background()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	jobLogRepo := pg.NewJobLogRepo(pool)
	tenantRepo := pg.NewTenantRepo(pool)
	completionRepo := pg.NewCompletionRepo(pool)

	var primary repository.JobStore
	if cfg.Queue.Driver == "redis" {
		cli, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer cli.Close()
		primary = red.NewJobStore(cli, "primary")
	} else {
		primary = pg.NewJobStore(pool, tm, "primary")
	}

	var jobRunner adapter.JobRunner
	if cfg.Runner.Mode == "webhook" {
		jobRunner = runner.NewWebhookRunner(cfg.Runner.WebhookURL, cfg.Runner.WebhookToken, cfg.Runner.Timeout.Std(), logger)
	} else {
		jobRunner = runner.NewCompletionRunner(completionRepo, logger)
	}

	granularity := model.PeriodGranularity(cfg.Scheduler.Period)

	if *tenantID != "" {
		if _, err := tenantRepo.FindByID(ctx, repository.NoTX, *tenantID); err != nil {
			log.Fatalf("tenant %s: %v", *tenantID, err)
		}
		processUC := usecase.NewProcessUseCase(primary, jobLogRepo, completionRepo, jobRunner, granularity, logger)
		summary, err := processUC.RunDirect(ctx, *tenantID, *jobKey)
		if err != nil {
			log.Fatalf("direct run: %v", err)
		}
		printJSON(summary)
		return
	}

	enqueueUC := usecase.NewEnqueueUseCase(primary, jobLogRepo, tenantRepo, completionRepo, granularity, logger)
	summary, err := enqueueUC.RunPass(ctx, *jobKey)
	if err != nil {
		log.Fatalf("enqueue pass: %v", err)
	}
	printJSON(summary)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
