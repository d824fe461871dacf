package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/warelog-erp/warelog-erp/internal/app"
	jobmetrics "github.com/warelog-erp/warelog-erp/internal/jobs"
	"github.com/warelog-erp/warelog-erp/internal/platform/db"
	"github.com/warelog-erp/warelog-erp/internal/tickets"
	"github.com/warelog-erp/warelog-erp/jobs"
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

	pool, err := db.New(ctx, db.Config{
		DSN:             cfg.PGDSN,
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGConnLifetime,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	ticketsService := tickets.NewService(tickets.NewRepository(pool), logger)

	dispatchJob := jobs.NewTicketDispatchJob(ticketsService, nil, logger, metrics)
	reindexJob := jobs.NewReceiptReindexJob(pool, logger, metrics)
	finalizedJob := jobs.NewReceiptFinalizedJob(dispatchJob, logger, metrics)

	dispatchTask, err := jobs.NewTicketDispatchTask(100)
	if err != nil {
		logger.Error("build dispatch task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTicketDispatch, Handler: dispatchJob.Handle},
			{Type: jobs.TaskReceiptReindex, Handler: reindexJob.Handle},
			{Type: jobs.TaskReceiptFinalized, Handler: finalizedJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every " + cfg.DispatchInterval.String(), Task: dispatchTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
