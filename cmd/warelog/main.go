package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/warelog-erp/warelog-erp/internal/app"
	"github.com/warelog-erp/warelog-erp/internal/inventory"
	"github.com/warelog-erp/warelog-erp/internal/observability"
	"github.com/warelog-erp/warelog-erp/internal/platform/cache"
	"github.com/warelog-erp/warelog-erp/internal/platform/db"
	"github.com/warelog-erp/warelog-erp/internal/procurement"
	"github.com/warelog-erp/warelog-erp/internal/receipt"
	"github.com/warelog-erp/warelog-erp/internal/shared"
	"github.com/warelog-erp/warelog-erp/internal/tickets"
	"github.com/warelog-erp/warelog-erp/jobs"
)

func main() {
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)
	finalizeLock := shared.NewFinalizeLock(redisClient, cfg.FinalizeLockTTL)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	procurementService := procurement.NewService(procurement.NewRepository(pool))
	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger, inventory.ServiceConfig{
		AllowNegativeStock: cfg.AllowNegativeStock,
	})
	ticketsService := tickets.NewService(tickets.NewRepository(pool), logger)

	receiptService := receipt.NewService(
		receipt.NewRepository(pool),
		procurementService,
		ticketsService,
		inventory.NewLedgerAdapter(inventoryService, metrics),
		auditLogger,
		jobsClient,
		idempotency,
		finalizeLock,
		receipt.CaseConfig{
			Damage:   cfg.CaseOnDamage,
			Wrong:    cfg.CaseOnWrongItem,
			Rejected: cfg.CaseOnRejection,
			Missing:  cfg.CaseOnShortfall,
			Extra:    cfg.CaseOnOverdelivery,
		},
		logger,
	)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		ReceiptHandler:     receipt.NewHandler(logger, receiptService, metrics),
		ProcurementHandler: procurement.NewHandler(logger, procurementService),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService),
		TicketsHandler:     tickets.NewHandler(logger, ticketsService),
		JobsHandler:        jobs.NewHandler(asynq.NewInspector(redisOpts), jobsClient, logger),
		Metrics:            metrics,
	})

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
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
