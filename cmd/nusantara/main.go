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
	"github.com/joho/godotenv"

	"github.com/nusantara-erp/nusantara-erp/internal/app"
	"github.com/nusantara-erp/nusantara-erp/internal/compliance"
	compliancehttp "github.com/nusantara-erp/nusantara-erp/internal/compliance/http"
	"github.com/nusantara-erp/nusantara-erp/internal/finance"
	financehttp "github.com/nusantara-erp/nusantara-erp/internal/finance/http"
	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
	"github.com/nusantara-erp/nusantara-erp/internal/observability"
	"github.com/nusantara-erp/nusantara-erp/internal/platform/cache"
	"github.com/nusantara-erp/nusantara-erp/internal/platform/db"
	"github.com/nusantara-erp/nusantara-erp/internal/shared"
	"github.com/nusantara-erp/nusantara-erp/internal/tax"
	taxhttp "github.com/nusantara-erp/nusantara-erp/internal/tax/http"
	"github.com/nusantara-erp/nusantara-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var reportCache *cache.ReportCache
	var jobsClient *jobs.Client
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching and job enqueue disabled", slog.Any("error", err))
	} else {
		reportCache = cache.NewReportCache(redisClient, cfg.ReportCacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		jobsClient, err = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Warn("asynq client unavailable, job enqueue disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := jobsClient.Close(); err != nil {
					logger.Warn("asynq client close", slog.Any("error", err))
				}
			}()
		}
	}

	gateway := ledger.NewRepository(pool)
	chart := finance.DefaultStatementChart()

	statements := finance.NewStatementService(gateway, chart, logger)
	cashflow := finance.NewCashFlowService(gateway, chart, statements, logger)
	equity := finance.NewEquityService(gateway, chart, statements, logger)
	taxService := tax.NewService(gateway, logger)
	complianceService := compliance.NewService(gateway, chart.DirectCostSubTypes, logger)

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	financeHandler := financehttp.NewHandler(logger, statements, cashflow, equity, reportCache, auditLogger, metrics, jobsClient)
	taxHandler := taxhttp.NewHandler(logger, taxService)
	complianceHandler := compliancehttp.NewHandler(logger, complianceService, jobsClient)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		FinanceHandler:    financeHandler,
		TaxHandler:        taxHandler,
		ComplianceHandler: complianceHandler,
		Pool:              pool,
		Metrics:           metrics,
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
