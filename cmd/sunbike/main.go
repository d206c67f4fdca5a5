package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sunbike-erp/sunbike-erp/internal/app"
	"github.com/sunbike-erp/sunbike-erp/internal/branches"
	"github.com/sunbike-erp/sunbike-erp/internal/customers"
	"github.com/sunbike-erp/sunbike-erp/internal/invoice"
	"github.com/sunbike-erp/sunbike-erp/internal/payments"
	"github.com/sunbike-erp/sunbike-erp/internal/platform/cache"
	"github.com/sunbike-erp/sunbike-erp/internal/platform/db"
	"github.com/sunbike-erp/sunbike-erp/internal/vehicles"
	"github.com/sunbike-erp/sunbike-erp/internal/workorders"
	"github.com/sunbike-erp/sunbike-erp/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Redis is optional: without it invoices still render, just uncached.
	var invoiceCache *invoice.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, invoice cache disabled", slog.Any("error", err))
	} else {
		invoiceCache = invoice.NewCache(redisClient, cfg.InvoiceCacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	branchRepo := branches.NewRepository(dbpool)
	branchService := branches.NewService(branchRepo)
	branchHandler := branches.NewHandler(logger, branchService)

	customerRepo := customers.NewRepository(dbpool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService)

	vehicleRepo := vehicles.NewRepository(dbpool)
	vehicleService := vehicles.NewService(vehicleRepo)
	vehicleHandler := vehicles.NewHandler(logger, vehicleService)

	orderRepo := workorders.NewRepository(dbpool)
	orderService := workorders.NewService(orderRepo, cfg.TaxRate, cfg.Location())
	orderHandler := workorders.NewHandler(logger, orderService)

	paymentRepo := payments.NewRepository(dbpool)
	paymentService := payments.NewService(paymentRepo)
	paymentHandler := payments.NewHandler(logger, paymentService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	if err := reportClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	invoiceService := invoice.NewService(orderService, branchService, customerService, vehicleService,
		reportClient, invoiceCache, cfg.Location())
	invoiceHandler := invoice.NewHandler(logger, invoiceService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		BranchHandler:    branchHandler,
		CustomerHandler:  customerHandler,
		VehicleHandler:   vehicleHandler,
		WorkOrderHandler: orderHandler,
		PaymentHandler:   paymentHandler,
		InvoiceHandler:   invoiceHandler,
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
