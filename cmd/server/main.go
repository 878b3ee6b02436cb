package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/hirewell/internal"
	"github.com/DukeRupert/hirewell/internal/jobs"
	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/DukeRupert/hirewell/internal/middleware"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/DukeRupert/hirewell/internal/service"
	"github.com/DukeRupert/hirewell/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize services
	services := service.New(repo, logger, service.SubscriptionServiceConfig{
		DefaultCurrency: cfg.DefaultCurrency,
		SweepBatchSize:  cfg.SweepBatchSize,
	})

	// ==========================================================================
	// Scheduled tasks
	// ==========================================================================

	var w *worker.Worker
	if cfg.WorkerEnabled {
		w, err = newWorker(cfg, logger, services.Subscriptions, services.Listings)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		w.Start()
		if cfg.WorkerCatchUp {
			if err := w.CatchUp(worker.TaskSweepExpiredSubscriptions, worker.TaskExpireJobListings); err != nil {
				return fmt.Errorf("worker catch-up failed: %w", err)
			}
		}
	} else {
		logger.Info("Worker disabled")
	}

	// ==========================================================================
	// Operational HTTP server
	// ==========================================================================

	if cfg.MetricsUsername == "" {
		logger.Warn("Metrics endpoint is unprotected, set METRICS_USERNAME and METRICS_PASSWORD")
	}

	loggingMw := middleware.RequestLogger(logger)
	publicStack := middleware.Stack(loggingMw)
	metricsStack := middleware.Stack(loggingMw, middleware.MetricsAuth(cfg.MetricsUsername, cfg.MetricsPassword))

	mux := http.NewServeMux()

	mux.Handle("GET /health", publicStack(metrics.Instrument("/health", http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("Health check failed", "error", err)
			http.Error(rw, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("OK"))
	}))))

	mux.Handle("GET /metrics", metricsStack(promhttp.Handler()))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Stop the scheduler before the server
	if w != nil {
		w.Stop()
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newWorker registers the maintenance tasks on their schedules.
func newWorker(
	cfg *internal.Config,
	logger *slog.Logger,
	subscriptions service.SubscriptionService,
	listings service.ListingService,
) (*worker.Worker, error) {
	w, err := worker.New(worker.Config{
		JobTimeout:      cfg.WorkerJobTimeout,
		ShutdownTimeout: cfg.WorkerShutdownTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := w.Register(jobs.NewSweepSubscriptionsHandler(subscriptions, logger), cfg.SweepSchedule); err != nil {
		return nil, err
	}
	if err := w.Register(jobs.NewExpireListingsHandler(listings, logger), cfg.JobExpirySchedule); err != nil {
		return nil, err
	}
	return w, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
