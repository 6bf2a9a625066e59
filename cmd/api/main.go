package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/txtalert/platform/internal/api/router"
	"github.com/txtalert/platform/internal/clinics"
	appconfig "github.com/txtalert/platform/internal/config"
	"github.com/txtalert/platform/internal/http/handlers"
	"github.com/txtalert/platform/internal/importer"
	"github.com/txtalert/platform/internal/observability/metrics"
	"github.com/txtalert/platform/internal/patients"
	"github.com/txtalert/platform/internal/visits"
	"github.com/txtalert/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting txtalert API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	// Separate database/sql handle for the aggregate stats queries.
	statsDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open stats db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = statsDB.Close() }()

	metricsHandler, importMetrics := setupImportMetrics()

	patientStore := patients.NewPostgresStore(pool)
	visitStore := visits.NewPostgresStore(pool)
	clinicStore := clinics.NewPostgresStore(pool)

	caseClient, err := importer.NewClient(importer.ClientConfig{
		BaseURL:    cfg.CaseAPIBaseURL,
		Token:      cfg.CaseAPIToken,
		Timeout:    cfg.CaseAPITimeout,
		MaxRetries: cfg.CaseAPIMaxRetries,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build case api client", "error", err)
		os.Exit(1)
	}

	orchestrator := importer.NewOrchestrator(importer.Config{
		VisitSource:   caseClient,
		PatientSource: caseClient,
		Resolver:      patients.NewResolver(patientStore, logger),
		Reconciler:    visits.NewReconciler(visitStore, logger),
		Clinics:       clinicStore,
		Metrics:       importMetrics,
		Logger:        logger,
	})

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		ImportsHandler:     handlers.NewImportsHandler(orchestrator, orchestrator, cfg.ImportSources, logger),
		PatientsHandler:    handlers.NewPatientsHandler(patientStore, logger),
		StatsHandler:       handlers.NewStatsHandler(statsDB, logger),
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// connectPostgresPool opens the shared pgx pool, or returns nil when no URL
// is configured.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
	}
	return pool
}

// setupImportMetrics registers the platform metrics on a fresh registry and
// returns the scrape handler alongside them.
func setupImportMetrics() (http.Handler, *metrics.ImportMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	importMetrics := metrics.NewImportMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), importMetrics
}
