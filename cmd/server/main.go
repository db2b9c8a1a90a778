package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"climate-dashboard/internal/config"
	"climate-dashboard/internal/handlers"
	"climate-dashboard/internal/repository"
	"climate-dashboard/internal/services"
	"climate-dashboard/pkg/logging"
	"climate-dashboard/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("climate-dashboard", version, logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting climate dashboard API server", logging.Fields{
		"version":          version,
		"server_host":      cfg.Server.Host,
		"server_port":      cfg.Server.Port,
		"dataset_ttl":      cfg.Store.DatasetTTL.String(),
		"max_datasets":     cfg.Store.MaxDatasets,
		"max_upload_bytes": cfg.Server.MaxUploadBytes,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_dashboard")

	// Initialize repository
	datasetRepo := repository.NewMemoryRepository(repository.Options{
		TTL:         cfg.Store.DatasetTTL,
		MaxDatasets: cfg.Store.MaxDatasets,
	}, logger, metricsCollector)

	retention := services.NewRetentionScheduler(datasetRepo, logger)
	if err := retention.Start(cfg.Store.EvictionSchedule); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to schedule dataset eviction", logging.Fields{
			"schedule": cfg.Store.EvictionSchedule,
		}, err)
	}

	// Initialize services
	ingestionService := services.NewIngestionService(datasetRepo, logger, metricsCollector, cfg.Server.MaxPayloadBytes)
	datasetService := services.NewDatasetService(datasetRepo, logger, metricsCollector, services.ThresholdSettings{
		Default: cfg.Dashboard.ThresholdDefault,
		Min:     cfg.Dashboard.ThresholdMin,
		Max:     cfg.Dashboard.ThresholdMax,
	})
	dashboardService := services.NewDashboardService(datasetRepo, logger, metricsCollector, cfg.Dashboard.ThresholdDefault)

	// Initialize handlers
	datasetHandler := handlers.NewDatasetHandler(
		ingestionService,
		datasetService,
		dashboardService,
		cfg.Theme,
		cfg.Server.MaxUploadBytes,
		logger,
		metricsCollector,
	)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestLogging(logger))

	// Register routes
	datasetHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}
	retention.Stop(shutdownCtx)

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
