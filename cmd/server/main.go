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

	"climate-stats/internal/config"
	"climate-stats/internal/geocode"
	"climate-stats/internal/handlers"
	"climate-stats/internal/repository"
	"climate-stats/internal/services"
	"climate-stats/pkg/database"
	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("climate-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting climate statistics API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_host":     cfg.Database.Host,
		"db_name":     cfg.Database.Database,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_stats")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository
	observationRepo := repository.NewObservationRepository(db, logger, metricsCollector)

	// Open the durable geocode cache. A failure here is not fatal: the
	// geocoder degrades to provider-only resolution.
	var geocodeCache geocode.CacheStore
	cache, err := geocode.OpenCache(cfg.GeocodeCache.Path)
	if err != nil {
		logger.Error(ctx, "[STARTUP] Geocode cache unavailable, continuing without it", logging.Fields{
			"path": cfg.GeocodeCache.Path,
		}, err)
	} else {
		geocodeCache = cache
		defer cache.Close()
	}

	// The external provider is optional; without it, uncached lookups
	// report the capability as unavailable.
	var provider geocode.Provider
	if cfg.Geocoder.Enabled {
		provider = geocode.NewNominatimProvider(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
	}

	geocoder := geocode.NewGeocoder(geocodeCache, provider, logger, metricsCollector)

	// Initialize services
	climateService := services.NewClimateService(observationRepo, logger, metricsCollector)

	// Initialize handlers
	climateHandler := handlers.NewClimateHandler(climateService, observationRepo, geocoder, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	climateHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
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

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
