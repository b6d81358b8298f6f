package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/vendorseo/internal/api"
	"github.com/timmy/vendorseo/internal/config"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/repository"
	"github.com/timmy/vendorseo/internal/service"
	"github.com/timmy/vendorseo/internal/storage"
	"github.com/timmy/vendorseo/internal/telemetry"
)

func main() {
	appLogger := logger.New(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH is used by production deployments.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.OpenRouter.Validate(); err != nil {
		// Keyword generation answers 500 until keys are configured.
		appLogger.WithError(err).Warn("OpenRouter is not fully configured")
	}

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize tracing")
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	stores, err := repository.NewStores(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	defer stores.Close()

	var archive service.RunArchiver
	if cfg.Archive.Enabled {
		objectStorage, err := storage.NewStorage(&cfg.Archive)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		archive = storage.NewRunArchive(objectStorage, cfg.Archive.Prefix)
	}

	overpass := service.NewOverpassClient(&service.OverpassConfig{
		URL:     cfg.Overpass.URL,
		Timeout: cfg.Overpass.Timeout,
	}, metrics)
	autosuggest := service.NewAutosuggestClient(&service.AutosuggestConfig{
		BaseURL: cfg.Autosuggest.BaseURL,
		Timeout: cfg.Autosuggest.Timeout,
	}, metrics)

	// One cursor per process so every request continues from the last good key.
	cursor := service.NewKeyCursor()

	seoService := service.NewSEOService(service.SEODeps{
		Geocoder: service.NewGeocoder(&service.GeocoderConfig{
			BaseURL:   cfg.Geocoder.BaseURL,
			Country:   cfg.Geocoder.Country,
			UserAgent: cfg.Geocoder.UserAgent,
			Timeout:   cfg.Geocoder.Timeout,
		}, metrics),
		Competitors: service.NewCompetitorFinder(overpass, autosuggest, &service.CompetitorFinderConfig{
			RadiusMeters:   cfg.Overpass.RadiusMeters,
			MaxSuggestions: cfg.Autosuggest.MaxSuggestions,
		}, metrics),
		Seeds: autosuggest,
		Gateway: service.NewKeywordGateway(&service.GatewayConfig{
			BaseURL:        cfg.OpenRouter.BaseURL,
			APIKeys:        cfg.OpenRouter.APIKeys,
			Models:         cfg.OpenRouter.Models,
			AttemptTimeout: cfg.OpenRouter.AttemptTimeout,
			Referer:        cfg.OpenRouter.Referer,
			Title:          cfg.OpenRouter.Title,
		}, cursor, metrics),
		Keywords: stores.Keywords,
		Audit:    stores.Audit,
		Archive:  archive,
		Metrics:  metrics,
	})

	router := api.SetupRouter(api.RouterDeps{
		SEO:       seoService,
		Locations: service.NewLocationService(stores.Locations),
		Metrics:   metrics,
		Ping:      stores.Ping,
		Server:    cfg.Server,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":       cfg.Server.Port,
			"mode":       cfg.Server.Mode,
			"db_driver":  cfg.Database.Driver,
			"ai_keys":    len(cfg.OpenRouter.APIKeys),
			"ai_models":  len(cfg.OpenRouter.Models),
			"archive_on": archive != nil,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("Failed to flush traces")
	}

	appLogger.Info("Server exited")
}
