package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/api"
	"github.com/UnknownOlympus/asclepius/internal/config"
	"github.com/UnknownOlympus/asclepius/internal/enrich"
	"github.com/UnknownOlympus/asclepius/internal/geocoding"
	"github.com/UnknownOlympus/asclepius/internal/metrics"
	"github.com/UnknownOlympus/asclepius/internal/models"
	"github.com/UnknownOlympus/asclepius/internal/places"
	"github.com/UnknownOlympus/asclepius/internal/repository"
	"github.com/UnknownOlympus/asclepius/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)
	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Telemetry storage is optional.
	var (
		recorder repository.Interface
		pinger   api.Pinger
	)
	if cfg.Database.Enabled() {
		dtb, err := repository.NewDatabase(ctx,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer dtb.Close()

		repo := repository.NewRepository(dtb, logger)
		if err = repo.Migrate(ctx); err != nil {
			log.Fatalf("Failed to prepare telemetry schema: %v", err)
		}
		recorder, pinger = repo, dtb
	}

	placeProvider, err := places.NewProvider(places.ProviderConfig{
		Type:           places.ProviderType(cfg.ProviderType),
		SearchEndpoint: cfg.SearchEndpoint,
		DetailEndpoint: cfg.DetailEndpoint,
		APIKey:         cfg.APIKey,
		RateLimit:      cfg.RateLimit,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("Failed to create place provider: %v", err)
	}
	logger.InfoContext(ctx, "Place provider initialized", "type", cfg.ProviderType)

	geocoder, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.GeocoderType),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.LocateTimeout,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}
	if geocoder != nil {
		logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.GeocoderType)
	}

	category, err := models.ParseCategory(cfg.DefaultCategory)
	if err != nil {
		log.Fatalf("Invalid default category: %v", err)
	}

	coordinator := enrich.NewCoordinator(
		logger, placeProvider, cfg.ProviderType, appMetrics, cfg.Concurrency, cfg.DetailTimeout,
	)
	finder := service.NewFacilityFinder(
		logger,
		placeProvider,
		coordinator,
		recorder,
		appMetrics,
		cfg.ProviderType, // Provider name for metrics
		cfg.SearchTimeout,
	)
	handler := api.NewHandler(logger, finder, geocoder, api.Defaults{
		RadiusMeters:  cfg.DefaultRadius,
		Category:      category,
		LocateTimeout: cfg.LocateTimeout,
	})

	// Room for a full locate, one search and three rounds of detail lookups.
	requestBudget := cfg.LocateTimeout + cfg.SearchTimeout + cfg.DetailTimeout*3
	apiServer := newServer(cfg.HTTPPort, api.NewRouter(logger, handler), requestBudget)
	monitoringServer := newServer(cfg.HealthPort, api.NewMonitoringRouter(logger, reg, pinger), 0)

	go serve(ctx, logger, "API", apiServer)
	go serve(ctx, logger, "monitoring", monitoringServer)

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	for _, srv := range []*http.Server{apiServer, monitoringServer} {
		if err = srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "Server shutdown failed", "addr", srv.Addr, "error", err)
		}
	}

	logger.InfoContext(shutdownCtx, "Application stopped gracefully.")
}

// newServer wraps handler in an http.Server. The write timeout leaves room for
// requestBudget on top of the base timeout.
func newServer(port int, handler http.Handler, requestBudget time.Duration) *http.Server {
	readTimeout := 5 * time.Second
	writeTimeout := 10*time.Second + requestBudget

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

// serve runs srv until it is shut down.
func serve(ctx context.Context, log *slog.Logger, name string, srv *http.Server) {
	log.InfoContext(ctx, "Starting server", "name", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Server failed", "name", name, "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
