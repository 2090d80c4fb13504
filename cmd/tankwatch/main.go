package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/tankwatch/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/tankwatch/internal/adapter/kafka"
	"github.com/couchcryptid/tankwatch/internal/adapter/nominatim"
	"github.com/couchcryptid/tankwatch/internal/adapter/tankapi"
	"github.com/couchcryptid/tankwatch/internal/alerting"
	"github.com/couchcryptid/tankwatch/internal/config"
	"github.com/couchcryptid/tankwatch/internal/domain"
	"github.com/couchcryptid/tankwatch/internal/engine"
	"github.com/couchcryptid/tankwatch/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Initialize geocoder (feature-flagged via GEOCODER_ENABLED).
	var geocoder domain.Geocoder
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("nominatim geocoding enabled", "cache_size", cfg.GeocoderCacheSize, "timeout", cfg.GeocoderTimeout)
	} else {
		logger.Info("nominatim geocoding disabled")
	}

	// Event publishing is optional; without it the engine only keeps state.
	var (
		publisher engine.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	reconcile := domain.ReconcileOptions{
		HistoryLimit: cfg.HistoryLimit,
		EvictAfter:   cfg.EvictAfterCycles,
	}
	alerts := alerting.NewManager(clock, cfg.AlertTTL, logger, metrics)
	dashboard := engine.New(clock, engine.Options{
		Name:      "dashboard",
		Reconcile: reconcile,
		Alerts:    alerts,
		Publisher: publisher,
	}, logger, metrics)

	pollers := []*engine.Poller{
		engine.NewPoller(tankapi.NewClient(cfg.TankSourceURL, cfg.FetchTimeout, logger),
			dashboard, clock, cfg.PollInterval, cfg.FetchTimeout, logger, metrics),
	}

	// The prediction view polls on its own cadence and holds its own state.
	forecaster := dashboard
	if cfg.PredictionPollInterval > 0 {
		forecaster = engine.New(clock, engine.Options{Name: "prediction", Reconcile: reconcile}, logger, metrics)
		pollers = append(pollers, engine.NewPoller(tankapi.NewClient(cfg.TankSourceURL, cfg.FetchTimeout, logger),
			forecaster, clock, cfg.PredictionPollInterval, cfg.FetchTimeout, logger, metrics))
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Dashboard:      dashboard,
		Forecaster:     forecaster,
		Geocoder:       geocoder,
		SearchRadiusKm: cfg.SearchRadiusKm,
		PushInterval:   cfg.PollInterval,
		Metrics:        metrics,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Start pollers.
	for _, p := range pollers {
		g.Go(func() error { return p.Run(gctx) })
	}

	// Stop the server once a signal arrives or any component fails.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	alerts.Close()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
