package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/TimurManjosov/goprofiles/internal/api"
	"github.com/TimurManjosov/goprofiles/internal/audit"
	"github.com/TimurManjosov/goprofiles/internal/config"
	"github.com/TimurManjosov/goprofiles/internal/logging"
	"github.com/TimurManjosov/goprofiles/internal/snapshot"
	"github.com/TimurManjosov/goprofiles/internal/store"
	"github.com/TimurManjosov/goprofiles/internal/telemetry"
	"github.com/TimurManjosov/goprofiles/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger().Fatal().Err(err).Msg("config")
	}
	if err := cfg.Validate(); err != nil {
		bootLogger().Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
	logger.Info().Msg("stopped")
}

func bootLogger() *zerolog.Logger {
	l := logging.New("info", "json", os.Stderr)
	return &l
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, "goprofiles", cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN, cfg.DBMigrate)
	if err != nil {
		return err
	}
	defer st.Close()

	auditSvc := audit.NewService(audit.NewLogSink(logger), logger, 1000)
	defer auditSvc.Close()

	opts := api.Options{
		AdminAPIKey:    cfg.AdminAPIKey,
		RateLimitPerIP: cfg.RateLimitPerIP,
		Snapshot: snapshot.Options{
			EnabledExperimentalIDs: cfg.EnabledExperimentalProfiles,
			ExtraLogsFamilies:      cfg.LogsExtraFamilies,
			Precedence:             cfg.Precedence,
			Observer:               telemetry.ResolutionObserver{},
		},
		Audit:       auditSvc,
		Environment: cfg.AppEnv,
		Logger:      logger,
	}

	if len(cfg.WebhookURLs) > 0 {
		dispatcher := webhook.NewDispatcher(webhook.Options{
			Endpoints: webhookEndpoints(cfg),
			OnDelivery: func(d webhook.Delivery) {
				result := "failure"
				if d.Success {
					result = "success"
				}
				telemetry.WebhookDeliveries.WithLabelValues(d.EventType, result).Inc()
			},
			Logger: logger.With().Str("component", "webhook").Logger(),
		})
		defer dispatcher.Close()
		opts.Notifier = dispatcher
	}

	var bus *snapshot.RedisBus
	if cfg.RedisURL != "" {
		bus, err = snapshot.NewRedisBus(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer bus.Close()
		opts.Publisher = bus
	}

	srvAPI := api.NewServer(st, opts)
	reg, err := srvAPI.Rebuild(ctx, api.TriggerStartup)
	if err != nil {
		return err
	}
	logger.Info().
		Str("etag", reg.ETag).
		Int("definitions", reg.Definitions).
		Str("store", cfg.StoreType).
		Str("precedence", string(cfg.Precedence)).
		Msg("registry loaded")

	apiSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(logger, "api", apiSrv) })
	g.Go(func() error { return serve(logger, "metrics", metricsSrv) })
	if bus != nil {
		g.Go(func() error {
			logger.Info().Str("instance", bus.InstanceID()).Msg("listening for registry changes")
			return bus.Listen(gctx, srvAPI.ReloadFromBus)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Join(apiSrv.Shutdown(sctx), metricsSrv.Shutdown(sctx))
	})
	return g.Wait()
}

func webhookEndpoints(cfg *config.Config) []webhook.Endpoint {
	eps := make([]webhook.Endpoint, 0, len(cfg.WebhookURLs))
	for _, u := range cfg.WebhookURLs {
		eps = append(eps, webhook.Endpoint{
			URL:        u,
			Secret:     cfg.WebhookSecret,
			Events:     cfg.WebhookEvents,
			MaxRetries: cfg.WebhookMaxRetries,
		})
	}
	return eps
}

func serve(logger zerolog.Logger, name string, srv *http.Server) error {
	logger.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
