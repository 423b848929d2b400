// Package main provides the entrypoint for the Yatri background worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/api/response"
	"github.com/yatri/yatri/internal/cache"
	"github.com/yatri/yatri/internal/config"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/planner/otp"
	"github.com/yatri/yatri/internal/provider/resilience"
	"github.com/yatri/yatri/internal/station"
	"github.com/yatri/yatri/internal/telemetry"
	"github.com/yatri/yatri/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "yatri-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, errs := config.Load(os.Getenv("CONFIG_FILE"))
	if len(errs) > 0 {
		for _, err := range errs {
			log.Error().Err(err).Msg("invalid configuration")
		}
		os.Exit(1)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("subscription", cfg.WorkerSubscription).
		Msg("starting Yatri worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Warming only helps the API when the cache is shared.
	var sharedCache planner.SharedCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rc.Close()
		sharedCache = rc
	} else {
		log.Warn().Msg("REDIS_ADDR not set, warm-up only fills this process's cache")
	}

	otpClient := otp.NewClient(otp.ClientConfig{
		BaseURL:   cfg.PlannerURL,
		RateLimit: cfg.PlannerRateLimit,
		Registry:  resilience.NewRegistry(),
		Logger:    log,
	})
	plannerSvc := planner.NewService(planner.ServiceConfig{
		Provider:    otpClient,
		SharedCache: sharedCache,
		Logger:      log,
		Concurrency: cfg.PlannerConcurrency,
		CacheTTL:    cfg.PlannerCacheTTL,
	})

	stations := station.Load(ctx, station.LoadConfig{
		Planner:  otpClient,
		JSONPath: cfg.StationsFile,
		GTFSPath: cfg.GTFSPath,
		Logger:   log,
	})

	warmup, err := worker.NewWarmupJob(worker.WarmupJobConfig{
		Config: worker.WarmupConfig{
			Concurrency: cfg.WarmupConcurrency,
			Timeout:     cfg.PlanTimeout,
		},
		Planner:  plannerSvc,
		Resolver: station.NewResolver(station.ResolverConfig{Stations: stations.All(), Logger: log}),
		Meter:    tp.Meter,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create warm-up job")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Cloud Run expects the worker to answer health checks.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		m := warmup.GetMetrics()
		response.JSON(w, r, http.StatusOK, map[string]any{
			"status":         "healthy",
			"version":        Version,
			"time":           models.Timestamp(time.Now()),
			"warmup_runs":    m.Runs,
			"last_warmup_at": models.TimestampPtr(nonZero(m.LastRunAt)),
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.WorkerSubscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.WorkerSubscription,
			WarmupJob:        warmup,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("WORKER_SUBSCRIPTION not set, running one warm-up and idling")
		go warmup.Run(ctx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
