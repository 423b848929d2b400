// Package main provides the entrypoint for the Yatri API server.
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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/api"
	"github.com/yatri/yatri/internal/api/handler"
	"github.com/yatri/yatri/internal/api/middleware"
	"github.com/yatri/yatri/internal/cache"
	"github.com/yatri/yatri/internal/config"
	"github.com/yatri/yatri/internal/database"
	"github.com/yatri/yatri/internal/fallback"
	"github.com/yatri/yatri/internal/feedback"
	"github.com/yatri/yatri/internal/lastmile"
	"github.com/yatri/yatri/internal/plan"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/planner/otp"
	"github.com/yatri/yatri/internal/profile"
	"github.com/yatri/yatri/internal/provider/resilience"
	"github.com/yatri/yatri/internal/ranking"
	"github.com/yatri/yatri/internal/station"
	"github.com/yatri/yatri/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "yatri-api"

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
	if !cfg.IsProduction() {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	summary := log.Info().Str("build_time", BuildTime)
	for k, v := range cfg.LogSummary() {
		summary = summary.Str(k, v)
	}
	summary.Msg("starting Yatri API")

	ctx := context.Background()

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpMetrics := middleware.NewMetrics()
	rankMetrics := ranking.NewPipelineMetrics()
	planMetrics := plan.NewMetrics()
	for _, m := range []metricSet{httpMetrics, rankMetrics, planMetrics} {
		if err := m.Register(reg); err != nil {
			log.Fatal().Err(err).Msg("failed to register metrics")
		}
	}

	var checks []handler.Check

	// Shared planner cache
	var sharedCache planner.SharedCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   log,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-process planner cache only")
		} else {
			defer rc.Close()
			sharedCache = rc
			checks = append(checks, handler.Check{Name: "redis", Run: rc.HealthCheck})
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
		}
	}

	// Profile storage
	var profileRepo profile.Repository
	if cfg.DatabaseEnabled {
		pool, err := connectDatabase(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		profileRepo = profile.NewPostgresRepository(pool)
		checks = append(checks, handler.Check{Name: "database", Run: pool.Ping})
		log.Info().Msg("profile database connected")
	}
	profiles := profile.NewService(profile.ServiceConfig{
		Repository: profileRepo,
		Logger:     log,
		CacheTTL:   time.Minute,
	})

	// Trip planner
	providers := resilience.NewRegistry()
	otpClient := otp.NewClient(otp.ClientConfig{
		BaseURL:   cfg.PlannerURL,
		RateLimit: cfg.PlannerRateLimit,
		Registry:  providers,
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

	planSvc := plan.NewService(plan.ServiceConfig{
		Resolver: station.NewResolver(station.ResolverConfig{Stations: stations.All(), Logger: log}),
		Planner:  plannerSvc,
		Ranker: ranking.NewRanker(ranking.RankerConfig{
			Config:  cfg.Ranking(),
			Metrics: rankMetrics,
			Logger:  log,
		}),
		Profiles: profiles,
		LastMile: lastmile.NewService(lastmile.Config{Logger: log}),
		Fallback: fallback.New(fallback.Config{Logger: log}),
		Metrics:  planMetrics,
		Logger:   log,
	})

	// Feedback forwarding
	var publisher feedback.Publisher
	if cfg.FeedbackTopic != "" {
		pub, err := feedback.NewPubSubPublisher(ctx, feedback.PubSubConfig{
			ProjectID: cfg.PubSubProjectID,
			TopicName: cfg.FeedbackTopic,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create feedback publisher")
		}
		defer pub.Close()
		publisher = pub
	} else {
		log.Warn().Msg("FEEDBACK_TOPIC not set, feedback is only logged")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            httpMetrics,
		Gatherer:           reg,
		PlanService:        planSvc,
		PlanTimeout:        cfg.PlanTimeout,
		Stations:           stations,
		ProfileService:     profiles,
		FeedbackService:    feedback.NewService(feedback.ServiceConfig{Publisher: publisher, Logger: log}),
		Providers:          providers,
		PlannerCache:       plannerSvc,
		Checks:             checks,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequireTLS:         cfg.RequireTLS,
		AllowedOrigins:     cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.PlanTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Int("stations", stations.Len()).
			Str("station_source", stations.Source()).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

type metricSet interface {
	Register(reg prometheus.Registerer) error
}

func connectDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, database.ConfigFromEnv())
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(connectCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
