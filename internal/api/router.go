// Package api provides the HTTP API for Yatri.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/api/handler"
	"github.com/yatri/yatri/internal/api/middleware"
	"github.com/yatri/yatri/internal/provider/resilience"
)

// maxBodyBytes bounds POST bodies; feedback may carry route details.
const maxBodyBytes = 64 << 10

// Station is the station data the API serves.
type Station interface {
	handler.StationIndex
	Len() int
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string

	// Metrics records HTTP metrics (optional).
	Metrics *middleware.Metrics
	// Gatherer serves /metrics (optional; no endpoint when nil).
	Gatherer prometheus.Gatherer

	PlanService     handler.JourneyPlanner
	PlanTimeout     time.Duration
	Stations        Station
	ProfileService  handler.ProfileLister
	FeedbackService handler.FeedbackSubmitter

	// Providers and PlannerCache feed /v1/ops/status (optional).
	Providers    *resilience.Registry
	PlannerCache handler.PlannerCache
	// Checks are dependency checks for readiness and status.
	Checks []handler.Check

	// RateLimitPerMinute overrides the standard per-IP limit.
	RateLimitPerMinute int
	RequireTLS         bool
	AllowedOrigins     []string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "yatri-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.CORS(cfg.AllowedOrigins))   // Browser clients
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.Compress)                   // gzip for large bodies
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Providers: cfg.Providers,
		Stations:  cfg.Stations,
		Cache:     cfg.PlannerCache,
		Checks:    cfg.Checks,
	})
	stationHandler := handler.NewStationHandler(cfg.Stations)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)
	planHandler := handler.NewPlanHandler(cfg.PlanService, cfg.PlanTimeout)
	feedbackHandler := handler.NewFeedbackHandler(cfg.FeedbackService)

	standard := middleware.StandardRateLimit
	if cfg.RateLimitPerMinute > 0 {
		standard = middleware.PerMinute(cfg.RateLimitPerMinute)
	}
	feedbackRateLimit := middleware.RateLimitByIP(middleware.FeedbackRateLimit)   // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(standard)                       // 100 req/min by default

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints are not rate limited so health checks never see 429.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Get("/stations", stationHandler.ListStations)
			r.Get("/stations/search", stationHandler.SearchStations)
			r.Get("/profiles", profileHandler.ListProfiles)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSON)
			r.Use(middleware.LimitBody(maxBodyBytes))

			r.With(expensiveRateLimit).Post("/plan", planHandler.PlanJourney)
			r.With(feedbackRateLimit).Post("/feedback", feedbackHandler.SubmitFeedback)
		})
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
