// Package config loads service configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/yatri/yatri/internal/ranking"
)

// Config holds configuration shared by the API and worker processes.
type Config struct {
	// Server
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Telemetry
	OTelEnabled      bool    `koanf:"otel_enabled"`
	OTLPEndpoint     string  `koanf:"otlp_endpoint"`
	TraceSampleRatio float64 `koanf:"trace_sample_ratio"`

	// Trip planner
	PlannerURL         string        `koanf:"planner_url"`
	PlannerRateLimit   float64       `koanf:"planner_rate_limit"`
	PlannerConcurrency int           `koanf:"planner_concurrency"`
	PlannerCacheTTL    time.Duration `koanf:"planner_cache_ttl"`
	PlanTimeout        time.Duration `koanf:"plan_timeout"`

	// Reference data
	StationsFile string `koanf:"stations_file"`
	GTFSPath     string `koanf:"gtfs_path"`

	// Shared cache
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Profile storage
	DatabaseEnabled bool `koanf:"database_enabled"`

	// Messaging
	PubSubProjectID    string `koanf:"pubsub_project_id"`
	FeedbackTopic      string `koanf:"feedback_topic"`
	WorkerSubscription string `koanf:"worker_subscription"`

	// HTTP surface
	RateLimitPerMinute int      `koanf:"rate_limit_per_minute"`
	RequireTLS         bool     `koanf:"require_tls"`
	AllowedOrigins     []string `koanf:"allowed_origins"`

	// Route selection. MaxRoutes bounds the ranked list only; the fallback
	// catalog keeps its own limit.
	DiversityGap time.Duration `koanf:"diversity_gap"`
	MaxRoutes    int           `koanf:"max_routes"`

	// Warm-up jobs
	WarmupConcurrency int `koanf:"warmup_concurrency"`
}

// Configuration validation errors.
var (
	ErrInvalidPort        = errors.New("APP_PORT must be between 1 and 65535")
	ErrInvalidNumber      = errors.New("value must be a valid number")
	ErrInvalidDuration    = errors.New("value must be a valid duration")
	ErrInvalidRateLimit   = errors.New("PLANNER_RATE_LIMIT must not be negative")
	ErrMissingProjectID   = errors.New("PUBSUB_PROJECT_ID is required when a topic or subscription is set")
	ErrInvalidConcurrency = errors.New("PLANNER_CONCURRENCY must be positive")
	ErrInvalidMaxRoutes   = errors.New("MAX_ROUTES must be between 1 and 5")
	ErrInvalidSampleRatio = errors.New("TRACE_SAMPLE_RATIO must be between 0 and 1")
)

// Defaults.
const (
	DefaultPort               = 8080
	DefaultEnv                = "development"
	DefaultOTLPEndpoint       = "localhost:4317"
	DefaultPlannerURL         = "http://localhost:8081/otp/routers/default"
	DefaultPlannerConcurrency = 6
	DefaultPlannerCacheTTL    = 5 * time.Minute
	DefaultPlanTimeout        = 45 * time.Second
	DefaultRateLimitPerMinute = 100
	DefaultDiversityGap       = 2 * time.Minute
	DefaultMaxRoutes          = 5
	DefaultWarmupConcurrency  = 4
	DefaultTraceSampleRatio   = 1.0

	// MaxFinalRoutes is the largest list a plan response may carry.
	MaxFinalRoutes = 5
)

// Load reads configuration from an optional YAML file and the environment.
// Environment variables take precedence over file values. It returns the
// config and any validation errors; a file that cannot be read is the only
// error returned without a config.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	port, err := envInt("APP_PORT", k.Int("port"), DefaultPort)
	collect(err)
	concurrency, err := envInt("PLANNER_CONCURRENCY", k.Int("planner_concurrency"), DefaultPlannerConcurrency)
	collect(err)
	redisDB, err := envInt("REDIS_DB", k.Int("redis_db"), 0)
	collect(err)
	rateLimit, err := envInt("RATE_LIMIT_PER_MINUTE", k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute)
	collect(err)
	plannerRate, err := envFloat("PLANNER_RATE_LIMIT", k.Float64("planner_rate_limit"), 0)
	collect(err)
	sampleRatio, err := envFloat("TRACE_SAMPLE_RATIO", k.Float64("trace_sample_ratio"), DefaultTraceSampleRatio)
	collect(err)
	cacheTTL, err := envDuration("PLANNER_CACHE_TTL", k.String("planner_cache_ttl"), DefaultPlannerCacheTTL)
	collect(err)
	planTimeout, err := envDuration("PLAN_TIMEOUT", k.String("plan_timeout"), DefaultPlanTimeout)
	collect(err)
	diversityGap, err := envDuration("DIVERSITY_GAP", k.String("diversity_gap"), DefaultDiversityGap)
	collect(err)
	maxRoutes, err := envInt("MAX_ROUTES", k.Int("max_routes"), DefaultMaxRoutes)
	collect(err)
	warmup, err := envInt("WARMUP_CONCURRENCY", k.Int("warmup_concurrency"), DefaultWarmupConcurrency)
	collect(err)

	cfg := &Config{
		Port:               port,
		Env:                envString("APP_ENV", k.String("env"), DefaultEnv),
		OTelEnabled:        envBool("OTEL_ENABLED", k.Bool("otel_enabled")),
		OTLPEndpoint:       envString("OTEL_EXPORTER_OTLP_ENDPOINT", k.String("otlp_endpoint"), DefaultOTLPEndpoint),
		TraceSampleRatio:   sampleRatio,
		PlannerURL:         envString("PLANNER_URL", k.String("planner_url"), DefaultPlannerURL),
		PlannerRateLimit:   plannerRate,
		PlannerConcurrency: concurrency,
		PlannerCacheTTL:    cacheTTL,
		PlanTimeout:        planTimeout,
		StationsFile:       envString("STATIONS_FILE", k.String("stations_file"), ""),
		GTFSPath:           envString("GTFS_PATH", k.String("gtfs_path"), ""),
		RedisAddr:          envString("REDIS_ADDR", k.String("redis_addr"), ""),
		RedisPassword:      envString("REDIS_PASSWORD", k.String("redis_password"), ""),
		RedisDB:            redisDB,
		DatabaseEnabled:    envBool("DB_ENABLED", k.Bool("database_enabled")),
		PubSubProjectID:    envString("PUBSUB_PROJECT_ID", k.String("pubsub_project_id"), ""),
		FeedbackTopic:      envString("FEEDBACK_TOPIC", k.String("feedback_topic"), ""),
		WorkerSubscription: envString("WORKER_SUBSCRIPTION", k.String("worker_subscription"), ""),
		RateLimitPerMinute: rateLimit,
		RequireTLS:         envBool("REQUIRE_TLS", k.Bool("require_tls")),
		AllowedOrigins:     envList("CORS_ALLOWED_ORIGINS", k.Strings("allowed_origins")),
		DiversityGap:       diversityGap,
		MaxRoutes:          maxRoutes,
		WarmupConcurrency:  warmup,
	}

	return cfg, append(errs, cfg.Validate()...)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.PlannerRateLimit < 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.PlannerConcurrency < 1 {
		errs = append(errs, ErrInvalidConcurrency)
	}
	if c.MaxRoutes < 1 || c.MaxRoutes > MaxFinalRoutes {
		errs = append(errs, ErrInvalidMaxRoutes)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, ErrInvalidSampleRatio)
	}
	if (c.FeedbackTopic != "" || c.WorkerSubscription != "") && c.PubSubProjectID == "" {
		errs = append(errs, ErrMissingProjectID)
	}

	return errs
}

// Ranking returns the route-selection settings for the ranker. Values left
// unset fall back to ranking.DefaultConfig.
func (c *Config) Ranking() ranking.Config {
	return ranking.Config{
		FinalCap:     min(c.MaxRoutes, MaxFinalRoutes),
		DiversityGap: c.DiversityGap.Minutes(),
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LogSummary returns the configuration with secrets masked.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                  strconv.Itoa(c.Port),
		"env":                   c.Env,
		"otel_enabled":          strconv.FormatBool(c.OTelEnabled),
		"trace_sample_ratio":    strconv.FormatFloat(c.TraceSampleRatio, 'f', -1, 64),
		"planner_url":           c.PlannerURL,
		"planner_rate_limit":    strconv.FormatFloat(c.PlannerRateLimit, 'f', -1, 64),
		"planner_concurrency":   strconv.Itoa(c.PlannerConcurrency),
		"planner_cache_ttl":     c.PlannerCacheTTL.String(),
		"stations_file":         orNotSet(c.StationsFile),
		"gtfs_path":             orNotSet(c.GTFSPath),
		"redis_addr":            orNotSet(c.RedisAddr),
		"redis_password":        maskSecret(c.RedisPassword),
		"database_enabled":      strconv.FormatBool(c.DatabaseEnabled),
		"pubsub_project_id":     orNotSet(c.PubSubProjectID),
		"feedback_topic":        orNotSet(c.FeedbackTopic),
		"worker_subscription":   orNotSet(c.WorkerSubscription),
		"rate_limit_per_minute": strconv.Itoa(c.RateLimitPerMinute),
		"require_tls":           strconv.FormatBool(c.RequireTLS),
		"allowed_origins":       orNotSet(strings.Join(c.AllowedOrigins, ",")),
		"diversity_gap":         c.DiversityGap.String(),
		"max_routes":            strconv.Itoa(c.MaxRoutes),
		"warmup_concurrency":    strconv.Itoa(c.WarmupConcurrency),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret shows the first 4 characters of secrets at least 8 long.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

func envString(envKey, koanfVal, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

func envInt(envKey string, koanfVal, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal, fmt.Errorf("%s: %w", envKey, ErrInvalidNumber)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func envFloat(envKey string, koanfVal, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return defaultVal, fmt.Errorf("%s: %w", envKey, ErrInvalidNumber)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func envDuration(envKey, koanfVal string, defaultVal time.Duration) (time.Duration, error) {
	raw := os.Getenv(envKey)
	if raw == "" {
		raw = koanfVal
	}
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", envKey, ErrInvalidDuration)
	}
	return d, nil
}

// envList reads a comma-separated env var, falling back to the file value.
func envList(envKey string, koanfVal []string) []string {
	raw := os.Getenv(envKey)
	if raw == "" {
		return koanfVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envBool reads a boolean env var, falling back to the file value.
func envBool(envKey string, koanfVal bool) bool {
	switch strings.ToLower(os.Getenv(envKey)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return koanfVal
}
