package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/planner"
)

const meterName = "github.com/yatri/yatri/internal/worker"

// ErrStaleResponse is recorded when the planner failed and a cached
// response was served instead.
var ErrStaleResponse = errors.New("planner unavailable, stale response served")

// Planner fetches and caches raw itineraries.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Response, error)
}

// Resolver maps place names to coordinates.
type Resolver interface {
	Resolve(query string) (itinerary.Coordinate, error)
}

// WarmupJob prefetches planner responses for popular journeys so the shared
// cache is hot before riders ask.
type WarmupJob struct {
	config   WarmupConfig
	planner  Planner
	resolver Resolver
	logger   zerolog.Logger

	pairs    metric.Int64Counter
	duration metric.Float64Histogram

	mu      sync.RWMutex
	metrics WarmupMetrics
}

// WarmupMetrics tracks warm-up totals across runs.
type WarmupMetrics struct {
	Runs        int64
	Successful  int64
	Failed      int64
	Skipped     int64
	LastRunAt   time.Time
	LastRunTook time.Duration
}

// WarmupJobConfig holds configuration for creating a WarmupJob.
type WarmupJobConfig struct {
	Config   WarmupConfig
	Planner  Planner
	Resolver Resolver

	// Meter records job metrics (optional, defaults to the global meter).
	Meter  metric.Meter
	Logger zerolog.Logger
}

// NewWarmupJob creates a new warm-up job.
func NewWarmupJob(cfg WarmupJobConfig) (*WarmupJob, error) {
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	pairs, err := meter.Int64Counter("yatri.worker.warmup.pairs",
		metric.WithDescription("Journeys processed by the warm-up job"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("yatri.worker.warmup.duration",
		metric.WithDescription("Duration of a warm-up run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &WarmupJob{
		config:   cfg.Config.withDefaults(),
		planner:  cfg.Planner,
		resolver: cfg.Resolver,
		logger:   cfg.Logger.With().Str("job", "warmup").Logger(),
		pairs:    pairs,
		duration: duration,
	}, nil
}

// WarmupResult contains the result of a warm-up run.
type WarmupResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalPairs int
	Successful int
	Failed     int
	// Skipped pairs had an endpoint that did not resolve.
	Skipped int
	Errors  []WarmupError
}

// WarmupError describes a pair that could not be warmed.
type WarmupError struct {
	Pair  Pair
	Error string
}

type pairOutcome int

const (
	outcomeOK pairOutcome = iota
	outcomeFailed
	outcomeSkipped
)

func (o pairOutcome) String() string {
	switch o {
	case outcomeFailed:
		return "failed"
	case outcomeSkipped:
		return "skipped"
	default:
		return "ok"
	}
}

type pairResult struct {
	pair    Pair
	outcome pairOutcome
	err     error
}

// Run warms every configured pair.
func (j *WarmupJob) Run(ctx context.Context) *WarmupResult {
	return j.RunPairs(ctx, j.config.Pairs)
}

// RunPairs warms the given pairs with bounded concurrency.
func (j *WarmupJob) RunPairs(ctx context.Context, pairs []Pair) *WarmupResult {
	startTime := time.Now()
	result := &WarmupResult{
		StartTime:  startTime,
		TotalPairs: len(pairs),
	}

	j.logger.Info().
		Int("total_pairs", result.TotalPairs).
		Int("concurrency", j.config.Concurrency).
		Msg("starting planner warm-up")

	pairsChan := make(chan Pair, len(pairs))
	resultsChan := make(chan pairResult, len(pairs))

	var wg sync.WaitGroup
	for i := 0; i < min(j.config.Concurrency, len(pairs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, pairsChan, resultsChan)
		}()
	}

	for _, p := range pairs {
		pairsChan <- p
	}
	close(pairsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		switch pr.outcome {
		case outcomeOK:
			result.Successful++
		case outcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		if pr.err != nil {
			result.Errors = append(result.Errors, WarmupError{Pair: pr.pair, Error: pr.err.Error()})
		}
		j.pairs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", pr.outcome.String())))
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.duration.Record(ctx, result.Duration.Seconds())
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("planner warm-up completed")

	return result
}

func (j *WarmupJob) warmWorker(ctx context.Context, pairs <-chan Pair, results chan<- pairResult) {
	for pair := range pairs {
		select {
		case <-ctx.Done():
			results <- pairResult{pair: pair, outcome: outcomeFailed, err: ctx.Err()}
		default:
			results <- j.warmPair(ctx, pair)
		}
	}
}

func (j *WarmupJob) warmPair(ctx context.Context, pair Pair) pairResult {
	from, err := j.resolver.Resolve(pair.Origin)
	if err != nil {
		return pairResult{pair: pair, outcome: outcomeSkipped, err: err}
	}
	to, err := j.resolver.Resolve(pair.Destination)
	if err != nil {
		return pairResult{pair: pair, outcome: outcomeSkipped, err: err}
	}

	pairCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	resp, err := j.planner.Plan(pairCtx, planner.Request{Origin: from, Destination: to})
	if err != nil {
		j.logger.Debug().Err(err).Str("origin", pair.Origin).Str("destination", pair.Destination).Msg("warm-up pair failed")
		return pairResult{pair: pair, outcome: outcomeFailed, err: err}
	}
	if resp.Stale {
		return pairResult{pair: pair, outcome: outcomeFailed, err: ErrStaleResponse}
	}
	return pairResult{pair: pair, outcome: outcomeOK}
}

// HealthCheck plans the first configured pair and reports whether the
// planner answered fresh.
func (j *WarmupJob) HealthCheck(ctx context.Context) error {
	pr := j.warmPair(ctx, j.config.Pairs[0])
	return pr.err
}

func (j *WarmupJob) updateMetrics(result *WarmupResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.metrics.Runs++
	j.metrics.Successful += int64(result.Successful)
	j.metrics.Failed += int64(result.Failed)
	j.metrics.Skipped += int64(result.Skipped)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunTook = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmupJob) GetMetrics() WarmupMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.metrics
}
