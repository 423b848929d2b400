package planner

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yatri/yatri/internal/itinerary"
)

// SharedCache is a cross-process response cache such as Redis.
type SharedCache interface {
	// Get decodes the value stored under key into dst and reports whether
	// it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ServiceConfig holds configuration for the planner service.
type ServiceConfig struct {
	// Provider is the trip planner backend.
	Provider Provider

	// SharedCache is an optional cache shared with other processes.
	SharedCache SharedCache

	// Logger for service operations.
	Logger zerolog.Logger

	// Combinations and Optimizations define the fan-out
	// (defaults: DefaultModeCombinations, DefaultOptimizations).
	Combinations  []ModeCombination
	Optimizations []Optimization

	// Concurrency bounds in-flight planner calls per request (default: 6).
	Concurrency int

	// CacheTTL is how long to cache planner responses (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.01 ~ 1.1km).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 5 minutes).
	CleanupInterval time.Duration
}

// Service provides planner itineraries with caching.
type Service struct {
	provider        Provider
	shared          SharedCache
	logger          zerolog.Logger
	combinations    []ModeCombination
	optimizations   []Optimization
	concurrency     int
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration

	flight singleflight.Group

	mu          sync.RWMutex
	cache       map[string]*cachedPlan
	lastCleanup time.Time
}

type cachedPlan struct {
	response  *Response
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new planner service.
func NewService(cfg ServiceConfig) *Service {
	combinations := cfg.Combinations
	if len(combinations) == 0 {
		combinations = DefaultModeCombinations()
	}

	optimizations := cfg.Optimizations
	if len(optimizations) == 0 {
		optimizations = DefaultOptimizations()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 6
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		shared:          cfg.SharedCache,
		logger:          cfg.Logger,
		combinations:    combinations,
		optimizations:   optimizations,
		concurrency:     concurrency,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		cache:           make(map[string]*cachedPlan),
	}
}

// Plan returns the merged itineraries of every mode combination and
// optimization variant between the request points. Responses are cached
// per grid cell; a stale response is served when the planner fails.
func (s *Service) Plan(ctx context.Context, req Request) (*Response, error) {
	if !req.Origin.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if !req.Destination.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if req.When.IsZero() {
		req.When = time.Now()
	}

	key := s.CacheKey(req.Origin, req.Destination)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", key).
			Msg("cache hit for plan")
		return cached.response, nil
	}
	s.mu.RUnlock()

	if resp, ok := s.sharedGet(ctx, key); ok {
		s.store(key, resp, resp.FetchedAt)
		return resp, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.fetch(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response), nil
}

func (s *Service) fetch(ctx context.Context, req Request, key string) (*Response, error) {
	s.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Str("provider", s.provider.Name()).
		Msg("fetching itineraries from planner")

	resp, err := s.fanOut(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("origin_lat", req.Origin.Lat).
			Float64("origin_lon", req.Origin.Lon).
			Float64("dest_lat", req.Destination.Lat).
			Float64("dest_lon", req.Destination.Lon).
			Msg("failed to fetch itineraries")

		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Str("cache_key", key).
				Msg("serving stale plan due to planner error")
			stale := *cached.response
			stale.Stale = true
			return &stale, nil
		}

		return nil, err
	}

	s.store(key, resp, resp.FetchedAt)
	s.sharedSet(ctx, key, resp)

	s.logger.Debug().
		Str("cache_key", key).
		Int("itinerary_count", len(resp.Itineraries)).
		Int("failed_queries", resp.Failed).
		Msg("cached plan response")

	return resp, nil
}

// fanOut runs every query with bounded concurrency. Failed queries are
// logged and skipped; results keep query order.
func (s *Service) fanOut(ctx context.Context, req Request) (*Response, error) {
	queries := make([]Query, 0, len(s.combinations)*len(s.optimizations))
	for _, combo := range s.combinations {
		for _, opt := range s.optimizations {
			queries = append(queries, Query{
				Origin:       req.Origin,
				Destination:  req.Destination,
				Combination:  combo,
				Optimization: opt,
				When:         req.When,
			})
		}
	}

	results := make([][]itinerary.Itinerary, len(queries))
	var failed atomic.Int32

	// A failed query never fails the group; only cancellation of ctx does,
	// and queued queries are then skipped.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			its, err := s.provider.Plan(gctx, q)
			if err != nil {
				failed.Add(1)
				s.logger.Warn().Err(err).
					Str("modes", q.Combination.Modes).
					Str("optimize", q.Optimize).
					Msg("planner query failed")
				return nil
			}
			for j := range its {
				its[j].ModeCombo = q.Combination.Modes
				its[j].Optimization = q.Optimize
			}
			results[i] = its
			s.logger.Debug().
				Str("combination", q.Combination.Name).
				Str("optimize", q.Optimize).
				Int("itineraries", len(its)).
				Msg("planner query done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []itinerary.Itinerary
	for _, its := range results {
		merged = append(merged, its...)
	}

	if int(failed.Load()) == len(queries) {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "ALL_QUERIES_FAILED",
			Message:  fmt.Sprintf("all %d planner queries failed", len(queries)),
			Err:      ErrProviderUnavailable,
		}
	}
	if len(merged) == 0 {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "NO_ITINERARIES",
			Message:  "planner found no itineraries",
			Err:      ErrNoItineraries,
		}
	}

	return &Response{
		Itineraries: merged,
		Provider:    s.provider.Name(),
		FetchedAt:   time.Now(),
		Queries:     len(queries),
		Failed:      int(failed.Load()),
	}, nil
}

func (s *Service) store(key string, resp *Response, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = &cachedPlan{
		response:  resp,
		fetchedAt: fetchedAt,
		expiresAt: fetchedAt.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded()
}

func (s *Service) sharedGet(ctx context.Context, key string) (*Response, bool) {
	if s.shared == nil {
		return nil, false
	}

	var resp Response
	found, err := s.shared.Get(ctx, key, &resp)
	if err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("shared cache read failed")
		return nil, false
	}
	if !found || time.Since(resp.FetchedAt) > s.cacheTTL {
		return nil, false
	}

	s.logger.Debug().Str("cache_key", key).Msg("shared cache hit for plan")
	return &resp, true
}

func (s *Service) sharedSet(ctx context.Context, key string, resp *Response) {
	if s.shared == nil {
		return
	}
	if err := s.shared.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("shared cache write failed")
	}
}

// CacheKey generates the cache key for a planner request.
// Uses grid-based quantization for both origin and destination.
// Format: plan:{gridOriginLat},{gridOriginLon}:{gridDestLat},{gridDestLon}.
func (s *Service) CacheKey(origin, destination itinerary.Coordinate) string {
	return fmt.Sprintf("plan:%.2f,%.2f:%.2f,%.2f",
		s.grid(origin.Lat), s.grid(origin.Lon),
		s.grid(destination.Lat), s.grid(destination.Lon),
	)
}

func (s *Service) grid(v float64) float64 {
	return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
}

// cleanupIfNeeded removes expired entries if cleanup interval has passed.
// Callers hold s.mu.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired plan cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedPlan)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	stale := 0

	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stale++
		}
	}

	return CacheStats{
		TotalEntries: len(s.cache),
		FreshEntries: fresh,
		StaleEntries: stale,
		Provider:     s.provider.Name(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
