package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/fallback"
	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/lastmile"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/profile"
	"github.com/yatri/yatri/internal/ranking"
)

const defaultMinRoutes = 3

// Resolver maps free-text place names to coordinates.
type Resolver interface {
	Resolve(query string) (itinerary.Coordinate, error)
}

// Planner returns raw itineraries between two coordinates.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Response, error)
}

// Ranker turns raw itineraries into a shortlist of display routes.
type Ranker interface {
	Rank(ctx context.Context, its []itinerary.Itinerary, w profile.Weights) (ranking.Result, error)
}

// Profiles resolves rider profiles.
type Profiles interface {
	Get(ctx context.Context, key string) profile.Profile
}

// LastMile quotes first/last-mile rides.
type LastMile interface {
	Options(origin, destination *itinerary.Coordinate) []lastmile.Option
}

// ServiceConfig holds configuration for the plan service.
type ServiceConfig struct {
	Resolver Resolver
	Planner  Planner
	Ranker   Ranker
	Profiles Profiles
	LastMile LastMile

	// Fallback supplies catalog routes (optional, defaults to fallback.New).
	Fallback *fallback.Synthesizer

	// Metrics records request outcomes (optional).
	Metrics *Metrics

	// MinRoutes is the route count below which fallback routes are
	// added (default: 3).
	MinRoutes int

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service plans journeys.
type Service struct {
	resolver  Resolver
	planner   Planner
	ranker    Ranker
	profiles  Profiles
	lastMile  LastMile
	fallback  *fallback.Synthesizer
	metrics   *Metrics
	minRoutes int
	logger    zerolog.Logger
}

// NewService creates a new plan service.
func NewService(cfg ServiceConfig) *Service {
	fb := cfg.Fallback
	if fb == nil {
		fb = fallback.New(fallback.Config{Logger: cfg.Logger})
	}

	minRoutes := cfg.MinRoutes
	if minRoutes <= 0 {
		minRoutes = defaultMinRoutes
	}

	return &Service{
		resolver:  cfg.Resolver,
		planner:   cfg.Planner,
		ranker:    cfg.Ranker,
		profiles:  cfg.Profiles,
		lastMile:  cfg.LastMile,
		fallback:  fb,
		metrics:   cfg.Metrics,
		minRoutes: minRoutes,
		logger:    cfg.Logger.With().Str("component", "plan").Logger(),
	}
}

// Plan answers a journey request.
func (s *Service) Plan(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		return nil, ErrMissingEndpoints
	}

	pref := profile.ParsePreference(req.Preference)
	p := s.profiles.Get(ctx, req.Profile).WithPreference(pref)

	logger := s.logger.With().
		Str("origin", origin).
		Str("destination", destination).
		Str("profile", p.Key).
		Str("preference", string(pref)).
		Logger()

	resp := &Response{
		Profile:     p.Key,
		Preference:  string(pref),
		Origin:      origin,
		Destination: destination,
		Source:      SourcePlanner,
	}

	from, fromErr := s.resolver.Resolve(origin)
	to, toErr := s.resolver.Resolve(destination)
	if fromErr == nil {
		resp.OriginCoordinate = &from
	}
	if toErr == nil {
		resp.DestinationCoordinate = &to
	}

	var routes []ranking.Route
	switch {
	case fromErr != nil && toErr != nil:
		logger.Info().Msg("neither endpoint could be resolved")
		s.metrics.incRequest(outcomeUnresolvable)
		return nil, fmt.Errorf("%w: %q, %q", ErrUnresolvable, origin, destination)

	case fromErr != nil || toErr != nil:
		logger.Info().
			Bool("origin_resolved", fromErr == nil).
			Bool("destination_resolved", toErr == nil).
			Msg("one endpoint unresolved, using fallback routes")
		routes = s.fallback.Synthesize(origin, destination, p)
		resp.Source = SourceFallback

	default:
		var err error
		routes, err = s.planAndRank(ctx, logger, resp, p, planner.Request{Origin: from, Destination: to, When: req.When})
		if err != nil {
			s.metrics.incRequest(outcomeError)
			return nil, err
		}
	}

	routes = FilterByVehicle(routes, req.VehicleTypes)
	resp.Stats.Filtered = len(routes)
	routes = SortByPreference(routes, pref)

	if len(routes) == 0 {
		resp.Message = NoRoutesMessage
		resp.Routes = []Route{}
		s.metrics.incRequest(outcomeEmpty)
		logger.Info().Dur("duration", time.Since(start)).Msg("no routes after filtering")
		return resp, nil
	}

	resp.Routes = s.decorate(routes, resp.OriginCoordinate, resp.DestinationCoordinate)
	s.metrics.incRequest(resp.Source)
	s.metrics.observeRoutes(len(resp.Routes))

	logger.Info().
		Str("source", resp.Source).
		Int("routes", len(resp.Routes)).
		Bool("stale", resp.Stale).
		Dur("duration", time.Since(start)).
		Msg("journey planned")

	return resp, nil
}

// planAndRank queries the planner and ranks its itineraries, topping up a
// short list with catalog routes. Planner failures other than cancellation
// degrade to the catalog.
func (s *Service) planAndRank(ctx context.Context, logger zerolog.Logger, resp *Response, p profile.Profile, preq planner.Request) ([]ranking.Route, error) {
	planned, err := s.planner.Plan(ctx, preq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lvl := zerolog.WarnLevel
		if errors.Is(err, planner.ErrNoItineraries) {
			lvl = zerolog.InfoLevel
		}
		logger.WithLevel(lvl).Err(err).Msg("planner returned nothing usable, using fallback routes")

		resp.Source = SourceFallback
		return s.fallback.Synthesize(resp.Origin, resp.Destination, p), nil
	}

	resp.Stale = planned.Stale
	resp.Stats.PlannerQueries = planned.Queries
	resp.Stats.PlannerFailed = planned.Failed

	result, err := s.ranker.Rank(ctx, planned.Itineraries, p.Weights)
	if err != nil {
		return nil, fmt.Errorf("ranking itineraries: %w", err)
	}
	resp.Stats.Received = result.Received
	resp.Stats.Degenerate = result.Degenerate
	resp.Stats.Deduped = result.Deduped

	routes := result.Routes
	switch {
	case len(routes) == 0:
		logger.Info().
			Int("received", result.Received).
			Int("degenerate", result.Degenerate).
			Msg("no usable itineraries, using fallback routes")
		resp.Source = SourceFallback
		return s.fallback.Synthesize(resp.Origin, resp.Destination, p), nil

	case len(routes) < s.minRoutes:
		before := len(routes)
		routes = s.fallback.Supplement(routes, resp.Origin, resp.Destination, p)
		resp.Stats.Supplemented = len(routes) - before
		s.metrics.addSupplemented(resp.Stats.Supplemented)
		logger.Debug().
			Int("ranked", before).
			Int("supplemented", resp.Stats.Supplemented).
			Msg("supplemented short route list")
	}

	return routes, nil
}

// decorate attaches last-mile options to every route and numbers the routes
// in final list order. All routes share the same endpoints, so one quote
// serves them all.
func (s *Service) decorate(routes []ranking.Route, origin, destination *itinerary.Coordinate) []Route {
	var options []lastmile.Option
	if s.lastMile != nil {
		options = s.lastMile.Options(origin, destination)
	}
	if len(options) == 0 {
		options = lastmile.Fallback()
	}

	out := make([]Route, len(routes))
	for i, r := range routes {
		opts := make([]lastmile.Option, len(options))
		copy(opts, options)
		r.RouteID = i + 1
		out[i] = Route{Route: r, LastMile: opts}
	}
	return out
}
