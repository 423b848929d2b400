package fallback

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/profile"
	"github.com/yatri/yatri/internal/ranking"
)

// Defaults for the synthesizer.
const (
	DefaultMaxRoutes        = 3
	DefaultMaxTransfers     = 3
	DefaultSupplementCap    = 5
	DefaultMinDurationDelta = 10.0
)

// Config holds configuration for the synthesizer.
type Config struct {
	// MaxRoutes bounds the catalog output (default: 3).
	MaxRoutes int

	// SupplementCap bounds a supplemented list (default: 5).
	SupplementCap int

	// MinDurationDelta is how far, in minutes, a catalog route must be from
	// every existing route to be added as a supplement (default: 10).
	MinDurationDelta float64

	Logger zerolog.Logger
}

// Synthesizer returns catalog routes. It is deterministic and safe for
// concurrent use.
type Synthesizer struct {
	maxRoutes     int
	supplementCap int
	minDelta      float64
	logger        zerolog.Logger
}

// New creates a new synthesizer.
func New(cfg Config) *Synthesizer {
	if cfg.MaxRoutes <= 0 {
		cfg.MaxRoutes = DefaultMaxRoutes
	}
	if cfg.SupplementCap <= 0 {
		cfg.SupplementCap = DefaultSupplementCap
	}
	if cfg.MinDurationDelta <= 0 {
		cfg.MinDurationDelta = DefaultMinDurationDelta
	}

	return &Synthesizer{
		maxRoutes:     cfg.MaxRoutes,
		supplementCap: cfg.SupplementCap,
		minDelta:      cfg.MinDurationDelta,
		logger:        cfg.Logger,
	}
}

// Synthesize returns the catalog routes allowed by the profile's transfer
// limit, truncated to the configured maximum. Walking legs at either end are
// named after origin and destination. A profile without a transfer limit
// uses DefaultMaxTransfers.
func (s *Synthesizer) Synthesize(origin, destination string, p profile.Profile) []ranking.Route {
	maxTransfers := p.MaxTransfers
	if maxTransfers <= 0 {
		maxTransfers = DefaultMaxTransfers
	}

	routes := make([]ranking.Route, 0, s.maxRoutes)
	for i, e := range catalog() {
		if e.transfers > maxTransfers {
			continue
		}
		routes = append(routes, e.route(i+1, origin, destination))
		if len(routes) == s.maxRoutes {
			break
		}
	}

	s.logger.Debug().
		Str("origin", origin).
		Str("destination", destination).
		Str("profile", p.Key).
		Int("routes", len(routes)).
		Msg("using fallback routes")

	return routes
}

// Supplement appends catalog routes whose duration differs by at least the
// configured delta from every route already in the list, up to the
// supplement cap. Route ids of the result follow list order.
func (s *Synthesizer) Supplement(routes []ranking.Route, origin, destination string, p profile.Profile) []ranking.Route {
	out := make([]ranking.Route, len(routes), max(len(routes), s.supplementCap))
	copy(out, routes)

	for _, mock := range s.Synthesize(origin, destination, p) {
		if len(out) >= s.supplementCap {
			break
		}
		if s.tooClose(out, mock) {
			continue
		}
		out = append(out, mock)
		s.logger.Debug().
			Str("route_type", mock.RouteType).
			Int("duration", mock.Duration).
			Msg("added fallback route")
	}

	for i := range out {
		out[i].RouteID = i + 1
	}
	return out
}

func (s *Synthesizer) tooClose(routes []ranking.Route, mock ranking.Route) bool {
	for _, r := range routes {
		if math.Abs(float64(mock.Duration-r.Duration)) < s.minDelta {
			return true
		}
	}
	return false
}
