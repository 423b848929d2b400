package lastmile

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/itinerary"
)

// Distance guards.
const (
	defaultDistanceKm = 1.5
	minDistanceKm     = 0.5
	maxDistanceKm     = 100

	// Range drawn from when either endpoint has no coordinates.
	unknownDistanceMinKm = 0.8
	unknownDistanceMaxKm = 2.5
)

// Simulation parameters.
const (
	surgeChance    = 0.3
	minSurge       = 1.1
	discountChance = 0.2
	minDiscount    = 0.1

	// minutesPerKm is the base travel time per km in city traffic,
	// before the provider time factor.
	minutesPerKm = 3

	// meteredMinutesPerKm feeds the per-minute time charge of metered cabs.
	meteredMinutesPerKm = 2

	maxTrafficDelay = 8
	minTravelTime   = 3
	minETA          = 2
	maxETA          = 12
	minRating       = 3.8
	maxRating       = 4.7
)

// Config holds configuration for the last-mile service.
type Config struct {
	// Rand is the random source (optional, defaults to the global source).
	Rand Rand

	// MaxOptions caps the number of options returned (default: 5).
	MaxOptions int

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service quotes last-mile rides.
type Service struct {
	rand       Rand
	maxOptions int
	logger     zerolog.Logger
}

// globalRand draws from the goroutine-safe top-level math/rand/v2 source.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// NewService creates a new last-mile service.
func NewService(cfg Config) *Service {
	r := cfg.Rand
	if r == nil {
		r = globalRand{}
	}

	maxOptions := cfg.MaxOptions
	if maxOptions <= 0 {
		maxOptions = defaultMaxOptions
	}

	return &Service{
		rand:       r,
		maxOptions: maxOptions,
		logger:     cfg.Logger.With().Str("component", "lastmile").Logger(),
	}
}

// Options returns the available rides between origin and destination,
// cheapest first. Either coordinate may be nil.
func (s *Service) Options(origin, destination *itinerary.Coordinate) []Option {
	distance := s.distance(origin, destination)

	options := make([]Option, 0, len(providers))
	for _, p := range providers {
		if p.maxDistanceKm > 0 && distance > p.maxDistanceKm {
			continue
		}
		if s.rand.Float64() > p.availability {
			continue
		}

		opt := s.quote(p, distance)
		if link := BookingLink(p.id, origin, destination); link != "" {
			opt.DeepLink = link
		}
		options = append(options, opt)
	}

	slices.SortStableFunc(options, func(a, b Option) int {
		return a.Cost - b.Cost
	})
	if len(options) > s.maxOptions {
		options = options[:s.maxOptions]
	}

	s.logger.Debug().
		Float64("distance_km", distance).
		Int("option_count", len(options)).
		Msg("quoted last-mile options")

	return options
}

// distance returns the ride distance in km.
func (s *Service) distance(origin, destination *itinerary.Coordinate) float64 {
	var d float64
	if origin == nil || destination == nil {
		d = unknownDistanceMinKm + s.rand.Float64()*(unknownDistanceMaxKm-unknownDistanceMinKm)
	} else {
		d = RideDistanceKm(*origin, *destination)
	}
	return max(minDistanceKm, d)
}

// RideDistanceKm returns the haversine distance rounded to two decimals, or
// 1.5 km when the result is zero or implausibly far for a last-mile ride.
func RideDistanceKm(a, b itinerary.Coordinate) float64 {
	if !a.Valid() || !b.Valid() {
		return defaultDistanceKm
	}
	d := itinerary.DistanceKm(a, b)
	if d <= 0 || d > maxDistanceKm || math.IsNaN(d) {
		return defaultDistanceKm
	}
	return math.Round(d*100) / 100
}

func (s *Service) quote(p provider, distance float64) Option {
	var cost float64
	switch p.pricing {
	case pricingTimed:
		minutes := distance * p.timeFactor * minutesPerKm
		cost = p.baseFare + minutes*p.perMinute
	case pricingSlab:
		cost = p.baseFare
		if distance > p.baseDistanceKm {
			cost += (distance - p.baseDistanceKm) * p.perKm
		}
	default:
		cost = p.baseFare + distance*p.perKm
		if p.timeChargePerMin > 0 {
			cost += distance * p.timeFactor * meteredMinutesPerKm * p.timeChargePerMin
		}
	}

	if p.surge > 0 {
		if s.rand.Float64() < surgeChance {
			cost *= s.uniform(minSurge, p.surge)
		} else if p.discount > 0 && s.rand.Float64() < discountChance {
			cost *= 1 - s.uniform(minDiscount, p.discount)
		}
	}

	baseTime := distance * p.timeFactor * minutesPerKm
	delay := 1 + s.rand.IntN(maxTrafficDelay)
	travel := max(minTravelTime, int(baseTime+float64(delay)))
	eta := minETA + s.rand.IntN(maxETA-minETA+1)

	return Option{
		ID:          p.id,
		Name:        p.name,
		Cost:        int(max(math.Round(cost), math.Round(p.baseFare))),
		TimeMinutes: travel,
		DistanceKm:  math.Round(distance*10) / 10,
		Icon:        p.icon,
		Color:       p.color,
		DeepLink:    p.deepLink,
		Rating:      math.Round(s.uniform(minRating, maxRating)*10) / 10,
		ETA:         fmt.Sprintf("%d min", eta),
		Available:   true,
	}
}

func (s *Service) uniform(lo, hi float64) float64 {
	return lo + s.rand.Float64()*(hi-lo)
}

// BookingLink returns the provider's booking URL, prefilled with pickup and
// drop coordinates when both are known. Providers without an app return "".
func BookingLink(providerID string, origin, destination *itinerary.Coordinate) string {
	p, ok := lookupProvider(providerID)
	if !ok || p.deepLink == "" {
		return ""
	}
	if origin == nil || destination == nil {
		return p.deepLink
	}

	oLat, oLng := coord(origin.Lat), coord(origin.Lon)
	dLat, dLng := coord(destination.Lat), coord(destination.Lon)

	switch {
	case strings.Contains(providerID, "ola"):
		return p.deepLink + "?pickup=" + oLat + "," + oLng + "&drop=" + dLat + "," + dLng
	case strings.Contains(providerID, "uber"):
		return p.deepLink + "?action=setPickup" +
			"&pickup[latitude]=" + oLat + "&pickup[longitude]=" + oLng +
			"&dropoff[latitude]=" + dLat + "&dropoff[longitude]=" + dLng
	case strings.Contains(providerID, "rapido"):
		return p.deepLink + "?pickup_lat=" + oLat + "&pickup_lng=" + oLng +
			"&drop_lat=" + dLat + "&drop_lng=" + dLng
	default:
		return p.deepLink
	}
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
