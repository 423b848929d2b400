// Package planner queries the external trip planner for multimodal
// itineraries, fanning a single request out over mode combinations and
// optimization targets.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/yatri/yatri/internal/itinerary"
)

// Sentinel errors for planner operations.
var (
	// ErrProviderUnavailable indicates the planner is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("planner unavailable")
	// ErrNoItineraries indicates the planner answered but found nothing.
	ErrNoItineraries = errors.New("planner returned no itineraries")
	// ErrRateLimitExceeded indicates the planner rejected the request rate.
	ErrRateLimitExceeded = errors.New("planner rate limit exceeded")
	// ErrInvalidCoordinates indicates the origin or destination is out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider is a trip planner backend.
type Provider interface {
	// Plan runs a single planner query.
	Plan(ctx context.Context, q Query) ([]itinerary.Itinerary, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// ModeCombination is one set of allowed modes sent to the planner.
type ModeCombination struct {
	// Modes is the planner mode list, e.g. "WALK,BUS,RAIL".
	Modes string
	// Name labels the combination in logs.
	Name string
}

// DefaultModeCombinations returns the transit, auto and walking mixes the
// planner is asked for.
func DefaultModeCombinations() []ModeCombination {
	return []ModeCombination{
		{"WALK,TRANSIT", "all_transit"},
		{"WALK,BUS", "bus_only"},
		{"WALK,RAIL", "rail_only"},
		{"WALK,SUBWAY", "metro_only"},
		{"WALK,BUS,RAIL", "bus_rail_mix"},
		{"WALK,BUS,SUBWAY", "bus_metro_mix"},
		{"WALK,RAIL,SUBWAY", "rail_metro_mix"},
		{"CAR", "auto_direct"},
		{"WALK,CAR", "walk_auto_mix"},
		{"WALK,BUS,CAR", "auto_bus_mix"},
		{"WALK,RAIL,CAR", "auto_rail_mix"},
		{"WALK", "walk_only"},
	}
}

// Optimization is a planner optimization target and its transfer penalty.
type Optimization struct {
	Optimize               string
	TransferPenaltySeconds int
}

// DefaultOptimizations returns the fastest, fewest-transfers and balanced
// variants.
func DefaultOptimizations() []Optimization {
	return []Optimization{
		{"QUICK", 300},
		{"TRANSFERS", 1800},
		{"WALKING", 600},
	}
}

// Query is one planner call.
type Query struct {
	Origin      itinerary.Coordinate
	Destination itinerary.Coordinate
	Combination ModeCombination
	Optimization
	// When is the departure time.
	When time.Time
}

// Request asks for all itineraries between two points.
type Request struct {
	Origin      itinerary.Coordinate
	Destination itinerary.Coordinate
	// When is the departure time (default: now).
	When time.Time
}

// Response is the merged result of a fan-out.
type Response struct {
	Itineraries []itinerary.Itinerary
	Provider    string
	FetchedAt   time.Time
	// Queries is the number of planner calls made; Failed of them errored.
	Queries int
	Failed  int
	// Stale is set when a cached response is served because the planner failed.
	Stale bool
}

// Error provides detailed error information from the planner.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
