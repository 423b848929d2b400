// Package plan answers journey requests: it resolves the endpoints, queries
// the trip planner, ranks the result and decorates it for riders.
package plan

import (
	"errors"
	"time"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/lastmile"
	"github.com/yatri/yatri/internal/ranking"
)

// Plan errors.
var (
	// ErrMissingEndpoints is returned when origin or destination is blank.
	ErrMissingEndpoints = errors.New("origin and destination are required")

	// ErrUnresolvable is returned when neither endpoint matches a known
	// station or area.
	ErrUnresolvable = errors.New("could not resolve origin or destination")
)

// NoRoutesMessage accompanies an empty result after filtering.
const NoRoutesMessage = "No suitable routes found with the selected filters. Try adjusting your preferences."

// Route sources.
const (
	SourcePlanner  = "planner"
	SourceFallback = "fallback"
)

// VehicleType is a rider-facing transport filter value.
type VehicleType string

const (
	VehicleAll   VehicleType = "all"
	VehicleWalk  VehicleType = "walk"
	VehicleBus   VehicleType = "bus"
	VehicleTrain VehicleType = "train"
	VehicleMetro VehicleType = "metro"
	VehicleAuto  VehicleType = "auto"
)

// vehicleModes maps each filter value to the leg modes it allows.
var vehicleModes = map[VehicleType][]itinerary.Mode{
	VehicleWalk:  {itinerary.ModeWalk},
	VehicleBus:   {itinerary.ModeBus},
	VehicleTrain: {itinerary.ModeRail},
	VehicleMetro: {itinerary.ModeSubway},
	VehicleAuto:  {itinerary.ModeAuto},
}

// Request is a journey planning request.
type Request struct {
	Origin      string
	Destination string

	// Profile is the rider profile key (optional, defaults to comfort).
	Profile string

	// VehicleTypes restricts the non-walk modes a route may use. Empty or
	// containing "all" means no restriction.
	VehicleTypes []VehicleType

	// Preference is the route ordering (fastest, cheapest, fewest, eco).
	Preference string

	// When is the departure time (optional, defaults to now).
	When time.Time
}

// Route is a ranked route with its last-mile ride options.
type Route struct {
	ranking.Route
	LastMile []lastmile.Option `json:"last_mile"`
}

// Stats summarises how a response was produced.
type Stats struct {
	PlannerQueries int
	PlannerFailed  int
	Received       int
	Degenerate     int
	Deduped        int
	Supplemented   int
	Filtered       int
}

// Response is the outcome of a planning request.
type Response struct {
	Routes      []Route
	Message     string
	Profile     string
	Preference  string
	Origin      string
	Destination string

	OriginCoordinate      *itinerary.Coordinate
	DestinationCoordinate *itinerary.Coordinate

	// Source is SourcePlanner or SourceFallback.
	Source string

	// Stale is set when planner data was served from an expired cache entry.
	Stale bool

	Stats Stats
}
