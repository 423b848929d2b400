// Package itinerary defines the trip-planner itinerary model shared by the
// ranking pipeline, the planner clients and the fallback catalog.
package itinerary

import "strings"

// Mode is the transport mode of a single leg.
type Mode string

const (
	ModeWalk   Mode = "WALK"
	ModeBus    Mode = "BUS"
	ModeRail   Mode = "RAIL"
	ModeSubway Mode = "SUBWAY"
	ModeTram   Mode = "TRAM"
	// ModeAuto is the auto-rickshaw. The planner reports it as CAR.
	ModeAuto Mode = "AUTO"
)

// ParseMode maps a raw planner mode string onto a Mode.
// An empty mode is treated as walking, CAR becomes AUTO and unknown modes
// are kept verbatim so callers can still see them.
func ParseMode(raw string) Mode {
	m := strings.ToUpper(strings.TrimSpace(raw))
	switch m {
	case "":
		return ModeWalk
	case "CAR":
		return ModeAuto
	default:
		return Mode(m)
	}
}

// IsVehicle reports whether boarding this mode counts as a boarding for
// transfer purposes.
func (m Mode) IsVehicle() bool {
	switch m {
	case ModeBus, ModeRail, ModeSubway, ModeTram, ModeAuto:
		return true
	}
	return false
}

// IsTransit reports whether the mode is scheduled public transport.
func (m Mode) IsTransit() bool {
	switch m {
	case ModeBus, ModeRail, ModeSubway, ModeTram:
		return true
	}
	return false
}

// Known reports whether the mode is one of the supported modes.
func (m Mode) Known() bool {
	return m == ModeWalk || m.IsVehicle()
}

// Category is the bucket an itinerary was selected into.
type Category string

const (
	CategoryFastest         Category = "fastest"
	CategoryCheapest        Category = "cheapest"
	CategoryFewestTransfers Category = "fewest_transfers"
	CategoryMixed           Category = "mixed"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Place is a leg endpoint as reported by the planner.
type Place struct {
	Name        string   `json:"name,omitempty"`
	StopName    string   `json:"stopName,omitempty"`
	StationName string   `json:"stationName,omitempty"`
	VertexType  string   `json:"vertexType,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// Coordinate returns the place coordinate if both components are present.
func (p Place) Coordinate() (Coordinate, bool) {
	if p.Lat == nil || p.Lon == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *p.Lat, Lon: *p.Lon}, true
}

// Trip carries optional trip details of a transit leg.
type Trip struct {
	Headsign  string `json:"tripHeadsign,omitempty"`
	ID        string `json:"tripId,omitempty"`
	ShortName string `json:"tripShortName,omitempty"`
	BlockID   string `json:"blockId,omitempty"`
}

// Leg is one uninterrupted hop on a single mode.
type Leg struct {
	Mode            Mode
	DistanceMeters  float64
	DurationSeconds float64
	From            Place
	To              Place

	// StartTime and EndTime are epoch milliseconds.
	StartTime int64
	EndTime   int64

	RouteShortName string
	RouteLongName  string
	RouteID        string
	TripShortName  string
	Headsign       string
	AgencyName     string
	Trip           *Trip

	// Geometry is the encoded polyline of the leg, if the planner sent one.
	Geometry string
}

// DistanceKm returns the leg distance in kilometres.
func (l Leg) DistanceKm() float64 {
	return l.DistanceMeters / 1000
}

// Itinerary is one candidate trip.
type Itinerary struct {
	DurationSeconds    float64
	StartTime          int64
	EndTime            int64
	WalkTimeSeconds    float64
	TransitTimeSeconds float64
	WaitingTimeSeconds float64
	Legs               []Leg

	// Category is set when an upstream stage already bucketed the itinerary.
	Category Category

	// ModeCombo and Optimization record which planner query produced it.
	ModeCombo    string
	Optimization string
}

// DurationMinutes returns the itinerary duration in fractional minutes.
func (it Itinerary) DurationMinutes() float64 {
	return it.DurationSeconds / 60
}

// Transfers counts vehicle boardings beyond the first.
func (it Itinerary) Transfers() int {
	boardings := 0
	for _, leg := range it.Legs {
		if leg.Mode.IsVehicle() {
			boardings++
		}
	}
	if boardings == 0 {
		return 0
	}
	return boardings - 1
}

// TotalDistanceMeters sums the distance of all legs.
func (it Itinerary) TotalDistanceMeters() float64 {
	total := 0.0
	for _, leg := range it.Legs {
		total += leg.DistanceMeters
	}
	return total
}

// Modes returns the distinct leg modes in order of first appearance.
func (it Itinerary) Modes() []Mode {
	seen := make(map[Mode]bool, len(it.Legs))
	modes := make([]Mode, 0, len(it.Legs))
	for _, leg := range it.Legs {
		if seen[leg.Mode] {
			continue
		}
		seen[leg.Mode] = true
		modes = append(modes, leg.Mode)
	}
	return modes
}
