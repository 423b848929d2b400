// Package station holds the station reference data and resolves free-text
// station names to coordinates.
package station

import (
	"errors"

	"github.com/yatri/yatri/internal/itinerary"
)

// ErrNotFound is returned when a query matches no station or known area.
var ErrNotFound = errors.New("station not found")

// Station types by source.
const (
	TypeTransitStop = "TRANSIT_STOP"
	TypeStation     = "STATION"
	TypeGTFSStop    = "GTFS_STOP"
)

// Station is a named point riders can plan from or to.
type Station struct {
	ID   string  `json:"id,omitempty"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Type string  `json:"type"`
}

// Coordinate returns the station location.
func (s Station) Coordinate() itinerary.Coordinate {
	return itinerary.Coordinate{Lat: s.Lat, Lon: s.Lng}
}

// MatchKind describes which resolution tier produced a match.
type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchPartial MatchKind = "partial"
	MatchToken   MatchKind = "token"
	MatchArea    MatchKind = "area"
)

// Match is the result of resolving a query.
type Match struct {
	// Name is the matched station or area name.
	Name       string
	Coordinate itinerary.Coordinate
	Kind       MatchKind
	// Score is the token-overlap score for MatchToken, 1 otherwise.
	Score float64
}

// Area is an approximate location for a well-known neighbourhood.
type Area struct {
	Name       string
	Coordinate itinerary.Coordinate
}

// DefaultAreas returns the built-in Mumbai area table, in lookup order.
func DefaultAreas() []Area {
	return []Area{
		{Name: "andheri", Coordinate: itinerary.Coordinate{Lat: 19.1136, Lon: 72.8697}},
		{Name: "bandra", Coordinate: itinerary.Coordinate{Lat: 19.0544, Lon: 72.8406}},
		{Name: "churchgate", Coordinate: itinerary.Coordinate{Lat: 18.9322, Lon: 72.8264}},
		{Name: "dadar", Coordinate: itinerary.Coordinate{Lat: 19.0178, Lon: 72.8478}},
		{Name: "mumbai central", Coordinate: itinerary.Coordinate{Lat: 18.9686, Lon: 72.8181}},
		{Name: "lower parel", Coordinate: itinerary.Coordinate{Lat: 18.9969, Lon: 72.8331}},
		{Name: "kurla", Coordinate: itinerary.Coordinate{Lat: 19.0692, Lon: 72.8789}},
		{Name: "ghatkopar", Coordinate: itinerary.Coordinate{Lat: 19.0864, Lon: 72.9081}},
		{Name: "thane", Coordinate: itinerary.Coordinate{Lat: 19.1972, Lon: 72.9636}},
		{Name: "navi mumbai", Coordinate: itinerary.Coordinate{Lat: 19.0330, Lon: 73.0297}},
	}
}

// MockStations returns the built-in Mumbai suburban station list used when
// no other source is available.
func MockStations() []Station {
	return []Station{
		{Name: "Churchgate", Lat: 18.9322, Lng: 72.8264, Type: "WR"},
		{Name: "Marine Lines", Lat: 18.9456, Lng: 72.8239, Type: "WR"},
		{Name: "Charni Road", Lat: 18.9539, Lng: 72.8200, Type: "WR"},
		{Name: "Grant Road", Lat: 18.9633, Lng: 72.8152, Type: "WR"},
		{Name: "Mumbai Central", Lat: 18.9686, Lng: 72.8181, Type: "WR"},
		{Name: "Mahalaxmi", Lat: 18.9827, Lng: 72.8186, Type: "WR"},
		{Name: "Lower Parel", Lat: 18.9969, Lng: 72.8331, Type: "WR"},
		{Name: "Elphinstone Road", Lat: 19.0041, Lng: 72.8339, Type: "WR"},
		{Name: "Dadar", Lat: 19.0178, Lng: 72.8478, Type: "WR"},
		{Name: "Matunga Road", Lat: 19.0270, Lng: 72.8489, Type: "WR"},
		{Name: "Mahim", Lat: 19.0411, Lng: 72.8411, Type: "WR"},
		{Name: "Bandra", Lat: 19.0544, Lng: 72.8406, Type: "WR"},
		{Name: "Khar Road", Lat: 19.0689, Lng: 72.8372, Type: "WR"},
		{Name: "Santacruz", Lat: 19.0822, Lng: 72.8386, Type: "WR"},
		{Name: "Vile Parle", Lat: 19.0989, Lng: 72.8469, Type: "WR"},
		{Name: "Andheri", Lat: 19.1197, Lng: 72.8469, Type: "WR"},
		{Name: "CST", Lat: 18.9398, Lng: 72.8355, Type: "CR"},
		{Name: "Masjid", Lat: 18.9556, Lng: 72.8408, Type: "CR"},
		{Name: "Sandhurst Road", Lat: 18.9644, Lng: 72.8447, Type: "CR"},
		{Name: "King's Circle", Lat: 19.0270, Lng: 72.8578, Type: "CR"},
		{Name: "Kurla", Lat: 19.0692, Lng: 72.8789, Type: "CR"},
		{Name: "Ghatkopar", Lat: 19.0864, Lng: 72.9081, Type: "CR"},
		{Name: "Thane", Lat: 19.1972, Lng: 72.9636, Type: "CR"},
	}
}
