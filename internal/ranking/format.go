package ranking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/yatri/yatri/internal/itinerary"
)

// Formatter turns scored candidates into display routes.
type Formatter struct {
	loc *time.Location
}

// NewFormatter creates a formatter that renders clock times in loc.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = DefaultConfig().Location
	}
	return &Formatter{loc: loc}
}

// Route formats c as route id with the given label.
func (f *Formatter) Route(c Candidate, id int, label string) Route {
	it := c.Itinerary
	m := c.Metrics
	if m == nil {
		m = &Metrics{DurationMinutes: it.DurationMinutes(), Transfers: it.Transfers()}
	}

	legs := make([]RouteLeg, 0, len(it.Legs))
	for _, leg := range it.Legs {
		legs = append(legs, f.Leg(leg))
	}

	return Route{
		RouteID:         id,
		Duration:        int(m.DurationMinutes),
		Transfers:       m.Transfers,
		Score:           math.Round(m.Score*100) / 100,
		Cost:            m.Cost,
		FareBreakdown:   m.FareBreakdown,
		EcoScore:        math.Round(m.EcoScore*10) / 10,
		RouteType:       label,
		Category:        c.Category,
		Legs:            legs,
		StartTime:       it.StartTime,
		EndTime:         it.EndTime,
		WalkTime:        it.WalkTimeSeconds / 60,
		TransitTime:     it.TransitTimeSeconds / 60,
		WaitingTime:     it.WaitingTimeSeconds / 60,
		DurationMinutes: m.DurationMinutes,
	}
}

// Leg formats a single leg for display.
func (f *Formatter) Leg(leg itinerary.Leg) RouteLeg {
	route, number := routeLabel(leg)

	out := RouteLeg{
		Mode:          string(leg.Mode),
		Route:         route,
		RouteNumber:   number,
		Duration:      itinerary.DisplayMinutes(leg),
		Distance:      int(leg.DistanceMeters),
		FromName:      leg.From.DisplayName(),
		ToName:        leg.To.DisplayName(),
		StartTime:     leg.StartTime,
		EndTime:       leg.EndTime,
		DepartureTime: f.clock(leg.StartTime),
		ArrivalTime:   f.clock(leg.EndTime),
		Geometry:      decodeGeometry(leg.Geometry),
	}

	if leg.Mode != itinerary.ModeWalk && leg.Mode != itinerary.ModeAuto {
		out.RouteLongName = leg.RouteLongName
		out.RouteShortName = leg.RouteShortName
		out.RouteID = leg.RouteID
		out.Headsign = leg.Headsign
		if leg.Trip != nil {
			out.TripHeadsign = leg.Trip.Headsign
			out.TripID = leg.Trip.ID
			out.TripShortName = leg.Trip.ShortName
			out.BlockID = leg.Trip.BlockID
		}
		out.Agency = leg.AgencyName
	}

	return out
}

func (f *Formatter) clock(ms int64) *string {
	if ms == 0 {
		return nil
	}
	s := time.UnixMilli(ms).In(f.loc).Format("15:04")
	return &s
}

var directionSuffixes = strings.NewReplacer("-UP", "", "-DN", "")

// routeLabel returns the display route and route number of a leg, reading
// the route number from the trip short name, headsign or route short name
// depending on mode.
func routeLabel(leg itinerary.Leg) (string, string) {
	var route, number string

	switch leg.Mode {
	case itinerary.ModeWalk:
		return "", ""

	case itinerary.ModeAuto:
		return "Auto Rickshaw", "AUTO"

	case itinerary.ModeBus:
		switch {
		case leg.TripShortName != "" && leg.TripShortName != "BEST":
			number = strings.TrimSpace(strings.ReplaceAll(directionSuffixes.Replace(leg.TripShortName), "2:", ""))
		case leg.Headsign != "" && leg.Headsign != "BEST Bus" && leg.Headsign != "BEST":
			number = strings.TrimSpace(directionSuffixes.Replace(leg.Headsign))
		case leg.RouteShortName != "" && leg.RouteShortName != "BEST" && leg.RouteShortName != "BEST Bus":
			number = leg.RouteShortName
		}
		if number != "" && number != "BEST" {
			route = "BEST " + number
		} else {
			number, route = "BEST", "BEST Bus"
		}

	case itinerary.ModeRail:
		desc := leg.RouteLongName
		if desc == "" {
			desc = "Local Train"
		}
		switch {
		case leg.TripShortName != "":
			if before, _, found := strings.Cut(leg.TripShortName, " - "); found {
				number = before
			} else {
				number = strings.ReplaceAll(leg.TripShortName, "2:", "")
			}
		case leg.RouteShortName != "":
			number = leg.RouteShortName
		default:
			number = "LOCAL"
		}
		route = joinRoute(number, desc, "LOCAL")

	case itinerary.ModeSubway:
		desc := leg.RouteLongName
		if desc == "" {
			desc = "Metro"
		}
		switch {
		case leg.RouteShortName != "":
			number = leg.RouteShortName
		case leg.TripShortName != "":
			number = strings.ReplaceAll(leg.TripShortName, "2:", "")
		default:
			number = "ML-1"
		}
		route = joinRoute(number, desc, "")
	}

	if route == "" {
		switch leg.Mode {
		case itinerary.ModeBus:
			return "BEST Bus", "BEST"
		case itinerary.ModeRail:
			return "Local Train", "LOCAL"
		case itinerary.ModeSubway:
			return "Metro", "ML-1"
		default:
			return string(leg.Mode), string(leg.Mode)
		}
	}
	return route, number
}

// joinRoute renders "number - desc", or desc alone when the number is empty
// or equal to skip.
func joinRoute(number, desc, skip string) string {
	switch {
	case number == "" || (skip != "" && number == skip):
		return desc
	case number == desc:
		return number
	default:
		return fmt.Sprintf("%s - %s", number, desc)
	}
}

// decodeGeometry decodes an encoded polyline. Malformed input yields no
// geometry.
func decodeGeometry(encoded string) []itinerary.Coordinate {
	if encoded == "" {
		return nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil
	}
	out := make([]itinerary.Coordinate, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		out = append(out, itinerary.Coordinate{Lat: c[0], Lon: c[1]})
	}
	return out
}
