// Package fare estimates deterministic rupee fares for itineraries.
package fare

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/itinerary"
)

// DefaultMinimumFare is the floor applied to every itinerary total.
const DefaultMinimumFare = 5

// Bus, metro, tram and auto tariffs.
const (
	busShortFare  = 8
	busMediumFare = 15
	busLongFare   = 25

	tramFare = 5

	autoBaseFare         = 28
	autoPerKm            = 18
	autoSurchargeAfterKm = 3
	autoSurcharge        = 10
)

// Operator and line labels used in breakdown entries.
const (
	OperatorBEST     = "BEST"
	OperatorRailways = "Indian Railways"
	OperatorMetro    = "Mumbai Metro"
	OperatorAuto     = "Auto Rickshaw"

	metroLine = "Blue Line (ML-1)"
)

// Entry is the fare detail of one priced leg.
type Entry struct {
	Mode         string      `json:"mode"`
	Operator     string      `json:"operator"`
	Line         string      `json:"line,omitempty"`
	RouteNumber  *string     `json:"route_number,omitempty"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	DistanceKm   *float64    `json:"distance_km,omitempty"`
	Fare         int         `json:"fare,omitempty"`
	Fares        *ClassFares `json:"fares,omitempty"`
	DefaultFare  int         `json:"default_fare,omitempty"`
	BaseFare     int         `json:"base_fare,omitempty"`
	DistanceFare int         `json:"distance_fare,omitempty"`
	TotalFare    int         `json:"total_fare,omitempty"`
}

// Quote is the estimated cost of an itinerary.
type Quote struct {
	Total     int     `json:"total_cost"`
	Breakdown []Entry `json:"breakdown"`
}

// EstimatorConfig holds configuration for the estimator.
type EstimatorConfig struct {
	// Tables is the rail fare reference data (default: DefaultTables).
	Tables *Tables

	// MinimumFare is the floor for totals (default: DefaultMinimumFare).
	MinimumFare int

	Logger zerolog.Logger
}

// Estimator prices itineraries. It holds only immutable data and is safe for
// concurrent use.
type Estimator struct {
	tables  Tables
	minimum int
	logger  zerolog.Logger
}

// NewEstimator creates a new fare estimator.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	tables := DefaultTables()
	if cfg.Tables != nil {
		tables = *cfg.Tables
	}
	minimum := cfg.MinimumFare
	if minimum <= 0 {
		minimum = DefaultMinimumFare
	}

	return &Estimator{
		tables:  tables,
		minimum: minimum,
		logger:  cfg.Logger,
	}
}

// Tables returns the rail fare tables in use.
func (e *Estimator) Tables() Tables {
	return e.tables
}

// Estimate prices every leg of it. Walking and unrecognized modes cost
// nothing and are left out of the breakdown.
func (e *Estimator) Estimate(it itinerary.Itinerary) Quote {
	total := 0.0
	breakdown := make([]Entry, 0, len(it.Legs))

	for _, leg := range it.Legs {
		cost, entry := e.priceLeg(leg)
		if cost > 0 {
			total += cost
			breakdown = append(breakdown, entry)
		}
	}

	return Quote{
		Total:     max(e.minimum, int(total)),
		Breakdown: breakdown,
	}
}

func (e *Estimator) priceLeg(leg itinerary.Leg) (float64, Entry) {
	km := leg.DistanceKm()
	from := leg.From.DisplayName()
	to := leg.To.DisplayName()
	dist := round1(km)

	switch leg.Mode {
	case itinerary.ModeWalk:
		return 0, Entry{}

	case itinerary.ModeBus:
		fare := BusFare(km)
		number := strings.NewReplacer("-UP", "", "-DN", "").Replace(leg.TripShortName)
		return float64(fare), Entry{
			Mode:        string(itinerary.ModeBus),
			Operator:    OperatorBEST,
			RouteNumber: &number,
			From:        from,
			To:          to,
			DistanceKm:  &dist,
			Fare:        fare,
		}

	case itinerary.ModeRail:
		fares, source := e.tables.RailFare(from, to, km)
		e.logger.Debug().
			Str("from", from).
			Str("to", to).
			Float64("distance_km", km).
			Str("source", string(source)).
			Int("fare", fares.Second).
			Msg("rail fare")
		return float64(fares.Second), Entry{
			Mode:        string(itinerary.ModeRail),
			Operator:    OperatorRailways,
			Line:        RailLineCode(leg.RouteLongName),
			From:        from,
			To:          to,
			DistanceKm:  &dist,
			Fares:       &fares,
			DefaultFare: fares.Second,
		}

	case itinerary.ModeSubway:
		fare := MetroFare(km)
		return float64(fare), Entry{
			Mode:       "METRO",
			Operator:   OperatorMetro,
			Line:       metroLine,
			From:       from,
			To:         to,
			DistanceKm: &dist,
			Fare:       fare,
		}

	case itinerary.ModeTram:
		return tramFare, Entry{
			Mode:     string(itinerary.ModeTram),
			Operator: OperatorBEST,
			From:     from,
			To:       to,
			Fare:     tramFare,
		}

	case itinerary.ModeAuto:
		distanceFare := AutoDistanceFare(km)
		cost := autoBaseFare + distanceFare
		return cost, Entry{
			Mode:         string(itinerary.ModeAuto),
			Operator:     OperatorAuto,
			From:         from,
			To:           to,
			DistanceKm:   &dist,
			BaseFare:     autoBaseFare,
			DistanceFare: int(math.Round(distanceFare)),
			TotalFare:    int(math.Round(cost)),
		}
	}

	e.logger.Debug().Str("mode", string(leg.Mode)).Msg("unpriced mode")
	return 0, Entry{}
}

// BusFare returns the BEST flat fare for a bus leg of km kilometres.
func BusFare(km float64) int {
	switch {
	case km <= 3:
		return busShortFare
	case km <= 10:
		return busMediumFare
	default:
		return busLongFare
	}
}

// MetroFare returns the metro fare for a leg of km kilometres.
func MetroFare(km float64) int {
	switch {
	case km <= 3:
		return 10
	case km <= 6:
		return 20
	case km <= 12:
		return 40
	default:
		return 50
	}
}

// AutoDistanceFare returns the distance component of an auto-rickshaw fare,
// including the surcharge for longer trips.
func AutoDistanceFare(km float64) float64 {
	fare := km * autoPerKm
	if km > autoSurchargeAfterKm {
		fare += autoSurcharge
	}
	return fare
}

// RailLineCode derives the line code from a route's long name.
func RailLineCode(routeLongName string) string {
	name := strings.ToLower(routeLongName)
	switch {
	case strings.Contains(name, "western"):
		return "WR"
	case strings.Contains(name, "central"):
		return "CR"
	case strings.Contains(name, "harbour"):
		return "HR"
	default:
		return "LOCAL"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
