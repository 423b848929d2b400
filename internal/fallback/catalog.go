// Package fallback provides the fixed multimodal route catalog returned when
// the trip planner is unavailable or returns too little usable data.
package fallback

import (
	"github.com/yatri/yatri/internal/fare"
	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/ranking"
)

// Catalog place names.
const (
	placeNearestStation = "Nearest Railway Station"
	placeDestStation    = "Destination Station"
	placePickup         = "Pickup Point"
	placeMajorStation   = "Major Railway Station"
	placeBusStop        = "Bus Stop A"
	placeMetroStation   = "Metro Station"
	placeDestMetro      = "Destination Metro"
	placeAutoStand      = "Auto Stand"
	placeBusTerminal    = "Bus Terminal"
	placeNearDest       = "Near Destination"
)

// catalogEntry is a pre-priced route template. Leg names left empty are
// filled with the request origin or destination.
type catalogEntry struct {
	minutes   int
	transfers int
	score     float64
	cost      int
	eco       float64
	label     string
	category  itinerary.Category
	breakdown func() []fare.Entry
	legs      []catalogLeg
}

type catalogLeg struct {
	mode     itinerary.Mode
	route    string
	number   string
	minutes  int
	meters   int
	from, to string
}

func ptr[T any](v T) *T {
	return &v
}

func catalog() []catalogEntry {
	return []catalogEntry{
		{
			minutes: 45, transfers: 1, score: 8.5, cost: 10, eco: 8.8,
			label:    ranking.LabelCheapest,
			category: itinerary.CategoryCheapest,
			breakdown: func() []fare.Entry {
				return []fare.Entry{{
					Mode:        string(itinerary.ModeRail),
					Operator:    fare.OperatorRailways,
					Line:        "WR",
					From:        placeNearestStation,
					To:          placeDestStation,
					DistanceKm:  ptr(6.2),
					Fares:       &fare.ClassFares{Second: 10, First: 35, AC: 45},
					DefaultFare: 10,
				}}
			},
			legs: []catalogLeg{
				{mode: itinerary.ModeWalk, minutes: 12, meters: 800, to: placeNearestStation},
				{mode: itinerary.ModeRail, route: "WR - Western Line", number: "WR", minutes: 28, meters: 6200, from: placeNearestStation, to: placeDestStation},
				{mode: itinerary.ModeWalk, minutes: 5, meters: 300, from: placeDestStation},
			},
		},
		{
			minutes: 35, transfers: 1, score: 8.2, cost: 56, eco: 7.5,
			label:    ranking.LabelFastest,
			category: itinerary.CategoryFastest,
			breakdown: func() []fare.Entry {
				return []fare.Entry{
					{
						Mode:         string(itinerary.ModeAuto),
						Operator:     fare.OperatorAuto,
						From:         placePickup,
						To:           placeMajorStation,
						DistanceKm:   ptr(1.2),
						BaseFare:     28,
						DistanceFare: 22,
						TotalFare:    50,
					},
					{
						Mode:        string(itinerary.ModeRail),
						Operator:    fare.OperatorRailways,
						Line:        "HR",
						From:        placeMajorStation,
						To:          placeDestStation,
						DistanceKm:  ptr(5.8),
						Fares:       &fare.ClassFares{Second: 10, First: 50, AC: 60},
						DefaultFare: 10,
					},
				}
			},
			legs: []catalogLeg{
				{mode: itinerary.ModeWalk, minutes: 3, meters: 150, to: placePickup},
				{mode: itinerary.ModeAuto, route: "Auto Rickshaw", number: "AUTO", minutes: 8, meters: 1200, from: placePickup, to: placeMajorStation},
				{mode: itinerary.ModeRail, route: "HR - Harbour Line", number: "HR", minutes: 20, meters: 5800, from: placeMajorStation, to: placeDestStation},
				{mode: itinerary.ModeWalk, minutes: 4, meters: 250, from: placeDestStation},
			},
		},
		{
			minutes: 48, transfers: 2, score: 7.8, cost: 55, eco: 8.2,
			label:    ranking.LabelMixed,
			category: itinerary.CategoryMixed,
			legs: []catalogLeg{
				{mode: itinerary.ModeWalk, minutes: 8, meters: 400, to: placeBusStop},
				{mode: itinerary.ModeBus, route: "BEST 201", number: "201", minutes: 22, meters: 3200, from: placeBusStop, to: placeMetroStation},
				{mode: itinerary.ModeSubway, route: "ML-1 - Blue Line", number: "ML-1", minutes: 15, meters: 4200, from: placeMetroStation, to: placeDestMetro},
				{mode: itinerary.ModeWalk, minutes: 3, meters: 200, from: placeDestMetro},
			},
		},
		{
			minutes: 42, transfers: 1, score: 7.5, cost: 71, eco: 6.8,
			label:    ranking.LabelAlternative,
			category: itinerary.CategoryMixed,
			legs: []catalogLeg{
				{mode: itinerary.ModeWalk, minutes: 4, meters: 200, to: placeAutoStand},
				{mode: itinerary.ModeAuto, route: "Auto Rickshaw", number: "AUTO", minutes: 12, meters: 1800, from: placeAutoStand, to: placeBusTerminal},
				{mode: itinerary.ModeBus, route: "BEST 340", number: "340", minutes: 23, meters: 4500, from: placeBusTerminal, to: placeNearDest},
				{mode: itinerary.ModeWalk, minutes: 3, meters: 180, from: placeNearDest},
			},
		},
	}
}

func (e catalogEntry) route(id int, origin, destination string) ranking.Route {
	legs := make([]ranking.RouteLeg, 0, len(e.legs))
	for _, l := range e.legs {
		from, to := l.from, l.to
		if from == "" {
			from = origin
		}
		if to == "" {
			to = destination
		}
		legs = append(legs, ranking.RouteLeg{
			Mode:        string(l.mode),
			Route:       l.route,
			RouteNumber: l.number,
			Duration:    l.minutes,
			Distance:    l.meters,
			FromName:    from,
			ToName:      to,
		})
	}

	breakdown := []fare.Entry{}
	if e.breakdown != nil {
		breakdown = e.breakdown()
	}

	return ranking.Route{
		RouteID:         id,
		Duration:        e.minutes,
		Transfers:       e.transfers,
		Score:           e.score,
		Cost:            e.cost,
		FareBreakdown:   breakdown,
		EcoScore:        e.eco,
		RouteType:       e.label,
		Category:        e.category,
		Legs:            legs,
		Synthetic:       true,
		DurationMinutes: float64(e.minutes),
	}
}
