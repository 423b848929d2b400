// Package eco scores itineraries by how environmentally friendly their modes
// are.
package eco

import (
	"math"

	"github.com/yatri/yatri/internal/itinerary"
)

// Score bounds.
const (
	MinScore     = 1.0
	MaxScore     = 10.0
	NeutralScore = 5.0

	// scale maps points per kilometre onto the score range.
	scale = 1.25

	unknownWeight = 5.0
)

// DefaultWeights returns the eco points earned per kilometre for each mode.
func DefaultWeights() map[itinerary.Mode]float64 {
	return map[itinerary.Mode]float64{
		itinerary.ModeWalk:   10,
		itinerary.ModeRail:   8,
		itinerary.ModeSubway: 8,
		itinerary.ModeTram:   9,
		itinerary.ModeBus:    5,
		itinerary.ModeAuto:   2,
	}
}

// Scorer computes eco scores.
type Scorer struct {
	weights map[itinerary.Mode]float64
}

// NewScorer creates a scorer. A nil weights map uses DefaultWeights.
func NewScorer(weights map[itinerary.Mode]float64) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	cp := make(map[itinerary.Mode]float64, len(weights))
	for m, w := range weights {
		cp[m] = w
	}
	return &Scorer{weights: cp}
}

// Score returns a value in [1, 10] rounded to one decimal. Itineraries with
// no distance score NeutralScore.
func (s *Scorer) Score(it itinerary.Itinerary) float64 {
	totalKm := 0.0
	points := 0.0
	for _, leg := range it.Legs {
		km := leg.DistanceKm()
		totalKm += km
		points += km * s.weight(leg.Mode)
	}

	if totalKm <= 0 {
		return NeutralScore
	}

	score := math.Min(MaxScore, math.Max(MinScore, points/totalKm*scale))
	return math.Round(score*10) / 10
}

func (s *Scorer) weight(m itinerary.Mode) float64 {
	if w, ok := s.weights[m]; ok {
		return w
	}
	return unknownWeight
}
