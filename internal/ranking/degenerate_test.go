package ranking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/ranking"
)

type legSpec struct {
	mode    itinerary.Mode
	seconds float64
}

func itineraryOf(specs ...legSpec) itinerary.Itinerary {
	it := itinerary.Itinerary{}
	for _, s := range specs {
		it.Legs = append(it.Legs, itinerary.Leg{Mode: s.mode, DurationSeconds: s.seconds})
		it.DurationSeconds += s.seconds
	}
	return it
}

func TestIsDegenerate(t *testing.T) {
	walk := itinerary.ModeWalk
	auto := itinerary.ModeAuto

	tests := []struct {
		name       string
		it         itinerary.Itinerary
		want       bool
		wantReason string
	}{
		{"single long auto leg", itineraryOf(legSpec{auto, 25 * 60}), true, ranking.ReasonAutoDominated},
		{"auto with rail", itineraryOf(legSpec{auto, 10 * 60}, legSpec{itinerary.ModeRail, 20 * 60}), false, ""},
		{"auto with tram", itineraryOf(legSpec{auto, 25 * 60}, legSpec{itinerary.ModeTram, 5 * 60}), false, ""},
		{"short auto leg in minutes", itineraryOf(legSpec{auto, 15}), false, ""},
		{"auto plus walk", itineraryOf(legSpec{walk, 5 * 60}, legSpec{auto, 25 * 60}), true, ranking.ReasonAutoDominated},
		{"two auto legs", itineraryOf(legSpec{auto, 22 * 60}, legSpec{auto, 15 * 60}), true, ranking.ReasonAutoDominated},
		{"auto minor next to unknown mode", itineraryOf(legSpec{itinerary.Mode("FERRY"), 50 * 60}, legSpec{auto, 25 * 60}), false, ""},
		{"long walk", itineraryOf(legSpec{walk, 70 * 60}), true, ranking.ReasonWalkOnly},
		{"moderate walk", itineraryOf(legSpec{walk, 50 * 60}), false, ""},
		{"walk reported in minutes", itineraryOf(legSpec{walk, 61}), true, ranking.ReasonWalkOnly},
		{"walk with bus", itineraryOf(legSpec{walk, 70 * 60}, legSpec{itinerary.ModeBus, 10 * 60}), false, ""},
		{"no legs", itinerary.Itinerary{}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := ranking.IsDegenerate(tt.it)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
