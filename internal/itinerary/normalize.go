package itinerary

import (
	"fmt"
	"strings"
	"unicode"
)

// secondsThreshold is the value above which a duration the planner labelled
// as minutes is assumed to really be seconds.
const secondsThreshold = 1000

// NormalizeDurationMinutes guards against the planner mixing units: a value
// above 1000 is taken to be seconds and converted, anything else is returned
// unchanged as minutes. This is a workaround for upstream data quality and
// should go once the planner reports consistent units.
func NormalizeDurationMinutes(raw float64) float64 {
	if LooksLikeSeconds(raw) {
		return raw / 60
	}
	return raw
}

// LooksLikeSeconds reports whether a duration labelled as minutes is large
// enough that it must really be seconds.
func LooksLikeSeconds(raw float64) bool {
	return raw > secondsThreshold
}

// LegDurationSeconds returns the leg duration, backfilled from the start and
// end timestamps when the planner reported zero.
func LegDurationSeconds(leg Leg) float64 {
	if leg.DurationSeconds == 0 && leg.StartTime != 0 && leg.EndTime != 0 {
		return float64(leg.EndTime-leg.StartTime) / 1000
	}
	return leg.DurationSeconds
}

// MinimumTransitMinutes estimates a lower bound for a transit leg from its
// distance, using typical Mumbai average speeds. It returns 0 when no bound
// applies (walking, auto, or legs of 500 m and less).
func MinimumTransitMinutes(mode Mode, distanceMeters float64) int {
	km := distanceMeters / 1000
	if km <= 0.5 {
		return 0
	}
	switch mode {
	case ModeBus:
		return max(2, int(km*4))
	case ModeSubway:
		return max(1, int(km*2))
	case ModeRail:
		return max(2, int(km*1.5))
	}
	return 0
}

// DisplayMinutes returns the leg duration in whole minutes for display,
// raising implausibly short transit legs to the distance-based minimum.
func DisplayMinutes(leg Leg) int {
	seconds := LegDurationSeconds(leg)
	minutes := 0
	if seconds > 0 {
		minutes = int(seconds / 60)
	}
	if minutes < 1 {
		if floor := MinimumTransitMinutes(leg.Mode, leg.DistanceMeters); floor > minutes {
			minutes = floor
		}
	}
	return minutes
}

// DisplayName returns a readable name for the place.
func (p Place) DisplayName() string {
	name := p.Name
	if name == "" {
		name = p.StopName
	}
	if name == "" {
		name = p.StationName
	}
	if name == "" {
		name = p.VertexType
	}

	if name == "" {
		if p.Lat == nil && p.Lon == nil {
			return "Unknown"
		}
		var lat, lon float64
		if p.Lat != nil {
			lat = *p.Lat
		}
		if p.Lon != nil {
			lon = *p.Lon
		}
		return fmt.Sprintf("Location (%.4f, %.4f)", lat, lon)
	}

	// Strip vertex suffixes such as "Dadar::1234,5678".
	if i := strings.Index(name, "::"); i >= 0 {
		name = name[:i]
	}

	// Strip trailing coordinate parentheticals.
	if strings.HasSuffix(name, ")") {
		if open := strings.LastIndex(name, "("); open >= 0 && isCoordinateText(name[open+1:len(name)-1]) {
			name = strings.TrimSpace(name[:open])
		}
	}

	name = strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func isCoordinateText(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !strings.ContainsRune(".,- ", r) {
			return false
		}
	}
	return true
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) == 0 {
		return w
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
