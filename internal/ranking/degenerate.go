package ranking

import "github.com/yatri/yatri/internal/itinerary"

// Degenerate reasons.
const (
	ReasonWalkOnly      = "walk_only"
	ReasonAutoDominated = "auto_dominated"
)

const (
	maxWalkOnlyMinutes   = 60.0
	maxAutoOnlyMinutes   = 20.0
	autoDominanceRatio   = 0.6
	minNonWalkDivisorMin = 1.0
)

// IsDegenerate reports whether it reduces to a plain walk or auto trip and
// names the rule that matched.
func IsDegenerate(it itinerary.Itinerary) (bool, string) {
	var walkLegs, transitLegs, autoLegs int
	var walkSec, autoSec, nonWalkSec float64

	for _, leg := range it.Legs {
		switch {
		case leg.Mode == itinerary.ModeWalk:
			walkLegs++
			walkSec += leg.DurationSeconds
		case leg.Mode == itinerary.ModeAuto:
			autoLegs++
			autoSec += leg.DurationSeconds
		case leg.Mode.IsTransit():
			transitLegs++
		}
		if leg.Mode != itinerary.ModeWalk {
			nonWalkSec += leg.DurationSeconds
		}
	}

	if walkLegs > 0 && transitLegs == 0 && autoLegs == 0 {
		if itinerary.NormalizeDurationMinutes(walkSec) > maxWalkOnlyMinutes {
			return true, ReasonWalkOnly
		}
	}

	if autoLegs > 0 && transitLegs == 0 {
		autoMin, nonWalkMin := autoSec, nonWalkSec
		// Both sides are scaled together, keyed on the auto total.
		if itinerary.LooksLikeSeconds(autoSec) {
			autoMin = autoSec / 60
			nonWalkMin = nonWalkSec / 60
		}
		if autoMin > maxAutoOnlyMinutes && autoMin/max(nonWalkMin, minNonWalkDivisorMin) > autoDominanceRatio {
			return true, ReasonAutoDominated
		}
	}

	return false, ""
}
