// Package profile provides rider profiles: the weight vectors used to rank
// itineraries and the constraints applied to fallback routes.
package profile

import (
	"errors"
	"time"
)

// ErrProfileNotFound is returned when a profile key is unknown.
var ErrProfileNotFound = errors.New("profile not found")

// Built-in profile keys.
const (
	KeyBudget        = "budget"
	KeyComfort       = "comfort"
	KeyEco           = "eco"
	KeyAccessibility = "accessibility"

	// DefaultKey is used when a request names no profile or an unknown one.
	DefaultKey = KeyComfort
)

// Weights are the composite-score weights. They are used as given and are
// not renormalized.
type Weights struct {
	Transfer float64 `json:"transfer_preference"`
	Time     float64 `json:"time_preference"`
	Cost     float64 `json:"cost_preference"`
	Eco      float64 `json:"eco_preference"`
}

// Profile is an immutable rider profile. Derive variants with WithPreference.
type Profile struct {
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	MaxTransfers  int       `json:"max_transfers"`
	TimeTolerance float64   `json:"time_tolerance"`
	Icon          string    `json:"icon"`
	Color         string    `json:"color"`
	UpdatedAt     time.Time `json:"-"`
	Weights
}

// Preference is the route ordering a rider asked for.
type Preference string

const (
	PreferFastest  Preference = "fastest"
	PreferCheapest Preference = "cheapest"
	PreferFewest   Preference = "fewest"
	PreferEco      Preference = "eco"
)

// ParsePreference maps a request value onto a Preference. Anything
// unrecognized becomes PreferEco.
func ParsePreference(s string) Preference {
	switch p := Preference(s); p {
	case PreferFastest, PreferCheapest, PreferFewest:
		return p
	}
	return PreferEco
}

// WithPreference returns a copy of p with the weights for pref applied.
// Weights the preference does not mention keep their values.
func (p Profile) WithPreference(pref Preference) Profile {
	w := p.Weights
	switch pref {
	case PreferFastest:
		w.Time, w.Transfer, w.Cost = 0.7, 0.2, 0.1
	case PreferCheapest:
		w.Cost, w.Time, w.Transfer = 0.7, 0.2, 0.1
	case PreferFewest:
		w.Transfer, w.Time, w.Cost = 0.7, 0.2, 0.1
	default:
		w.Eco, w.Transfer, w.Time = 0.5, 0.3, 0.2
	}
	p.Weights = w
	return p
}

// Builtin returns the built-in profiles keyed by profile key.
func Builtin() map[string]Profile {
	return map[string]Profile{
		KeyBudget: {
			Key:           KeyBudget,
			Name:          "Budget Traveler",
			Description:   "Minimize cost, okay with more transfers",
			MaxTransfers:  3,
			TimeTolerance: 0.4,
			Icon:          "💰",
			Color:         "#10B981",
			Weights:       Weights{Transfer: 0.2, Time: 0.2, Cost: 0.5, Eco: 0.1},
		},
		KeyComfort: {
			Key:           KeyComfort,
			Name:          "Comfort Seeker",
			Description:   "Fewer transfers, reasonable time",
			MaxTransfers:  2,
			TimeTolerance: 0.2,
			Icon:          "🛋️",
			Color:         "#3B82F6",
			Weights:       Weights{Transfer: 0.5, Time: 0.3, Cost: 0.1, Eco: 0.1},
		},
		KeyEco: {
			Key:           KeyEco,
			Name:          "Eco Warrior",
			Description:   "Maximize walking, minimize carbon footprint",
			MaxTransfers:  2,
			TimeTolerance: 0.5,
			Icon:          "🌱",
			Color:         "#059669",
			Weights:       Weights{Transfer: 0.2, Time: 0.1, Cost: 0.2, Eco: 0.5},
		},
		KeyAccessibility: {
			Key:           KeyAccessibility,
			Name:          "Accessible Routes",
			Description:   "Wheelchair friendly, minimal transfers",
			MaxTransfers:  1,
			TimeTolerance: 0.6,
			Icon:          "♿",
			Color:         "#7C3AED",
			Weights:       Weights{Transfer: 0.6, Time: 0.2, Cost: 0.1, Eco: 0.1},
		},
	}
}
