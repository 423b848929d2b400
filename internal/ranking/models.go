// Package ranking turns raw planner itineraries into a small, diverse,
// profile-aware shortlist: degenerate filtering, metrics, signature-based
// deduplication, categorization and the final duration-gap selection.
package ranking

import (
	"errors"
	"time"

	"github.com/yatri/yatri/internal/fare"
	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/profile"
)

// ErrMissingMetrics is returned when an itinerary reaches selection without
// computed metrics.
var ErrMissingMetrics = errors.New("itinerary has no computed metrics")

// DefaultWeights score itineraries when no rider profile was supplied.
var DefaultWeights = profile.Weights{Transfer: 0.4, Time: 0.3, Cost: 0.2, Eco: 0.1}

// Metrics are the derived, per-request metrics of one itinerary.
type Metrics struct {
	DurationMinutes float64
	Transfers       int
	Cost            int
	FareBreakdown   []fare.Entry
	EcoScore        float64
	Score           float64
}

// Candidate is an itinerary travelling through the pipeline with its
// metrics and the category it was selected into.
type Candidate struct {
	Itinerary itinerary.Itinerary
	Metrics   *Metrics
	Category  itinerary.Category
}

// Route labels.
const (
	LabelFastest     = "Fastest"
	LabelCheapest    = "Cheapest"
	LabelDirect      = "Direct"
	LabelBest        = "Best"
	LabelGood        = "Good"
	LabelMixed       = "Mixed"
	LabelAlternative = "Alternative"
)

// Route is a formatted, user-facing itinerary.
type Route struct {
	RouteID       int                `json:"route_id"`
	Duration      int                `json:"duration"`
	Transfers     int                `json:"transfers"`
	Score         float64            `json:"score"`
	Cost          int                `json:"cost"`
	FareBreakdown []fare.Entry       `json:"fare_breakdown"`
	EcoScore      float64            `json:"eco_score"`
	RouteType     string             `json:"route_type"`
	Category      itinerary.Category `json:"category,omitempty"`
	Legs          []RouteLeg         `json:"legs"`
	StartTime     int64              `json:"start_time"`
	EndTime       int64              `json:"end_time"`
	WalkTime      float64            `json:"walkTime"`
	TransitTime   float64            `json:"transitTime"`
	WaitingTime   float64            `json:"waitingTime"`

	// Synthetic marks catalog routes that did not come from the planner.
	Synthetic bool `json:"synthetic,omitempty"`

	// DurationMinutes is the unrounded duration used for gap comparisons.
	DurationMinutes float64 `json:"-"`
}

// Modes returns the distinct leg modes of the route in display form.
func (r Route) Modes() []string {
	seen := make(map[string]bool, len(r.Legs))
	var modes []string
	for _, l := range r.Legs {
		if !seen[l.Mode] {
			seen[l.Mode] = true
			modes = append(modes, l.Mode)
		}
	}
	return modes
}

// RouteLeg is a leg formatted for display.
type RouteLeg struct {
	Mode          string  `json:"mode"`
	Route         string  `json:"route"`
	RouteNumber   string  `json:"route_number"`
	Duration      int     `json:"duration"`
	Distance      int     `json:"distance"`
	FromName      string  `json:"from_name"`
	ToName        string  `json:"to_name"`
	StartTime     int64   `json:"start_time"`
	EndTime       int64   `json:"end_time"`
	DepartureTime *string `json:"departureTime"`
	ArrivalTime   *string `json:"arrivalTime"`

	RouteLongName  string `json:"routeLongName,omitempty"`
	RouteShortName string `json:"routeShortName,omitempty"`
	RouteID        string `json:"routeId,omitempty"`
	Headsign       string `json:"headsign,omitempty"`
	TripHeadsign   string `json:"trip_headsign,omitempty"`
	TripID         string `json:"trip_id,omitempty"`
	TripShortName  string `json:"trip_short_name,omitempty"`
	BlockID        string `json:"block_id,omitempty"`
	Agency         string `json:"agency,omitempty"`

	Geometry []itinerary.Coordinate `json:"geometry,omitempty"`
}

// Config holds the selection thresholds.
type Config struct {
	// DedupCap bounds the intermediate deduplicated set.
	DedupCap int

	// BucketCap bounds each category bucket.
	BucketCap int

	// BucketScan is how many entries of each sorted list are considered.
	BucketScan int

	// MixedCap bounds the balanced bucket.
	MixedCap int

	// FinalCap bounds the user-facing list; values above 5 are clamped.
	FinalCap int

	// PerCategory is how many of each sort order are offered to the
	// shortlist.
	PerCategory int

	// DiversityGap is the minimum duration difference, in minutes, for a
	// cheapest or fewest-transfers route to be shown next to others.
	DiversityGap float64

	// FillGap is the duration difference required of "Good" fill routes.
	FillGap float64

	// MinRoutes is the size below which the shortlist is topped up.
	MinRoutes int

	// Location is the zone leg clock times are displayed in.
	Location *time.Location
}

// DefaultConfig returns the default selection thresholds.
func DefaultConfig() Config {
	return Config{
		DedupCap:     10,
		BucketCap:    3,
		BucketScan:   5,
		MixedCap:     2,
		FinalCap:     5,
		PerCategory:  2,
		DiversityGap: 2,
		FillGap:      3,
		MinRoutes:    3,
		Location:     time.FixedZone("IST", 5*60*60+30*60),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DedupCap <= 0 {
		c.DedupCap = d.DedupCap
	}
	if c.BucketCap <= 0 {
		c.BucketCap = d.BucketCap
	}
	if c.BucketScan <= 0 {
		c.BucketScan = d.BucketScan
	}
	if c.MixedCap <= 0 {
		c.MixedCap = d.MixedCap
	}
	if c.FinalCap <= 0 || c.FinalCap > d.FinalCap {
		c.FinalCap = d.FinalCap
	}
	if c.PerCategory <= 0 {
		c.PerCategory = d.PerCategory
	}
	if c.DiversityGap <= 0 {
		c.DiversityGap = d.DiversityGap
	}
	if c.FillGap <= 0 {
		c.FillGap = d.FillGap
	}
	if c.MinRoutes <= 0 {
		c.MinRoutes = d.MinRoutes
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	return c
}
