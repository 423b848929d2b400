package ranking

import (
	"math"

	"github.com/yatri/yatri/internal/eco"
	"github.com/yatri/yatri/internal/fare"
	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/profile"
)

// Engine computes per-itinerary metrics. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	fares *fare.Estimator
	eco   *eco.Scorer
}

// NewEngine creates a metrics engine.
func NewEngine(fares *fare.Estimator, ecoScorer *eco.Scorer) *Engine {
	if fares == nil {
		fares = fare.NewEstimator(fare.EstimatorConfig{})
	}
	if ecoScorer == nil {
		ecoScorer = eco.NewScorer(nil)
	}
	return &Engine{fares: fares, eco: ecoScorer}
}

// Compute returns the metrics of it under the given weights.
func (e *Engine) Compute(it itinerary.Itinerary, w profile.Weights) Metrics {
	quote := e.fares.Estimate(it)
	m := Metrics{
		DurationMinutes: it.DurationMinutes(),
		Transfers:       it.Transfers(),
		Cost:            quote.Total,
		FareBreakdown:   quote.Breakdown,
		EcoScore:        e.eco.Score(it),
	}
	m.Score = Composite(m, w)
	return m
}

// Composite combines the sub-scores linearly. Weights are used exactly as
// given and are not renormalized.
func Composite(m Metrics, w profile.Weights) float64 {
	transferSub := math.Max(0, 10-3*float64(m.Transfers))
	timeSub := math.Max(0, 10-m.DurationMinutes/10)
	costSub := math.Max(0, 10-float64(m.Cost)/10)

	return transferSub*w.Transfer +
		timeSub*w.Time +
		costSub*w.Cost +
		m.EcoScore*w.Eco
}
