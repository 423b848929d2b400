package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricItinerariesTotal = "yatri_ranking_itineraries_total"
	MetricDroppedTotal     = "yatri_ranking_dropped_total"
	MetricSelectedTotal    = "yatri_ranking_selected_total"
	MetricRankDuration     = "yatri_ranking_duration_seconds"
)

// Drop reasons used as metric labels.
const (
	DropWalkOnly      = ReasonWalkOnly
	DropAutoDominated = ReasonAutoDominated
	DropDuplicate     = "duplicate"
)

// PipelineMetrics contains Prometheus collectors for the ranking pipeline.
// All operations are thread-safe.
type PipelineMetrics struct {
	itineraries prometheus.Counter
	dropped     *prometheus.CounterVec
	selected    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewPipelineMetrics creates the collectors. They are not registered; call
// Register.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		itineraries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricItinerariesTotal,
			Help: "Total number of raw itineraries received for ranking",
		}),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDroppedTotal,
				Help: "Total number of itineraries dropped by reason",
			},
			[]string{"reason"},
		),
		selected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSelectedTotal,
				Help: "Total number of routes shortlisted by route type",
			},
			[]string{"route_type"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of ranking pipeline duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

// Register registers all collectors with reg.
func (m *PipelineMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *PipelineMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.itineraries, m.dropped, m.selected, m.duration}
}

func (m *PipelineMetrics) addItineraries(n int) {
	if m == nil {
		return
	}
	m.itineraries.Add(float64(n))
}

func (m *PipelineMetrics) incDropped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.WithLabelValues(reason).Add(float64(n))
}

func (m *PipelineMetrics) incSelected(routeType string) {
	if m == nil {
		return
	}
	m.selected.WithLabelValues(routeType).Inc()
}

func (m *PipelineMetrics) observeDuration(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}
