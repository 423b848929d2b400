package plan

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricRequestsTotal     = "yatri_plan_requests_total"
	MetricSupplementedTotal = "yatri_plan_supplemented_routes_total"
	MetricRoutesReturned    = "yatri_plan_routes_returned"
)

// Request outcomes besides the route sources.
const (
	outcomeEmpty        = "empty"
	outcomeUnresolvable = "unresolvable"
	outcomeError        = "error"
)

// Metrics contains Prometheus collectors for journey planning.
type Metrics struct {
	requests     *prometheus.CounterVec
	supplemented prometheus.Counter
	routes       prometheus.Histogram
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "Total number of plan requests by outcome",
			},
			[]string{"outcome"},
		),
		supplemented: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSupplementedTotal,
			Help: "Total number of catalog routes added to short planner results",
		}),
		routes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRoutesReturned,
			Help:    "Histogram of routes returned per plan request",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requests, m.supplemented, m.routes} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) incRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) addSupplemented(n int) {
	if m == nil || n == 0 {
		return
	}
	m.supplemented.Add(float64(n))
}

func (m *Metrics) observeRoutes(n int) {
	if m == nil {
		return
	}
	m.routes.Observe(float64(n))
}
