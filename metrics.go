package conics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the prediction statistics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	solveDuration prometheus.Histogram
	transitions   *prometheus.CounterVec
	unconverged   *prometheus.CounterVec
	chainLength   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with the provided registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		solveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "conics",
				Name:      "solve_duration_seconds",
				Help:      "Time spent predicting the next SOI transition of one arc",
				Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
			},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "conics",
				Name:      "transitions_total",
				Help:      "Total number of SOI transitions actually performed",
			},
			[]string{"body", "parent"},
		),
		unconverged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "conics",
				Name:      "searches_not_converged_total",
				Help:      "Iterative searches which reached their iteration cap",
			},
			[]string{"search"},
		),
		chainLength: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "conics",
				Name:      "chain_length",
				Help:      "Number of conic segments in the body's current chain",
			},
			[]string{"body"},
		),
	}
	for _, c := range []prometheus.Collector{m.solveDuration, m.transitions, m.unconverged, m.chainLength} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeSolve(d time.Duration) {
	if m == nil {
		return
	}
	m.solveDuration.Observe(d.Seconds())
}

func (m *Metrics) transition(body, parent string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(body, parent).Inc()
}

func (m *Metrics) nonConverged(search string) {
	if m == nil {
		return
	}
	m.unconverged.WithLabelValues(search).Inc()
}

func (m *Metrics) chain(body string, length int) {
	if m == nil {
		return
	}
	m.chainLength.WithLabelValues(body).Set(float64(length))
}
