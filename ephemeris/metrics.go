package ephemeris

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values of sgp4_propagations_total.
const (
	resultOK      = "ok"
	resultDecayed = "decayed"
	resultError   = "error"
)

// Metrics holds the batch collectors. A nil *Metrics records nothing.
type Metrics struct {
	propagations  *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		propagations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sgp4_propagations_total",
				Help: "Total number of propagated samples by result.",
			},
			[]string{"result"},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sgp4_batch_duration_seconds",
				Help:    "Wall time of one batch run in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.propagations, m.batchDuration)
	return m
}

func (m *Metrics) observeSample(result string) {
	if m == nil {
		return
	}
	m.propagations.WithLabelValues(result).Inc()
}

func (m *Metrics) observeBatch(seconds float64) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(seconds)
}
