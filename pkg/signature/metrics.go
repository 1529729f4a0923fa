package signature

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects resolver statistics. A nil *Metrics records nothing.
type Metrics struct {
	comparisons prometheus.Counter
	resolved    prometheus.Counter
	unresolved  prometheus.Gauge
	duration    prometheus.Histogram
}

// NewMetrics registers the resolver metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		comparisons: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gopatcher",
			Subsystem: "resolver",
			Name:      "method_comparisons_total",
			Help:      "Signature to method comparisons performed",
		}),
		resolved: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gopatcher",
			Subsystem: "resolver",
			Name:      "signatures_resolved_total",
			Help:      "Signatures resolved to a method",
		}),
		unresolved: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "gopatcher",
			Subsystem: "resolver",
			Name:      "signatures_unresolved",
			Help:      "Signatures left unresolved by the last resolution",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gopatcher",
			Subsystem: "resolver",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of a full corpus resolution",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

func (m *Metrics) observeComparison() {
	if m != nil {
		m.comparisons.Inc()
	}
}

func (m *Metrics) observeResolved() {
	if m != nil {
		m.resolved.Inc()
	}
}

func (m *Metrics) observeFinished(unresolved int, elapsed time.Duration) {
	if m != nil {
		m.unresolved.Set(float64(unresolved))
		m.duration.Observe(elapsed.Seconds())
	}
}
