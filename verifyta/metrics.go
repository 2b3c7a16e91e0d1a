package verifyta

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Invocation kinds used as the "kind" label.
const (
	KindHelp    = "help"
	KindVerify  = "verify"
	KindCompile = "compile"
	KindTrace   = "trace"
)

// Metrics counts and times external tool invocations.
type Metrics struct {
	invocations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyuppaal_verifyta_invocations_total",
			Help: "External verifyta and tracer invocations.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyuppaal_verifyta_failures_total",
			Help: "Invocations that exited with an error.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pyuppaal_verifyta_duration_seconds",
			Help:    "Wall time of external invocations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{m.invocations, m.failures, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(kind).Inc()
	if err != nil {
		m.failures.WithLabelValues(kind).Inc()
	}
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
