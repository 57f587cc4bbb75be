package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
)

// Metrics holds the Prometheus collectors updated by Manager.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the remote transport collectors on reg.
// Passing nil uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_remote_attempts_total",
				Help: "Total number of transport session attempts by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		retries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_remote_retries_total",
				Help: "Total number of retries scheduled after transient transport failures",
			},
			[]string{"op"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docvault_remote_operation_duration_seconds",
				Help:    "Duration of logical transport operations including retries",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) observeAttempt(op string, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.attempts.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) observeRetry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

func (m *Metrics) observeDuration(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
