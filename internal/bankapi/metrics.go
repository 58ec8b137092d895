package bankapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mbank/internal/problem"
)

// Metrics counts API calls by operation and outcome kind.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mbank_api_requests_total",
			Help: "Bank API calls by operation and result kind",
		}, []string{"operation", "kind"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mbank_api_request_duration_seconds",
			Help:    "Bank API call latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"operation"}),
	}
}

func (m *Metrics) observe(op string, kind problem.Kind, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, kind.String()).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}
