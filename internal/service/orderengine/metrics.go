package orderengine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

type Metrics struct {
	OrderSubmissions       *prometheus.CounterVec
	OrderSubmissionLatency *prometheus.HistogramVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		OrderSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_submissions_total",
				Help: "Total order submission attempts by family and outcome.",
			},
			[]string{"family", "outcome"},
		),
		OrderSubmissionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "order_submission_latency_seconds",
				Help:    "Order submission latency in seconds, validation included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"family", "outcome"},
		),
	}

	registry.MustRegister(m.OrderSubmissions, m.OrderSubmissionLatency)
	return m
}

func (m *Metrics) observe(family entity.OrderFamily, outcome string, started time.Time) {
	if m == nil {
		return
	}

	m.OrderSubmissions.WithLabelValues(string(family), outcome).Inc()
	m.OrderSubmissionLatency.WithLabelValues(string(family), outcome).Observe(time.Since(started).Seconds())
}
