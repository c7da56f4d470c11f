package versionrouter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	failure "github.com/hatsunemiku3939/versionrouter/policy/failure"
)

const (
	outcomeAccumulated  = "accumulated"
	outcomeAcknowledged = "acknowledged"
)

// Metrics counts processed messages by outcome and times the pipeline.
type Metrics struct {
	messages *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versionrouter",
			Name:      "messages_total",
			Help:      "Messages processed, by outcome (accumulated, acknowledged or failure kind).",
		}, []string{"outcome", "ack"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "versionrouter",
			Name:      "process_duration_seconds",
			Help:      "Time spent processing a single message.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.messages, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware returns a middleware recording every result that reaches it.
func (m *Metrics) Middleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, state *RouteState) (Result, error) {
			start := time.Now()
			res, err := next(ctx, state)
			m.duration.Observe(time.Since(start).Seconds())

			outcome := outcomeAcknowledged
			switch {
			case err != nil:
				outcome = failure.FailMiddleware.String()
			case res.Error != nil:
				outcome = res.Kind.String()
			case res.Item != nil:
				outcome = outcomeAccumulated
			}
			ack := "false"
			if res.Ack {
				ack = "true"
			}
			m.messages.WithLabelValues(outcome, ack).Inc()
			return res, err
		}
	}
}

// Messages exposes the counter, mainly for tests.
func (m *Metrics) Messages() *prometheus.CounterVec {
	return m.messages
}
