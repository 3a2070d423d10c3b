// Package metrics exposes dispatch outcomes as Prometheus collectors,
// attached to the engine through its lifecycle hooks.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carelink/carelink/pkg/engine"
)

// Metrics holds the dispatch collectors.
type Metrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New builds the collectors and registers them with the registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "transitions_total",
			Help:      "Committed transitions by campaign and trigger.",
		}, []string{"campaign", "trigger", "terminal"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "rejections_total",
			Help:      "Dispatches rejected without a state change, by reason.",
		}, []string{"campaign", "reason"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "action_errors_total",
			Help:      "Unexpected action or guard failures.",
		}, []string{"campaign", "action"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carelink",
			Name:      "dispatch_duration_seconds",
			Help:      "Time from dispatch to committed transition.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"campaign"}),
	}
	reg.MustRegister(m.transitions, m.rejections, m.errors, m.duration)
	return m
}

// Hooks adapts the collectors to the engine's hook surface.
func (m *Metrics) Hooks() engine.Hooks {
	return engine.Hooks{
		OnTransition: func(ctx context.Context, e *engine.TransitionEvent) {
			terminal := "false"
			if e.Terminal {
				terminal = "true"
			}
			m.transitions.WithLabelValues(e.Campaign, e.Trigger, terminal).Inc()
			m.duration.WithLabelValues(e.Campaign).Observe(e.Duration.Seconds())
		},
		OnRejected: func(ctx context.Context, e *engine.RejectionEvent) {
			m.rejections.WithLabelValues(e.Campaign, e.Reason).Inc()
		},
		OnActionError: func(ctx context.Context, e *engine.ActionErrorEvent) {
			m.errors.WithLabelValues(e.Campaign, e.Action).Inc()
		},
	}
}
