// Package metrics provides the Prometheus collectors of the signing service.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace    = "docsign"
	outcomeLabel = "outcome"
	stepLabel    = "step"
	sourceLabel  = "source"
	fromLabel    = "from"
	toLabel      = "to"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNoop    = "noop"
)

// Metrics manages the collectors of the service. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rendersTotal          *prometheus.CounterVec
	renderDurationSeconds prometheus.Histogram
	providerCallsTotal    *prometheus.CounterVec
	webhookEventsTotal    *prometheus.CounterVec
	statusTransitions     *prometheus.CounterVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	return &Metrics{
		registry: reg,
		rendersTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "total",
			Help:      "The total number of render sessions by outcome.",
		}, []string{outcomeLabel}),
		renderDurationSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "The wall time of a render session.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		providerCallsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "The total number of signature provider calls by step and outcome.",
		}, []string{stepLabel, outcomeLabel}),
		webhookEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "The total number of inbound status updates by source and outcome.",
		}, []string{sourceLabel, outcomeLabel}),
		statusTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recipient",
			Name:      "status_transitions_total",
			Help:      "The total number of persisted recipient status transitions.",
		}, []string{fromLabel, toLabel}),
	}, nil
}

// Handler returns the scrape handler of the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRender records one render session.
func (m *Metrics) ObserveRender(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(outcome(err)).Inc()
	m.renderDurationSeconds.Observe(d.Seconds())
}

// AddProviderCall records one call to the signature provider.
func (m *Metrics) AddProviderCall(step string, err error) {
	if m == nil {
		return
	}
	m.providerCallsTotal.WithLabelValues(step, outcome(err)).Inc()
}

// AddStatusUpdate records an inbound status update from source
// (provider, renderer or reconcile).
func (m *Metrics) AddStatusUpdate(source, result string) {
	if m == nil {
		return
	}
	m.webhookEventsTotal.WithLabelValues(source, result).Inc()
}

// AddStatusTransition records a persisted recipient status change.
func (m *Metrics) AddStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
