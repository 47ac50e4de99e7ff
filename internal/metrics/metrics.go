// Package metrics exports ledger operation and activity counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/models"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeDenied      = "denied"
	OutcomeOutstanding = "outstanding_balance"
	OutcomeNotFound    = "not_found"
	OutcomeConflict    = "conflict"
	OutcomeError       = "error"
)

// Metrics implements ledger.Observer and provides a post-commit hook.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	activities *prometheus.CounterVec
}

var _ ledger.Observer = (*Metrics)(nil)

// New creates the collectors on a private registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "groupledger",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency, including the transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation"}),
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupledger",
			Name:      "activities_total",
			Help:      "Committed activity entries by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.operations,
		m.duration,
		m.activities,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation records one engine operation.
func (m *Metrics) ObserveOperation(operation string, err error, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Hook counts committed activities. Pass it to ledger.WithHook.
func (m *Metrics) Hook(_ context.Context, activity *models.Activity) {
	m.activities.WithLabelValues(string(activity.Kind)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome classifies err into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ledger.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, ledger.ErrNotAMember):
		return OutcomeDenied
	case errors.Is(err, ledger.ErrOutstandingBalance):
		return OutcomeOutstanding
	case errors.Is(err, ledger.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ledger.ErrConflict):
		return OutcomeConflict
	}
	return OutcomeError
}
