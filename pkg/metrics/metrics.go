// Package metrics exposes Prometheus instrumentation for attribution traffic.
//
// Metrics is fed by attribution.WithOnAttempt for per-attempt counters and by
// the tracker for the outcome of each background task. Register it on the
// host's registry:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	client := attribution.NewClient(cfg, attribution.WithOnAttempt(m.ObserveAttempt))
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linkowl/linkowl-go/pkg/attribution"
)

const namespace = "linkowl"

// Result label values.
const (
	ResultSuccess        = "success"
	ResultStatusError    = "status_error"
	ResultTimeout        = "timeout"
	ResultTransportError = "transport_error"
	ResultCanceled       = "canceled"
	ResultDecodeError    = "decode_error"
	ResultNotConfigured  = "not_configured"
	ResultError          = "error"
)

// Metrics holds the SDK collectors.
type Metrics struct {
	// AttemptsTotal counts HTTP attempts.
	// Labels: operation (install, user_id, purchase), result.
	AttemptsTotal *prometheus.CounterVec

	// AttemptDurationSeconds measures HTTP attempt latency.
	// Labels: operation.
	AttemptDurationSeconds *prometheus.HistogramVec

	// TasksTotal counts finished background operations after retries.
	// Labels: operation, result.
	TasksTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
// It panics if they are already registered there, like promauto does.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_attempts_total",
			Help:      "HTTP attempts sent to the attribution service by operation and result",
		}, []string{"operation", "result"}),

		AttemptDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_attempt_duration_seconds",
			Help:      "Latency of HTTP attempts sent to the attribution service",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Background attribution operations by final result",
		}, []string{"operation", "result"}),
	}
}

// ObserveAttempt records one HTTP attempt. It matches attribution.AttemptHook.
func (m *Metrics) ObserveAttempt(a attribution.Attempt) {
	m.AttemptsTotal.WithLabelValues(a.Operation, Result(a.Err)).Inc()
	m.AttemptDurationSeconds.WithLabelValues(a.Operation).Observe(a.Duration.Seconds())
}

// ObserveTask records the final outcome of a background operation.
func (m *Metrics) ObserveTask(operation string, err error) {
	m.TasksTotal.WithLabelValues(operation, Result(err)).Inc()
}

// Result maps an attribution error to a label value.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, attribution.ErrNotConfigured):
		return ResultNotConfigured
	case errors.Is(err, attribution.ErrDecode):
		return ResultDecodeError
	case errors.Is(err, attribution.ErrStatus):
		return ResultStatusError
	case errors.Is(err, attribution.ErrTimeout):
		return ResultTimeout
	case errors.Is(err, attribution.ErrTransport):
		return ResultTransportError
	case errors.Is(err, attribution.ErrCanceled):
		return ResultCanceled
	default:
		return ResultError
	}
}
