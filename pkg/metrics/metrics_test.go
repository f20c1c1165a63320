package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/linkowl/linkowl-go/pkg/attribution"
	"github.com/linkowl/linkowl-go/pkg/metrics"
)

func TestObserveAttempt(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())

	m.ObserveAttempt(attribution.Attempt{Operation: attribution.OpInstall, Attempt: 1, StatusCode: 500, Duration: 20 * time.Millisecond, Err: &attribution.StatusError{Code: 500}})
	m.ObserveAttempt(attribution.Attempt{Operation: attribution.OpInstall, Attempt: 2, StatusCode: 200, Duration: 30 * time.Millisecond})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(attribution.OpInstall, metrics.ResultStatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(attribution.OpInstall, metrics.ResultSuccess)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AttemptDurationSeconds))
}

func TestObserveTask(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	m.ObserveTask(attribution.OpPurchase, nil)
	m.ObserveTask(attribution.OpPurchase, fmt.Errorf("%w: %w", attribution.ErrDeliveryFailed, attribution.ErrTimeout))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(attribution.OpPurchase, metrics.ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(attribution.OpPurchase, metrics.ResultTimeout)))
}

func TestResult(t *testing.T) {
	t.Parallel()

	assert.Equal(t, metrics.ResultSuccess, metrics.Result(nil))
	assert.Equal(t, metrics.ResultNotConfigured, metrics.Result(attribution.ErrNotConfigured))
	assert.Equal(t, metrics.ResultDecodeError, metrics.Result(fmt.Errorf("%w: eof", attribution.ErrDecode)))
	assert.Equal(t, metrics.ResultStatusError, metrics.Result(&attribution.StatusError{Code: 502}))
	assert.Equal(t, metrics.ResultTransportError, metrics.Result(fmt.Errorf("%w: reset", attribution.ErrTransport)))
	assert.Equal(t, metrics.ResultCanceled, metrics.Result(fmt.Errorf("%w: %w", attribution.ErrCanceled, context.Canceled)))
	assert.Equal(t, metrics.ResultError, metrics.Result(errors.New("other")))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}
