package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type nopSession struct{ Session }

func (nopSession) Close() error { return nil }

func TestMetricsRecordAttemptsAndRetries(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	dialer := DialerFunc(func(context.Context) (Session, error) { return nopSession{}, nil })
	m := NewManager(dialer,
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BackoffUnit: time.Millisecond}),
		WithMetrics(metrics),
	)

	calls := 0
	err := m.Do(context.Background(), "write", func(context.Context, Session) error {
		calls++
		if calls == 1 {
			return &TransportError{Kind: KindTransient, Op: "store", Err: errors.New("426")}
		}
		return nil
	})
	assert.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.attempts.WithLabelValues("write", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.attempts.WithLabelValues("write", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.retries.WithLabelValues("write")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration, "docvault_remote_operation_duration_seconds"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeAttempt("read", nil)
		m.observeRetry("read")
		m.observeDuration("read", time.Second)
	})
}
