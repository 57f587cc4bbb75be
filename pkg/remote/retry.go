package remote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/docvault/pkg/logger"
)

// RetryPolicy bounds how often and how patiently a failed operation is repeated.
type RetryPolicy struct {
	MaxAttempts int           `env:"FTP_RETRY_ATTEMPTS" envDefault:"3"`     // MaxAttempts is the total number of attempts, including the first one.
	BackoffUnit time.Duration `env:"FTP_RETRY_INTERVAL" envDefault:"250ms"` // BackoffUnit is multiplied by the attempt number to get the wait before the next attempt.
}

// DefaultRetryPolicy returns three attempts spaced 250ms, then 500ms apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BackoffUnit: 250 * time.Millisecond}
}

// Delay returns the wait after the given failed attempt: attempt * BackoffUnit.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.BackoffUnit <= 0 {
		return 0
	}
	return time.Duration(attempt) * p.BackoffUnit
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Manager runs units of work against fresh sessions with retry on transient failures.
// It holds no session between calls and is safe for concurrent use.
type Manager struct {
	dialer  Dialer
	policy  RetryPolicy
	logger  *slog.Logger
	metrics *Metrics
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithRetryPolicy(p RetryPolicy) ManagerOption {
	return func(m *Manager) { m.policy = p }
}

func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records attempts, retries and durations. A nil value disables metrics.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a Manager dialing through d.
func NewManager(d Dialer, opts ...ManagerOption) *Manager {
	m := &Manager{
		dialer: d,
		policy: DefaultRetryPolicy(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("remote"))
	return m
}

// Policy returns the retry policy in effect.
func (m *Manager) Policy() RetryPolicy { return m.policy }

// Do runs fn against a freshly dialed session. Transient failures are
// retried; any other failure, or the failure of the last attempt, is
// returned as is. Records logged with the context passed to fn carry op.
func (m *Manager) Do(ctx context.Context, op string, fn func(ctx context.Context, s Session) error) (err error) {
	ctx = logger.ContextWithOperation(ctx, op)
	start := time.Now()
	attempt := 0
	defer func() {
		elapsed := time.Since(start)
		m.metrics.observeDuration(op, elapsed)
		m.logger.DebugContext(ctx, "transport operation finished",
			logger.Attempt(attempt),
			logger.Duration(elapsed),
			logger.Error(err),
		)
	}()

	maxAttempts := m.policy.attempts()
	for attempt = 1; ; attempt++ {
		err := m.attempt(ctx, fn)
		m.metrics.observeAttempt(op, err)
		if err == nil {
			return nil
		}
		if !IsTransient(err) || attempt >= maxAttempts {
			return err
		}

		delay := m.policy.Delay(attempt)
		m.logger.WarnContext(ctx, "transient transport failure, retrying",
			logger.Attempt(attempt),
			logger.Delay(delay),
			logger.Error(err),
		)
		m.metrics.observeRetry(op)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
}

func (m *Manager) attempt(ctx context.Context, fn func(ctx context.Context, s Session) error) error {
	s, err := m.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			m.logger.DebugContext(ctx, "session close failed", logger.Error(cerr))
		}
	}()
	return fn(ctx, s)
}

// Call is Do for units of work that produce a value.
func Call[T any](ctx context.Context, m *Manager, op string, fn func(ctx context.Context, s Session) (T, error)) (T, error) {
	var out T
	err := m.Do(ctx, op, func(ctx context.Context, s Session) error {
		v, err := fn(ctx, s)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
