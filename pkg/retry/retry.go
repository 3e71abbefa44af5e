// Package retry retries operations with exponential backoff and jitter.
// It is used when dialing optional analytics backends at startup.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// marked tags an error with the retry decision made by the operation itself.
type marked struct {
	err       error
	permanent bool
}

func (m *marked) Error() string { return m.err.Error() }
func (m *marked) Unwrap() error { return m.err }

// Retryable marks err as worth another attempt under the default policy.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &marked{err: err}
}

// Permanent marks err as final. No policy retries it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &marked{err: err, permanent: true}
}

func mark(err error) (m *marked, ok bool) {
	ok = errors.As(err, &m)
	return m, ok
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	m, ok := mark(err)
	return ok && !m.permanent
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	m, ok := mark(err)
	return ok && m.permanent
}

// strip removes a marker that sits directly on top of err, so callers get
// back the error the operation produced.
func strip(err error) error {
	if m, ok := err.(*marked); ok {
		return m.err
	}
	return err
}

// Config holds retry configuration.
type Config struct {
	// MaxAttempts counts the first call too.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFactor in [0, 1] spreads each delay by up to that fraction.
	JitterFactor float64

	// RetryIf replaces the default classifier, which retries only errors
	// marked with Retryable.
	RetryIf func(error) bool

	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig retries three times, starting at 100ms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

// Option adjusts a Config. Out-of-range values are ignored.
type Option func(*Config)

func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m >= 1 {
			c.Multiplier = m
		}
	}
}

func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1 {
			c.JitterFactor = j
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// Retrier runs operations under one Config.
type Retrier struct {
	config Config
}

// New creates a Retrier from DefaultConfig and opts.
func New(opts ...Option) *Retrier {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{config: cfg}
}

// Do calls operation until it succeeds or the error is not worth retrying.
// It also stops when attempts run out or ctx is done. The returned error
// is the last one the operation produced, with any marker stripped.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	delay := r.config.InitialDelay
	for attempt := 1; ; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		if attempt >= r.config.MaxAttempts || !r.shouldRetry(err) {
			return strip(err)
		}

		wait := r.jitter(delay)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, wait)
		}
		if !sleep(ctx, wait) {
			return strip(err)
		}
		delay = r.next(delay)
	}
}

func (r *Retrier) shouldRetry(err error) bool {
	if IsPermanent(err) {
		return false
	}
	if r.config.RetryIf != nil {
		return r.config.RetryIf(err)
	}
	return IsRetryable(err)
}

func (r *Retrier) next(d time.Duration) time.Duration {
	n := time.Duration(float64(d) * r.config.Multiplier)
	return min(n, r.config.MaxDelay)
}

func (r *Retrier) jitter(d time.Duration) time.Duration {
	d = min(d, r.config.MaxDelay)
	if r.config.JitterFactor == 0 {
		return d
	}
	spread := float64(d) * r.config.JitterFactor
	return max(0, d+time.Duration(spread*(2*rand.Float64()-1)))
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Do runs operation with a one-off Retrier.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, operation)
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var out T
	err := Do(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err == nil {
			out = v
		}
		return err
	}, opts...)
	return out, err
}

// ConnectRetrier is used for the initial dial of Redis and Postgres.
// Every error is retried except Permanent ones and context cancellation.
func ConnectRetrier(onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	return New(
		WithMaxAttempts(4),
		WithInitialDelay(250*time.Millisecond),
		WithMaxDelay(3*time.Second),
		WithJitter(0.2),
		WithRetryIf(func(err error) bool { return !errors.Is(err, context.Canceled) }),
		WithOnRetry(onRetry),
	)
}
