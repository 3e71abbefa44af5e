// Package circuitbreaker stops calling a failing dependency for a while so
// that analytics sinks (Postgres, Redis) cannot slow the session down.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the position of the breaker.
type State int

const (
	// StateClosed lets every call through and counts failures.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down ends.
	StateOpen
	// StateHalfOpen admits a few probe calls to test the dependency.
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

var (
	// ErrCircuitOpen rejects a call while the breaker cools down.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests rejects a call once the half-open probe budget is spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// IsRejection reports whether err came from the breaker rather than from
// the guarded call.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}

// ══════════════════════════════════════════════════════════════════════════════
// OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

type settings struct {
	failuresToOpen   int
	successesToClose int
	coolDown         time.Duration
	probes           int
	onStateChange    func(name string, from, to State)
	isFailure        func(error) bool
	now              func() time.Time
}

// Option configures a CircuitBreaker. Non-positive values keep the default.
type Option func(*settings)

// WithFailureThreshold sets how many consecutive failures open the breaker (default 5).
func WithFailureThreshold(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.failuresToOpen = n
		}
	}
}

// WithSuccessThreshold sets how many probe successes close it again (default 2).
func WithSuccessThreshold(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.successesToClose = n
		}
	}
}

// WithTimeout sets how long the breaker stays open (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.coolDown = d
		}
	}
}

// WithMaxHalfOpenRequests sets the probe budget while half-open (default 1).
func WithMaxHalfOpenRequests(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.probes = n
		}
	}
}

// WithOnStateChange registers a callback run on every transition, under the
// breaker's lock. It must not call back into the breaker.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(s *settings) { s.onStateChange = fn }
}

// WithIsFailure decides which errors count against the dependency.
// By default every non-nil error does.
func WithIsFailure(fn func(error) bool) Option {
	return func(s *settings) { s.isFailure = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BREAKER
// ══════════════════════════════════════════════════════════════════════════════

// Counts is a snapshot of the breaker's bookkeeping.
type Counts struct {
	Requests             int
	TotalSuccesses       int
	TotalFailures        int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
	Rejected             int
}

// CircuitBreaker guards calls to one dependency.
type CircuitBreaker struct {
	name string
	set  settings

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	inFlight int // probes admitted since entering half-open
}

// New creates a closed breaker.
func New(name string, opts ...Option) *CircuitBreaker {
	set := settings{
		failuresToOpen:   5,
		successesToClose: 2,
		coolDown:         30 * time.Second,
		probes:           1,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(&set)
	}
	return &CircuitBreaker{name: name, set: set}
}

// Execute runs fn when the breaker admits the call and records the outcome.
// A rejected call returns ErrCircuitOpen or ErrTooManyRequests without
// running fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// ExecuteWithFallback is Execute, except that a rejection is handed to
// fallback instead of being returned.
func (cb *CircuitBreaker) ExecuteWithFallback(ctx context.Context, fn func(context.Context) error, fallback func(error) error) error {
	err := cb.Execute(ctx, fn)
	if IsRejection(err) {
		return fallback(err)
	}
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.set.now().Sub(cb.openedAt) < cb.set.coolDown {
			cb.counts.Rejected++
			return ErrCircuitOpen
		}
		cb.moveTo(StateHalfOpen)
	}

	if cb.state == StateHalfOpen {
		if cb.inFlight >= cb.set.probes {
			cb.counts.Rejected++
			return ErrTooManyRequests
		}
		cb.inFlight++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	failed := err != nil
	if failed && cb.set.isFailure != nil {
		failed = cb.set.isFailure(err)
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := &cb.counts
	c.Requests++
	if !failed {
		c.TotalSuccesses++
		c.ConsecutiveSuccesses++
		c.ConsecutiveFailures = 0
		if cb.state == StateHalfOpen && c.ConsecutiveSuccesses >= cb.set.successesToClose {
			cb.moveTo(StateClosed)
		}
		return
	}

	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
	// One failed probe is enough to reopen.
	if cb.state == StateHalfOpen || c.ConsecutiveFailures >= cb.set.failuresToOpen {
		cb.moveTo(StateOpen)
	}
}

// moveTo must be called with mu held.
func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.inFlight = 0
	cb.counts.ConsecutiveFailures = 0
	cb.counts.ConsecutiveSuccesses = 0
	if to == StateOpen {
		cb.openedAt = cb.set.now()
	}
	if cb.set.onStateChange != nil {
		cb.set.onStateChange(cb.name, from, to)
	}
}

// State returns the current state. An open breaker whose cool-down has
// passed still reports open until the next call probes it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a snapshot of the counters.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the breaker and zeroes the counters without running the
// state change callback.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.counts = Counts{}
	cb.inFlight = 0
}

// Name returns the name the breaker reports in callbacks.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether calls are currently being rejected outright.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// EventLogBreaker guards inserts into the analytics event log. It trips
// after three failed writes and probes again after 15s.
func EventLogBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New("analytics-event-log",
		WithFailureThreshold(3),
		WithSuccessThreshold(1),
		WithTimeout(15*time.Second),
		WithOnStateChange(onStateChange),
	)
}

// FanoutBreaker guards the Redis counters behind the fan-out bus.
func FanoutBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New("analytics-fanout",
		WithTimeout(10*time.Second),
		WithSuccessThreshold(1),
		WithMaxHalfOpenRequests(2),
		WithOnStateChange(onStateChange),
	)
}
