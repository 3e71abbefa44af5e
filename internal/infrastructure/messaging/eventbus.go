// Package messaging implements the analytics event bus. Stores publish into
// it fire-and-forget; sinks (log, Redis fan-out, Postgres event log)
// subscribe to it.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

var (
	// ErrEventBusClosed is returned by Publish and Subscribe after Close.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic wraps the value a handler panicked with.
	ErrHandlerPanic = errors.New("handler panicked")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events to handlers inside the process. Handlers
// for the event's type run before catch-all handlers, each in subscription
// order. In async mode every handler runs on its own goroutine, at most
// WorkerPoolSize at a time, and Publish returns immediately.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	catchAll []shared.EventHandler
	closed   bool

	async   bool
	slots   chan struct{}
	stop    chan struct{}
	running sync.WaitGroup

	logger  *slog.Logger
	metrics *EventBusMetrics
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on background goroutines
	AsyncMode bool

	// WorkerPoolSize caps concurrently running handlers in async mode (default: 4)
	WorkerPoolSize int

	// Logger for structured logging
	Logger *slog.Logger

	// EnableMetrics enables metrics collection
	EnableMetrics bool
}

// DefaultInMemoryEventBusConfig returns the configuration used by the CLI.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		EnableMetrics:  true,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 4
	}

	b := &InMemoryEventBus{
		byType: make(map[shared.EventType][]shared.EventHandler),
		async:  config.AsyncMode,
		slots:  make(chan struct{}, config.WorkerPoolSize),
		stop:   make(chan struct{}),
		logger: config.Logger.With("component", "event_bus"),
	}
	if config.EnableMetrics {
		b.metrics = NewEventBusMetrics()
	}
	return b
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.register(handler, func() {
		b.byType[eventType] = append(b.byType[eventType], handler)
		b.logger.Debug("subscribed handler", "event_type", eventType)
	})
}

// SubscribeAll registers a handler for every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.register(handler, func() {
		b.catchAll = append(b.catchAll, handler)
		b.logger.Debug("subscribed catch-all handler")
	})
}

func (b *InMemoryEventBus) register(handler shared.EventHandler, add func()) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	add()
	return nil
}

// Publish delivers event. Handler errors and panics are logged, never
// returned.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	handlers, err := b.route(event.EventType())
	if err != nil {
		return err
	}
	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	for _, h := range handlers {
		if b.async {
			go b.runQueued(event, h)
			continue
		}
		if err := b.run(event, h); err != nil {
			b.logger.Warn("handler error", "event_type", event.EventType(), "error", err)
		}
	}
	return nil
}

// route snapshots the handlers for eventType. In async mode they are counted
// in running before the lock is released, so Close waits for them.
func (b *InMemoryEventBus) route(eventType shared.EventType) ([]shared.EventHandler, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrEventBusClosed
	}

	typed := b.byType[eventType]
	handlers := make([]shared.EventHandler, 0, len(typed)+len(b.catchAll))
	handlers = append(append(handlers, typed...), b.catchAll...)
	if b.async {
		b.running.Add(len(handlers))
	}
	return handlers, nil
}

// runQueued waits for a worker slot, unless the bus closes first.
func (b *InMemoryEventBus) runQueued(event shared.Event, handler shared.EventHandler) {
	defer b.running.Done()

	select {
	case b.slots <- struct{}{}:
	case <-b.stop:
		return
	}
	defer func() { <-b.slots }()

	if err := b.run(event, handler); err != nil {
		b.logger.Warn("async handler error", "event_type", event.EventType(), "error", err)
	}
}

func (b *InMemoryEventBus) run(event shared.Event, handler shared.EventHandler) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
		if b.metrics != nil {
			b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)
		}
	}()
	return handler(event)
}

// Drain waits for scheduled handlers without closing the bus.
func (b *InMemoryEventBus) Drain() {
	b.running.Wait()
}

// Close stops accepting events and waits for running handlers. Handlers
// still waiting for a worker slot are dropped.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.stop)
	b.mu.Unlock()

	b.running.Wait()
	b.logger.Info("event bus closed")
	return nil
}

// Metrics returns the bus metrics, or nil when disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts published events per type and handler runs.
// It doubles as the count source of the report_analytics job.
type EventBusMetrics struct {
	mu        sync.RWMutex
	published map[shared.EventType]int64

	executions atomic.Int64
	failures   atomic.Int64
	busyNanos  atomic.Int64
}

// NewEventBusMetrics creates empty metrics.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish counts one published event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	m.published[eventType]++
	m.mu.Unlock()
}

// RecordHandlerExecution counts one handler run.
func (m *EventBusMetrics) RecordHandlerExecution(_ shared.EventType, duration time.Duration, success bool) {
	m.executions.Add(1)
	m.busyNanos.Add(int64(duration))
	if !success {
		m.failures.Add(1)
	}
}

// PublishedCount returns how many events of the type were published.
func (m *EventBusMetrics) PublishedCount(eventType shared.EventType) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published[eventType]
}

// Counts returns a copy of the published totals per event type.
func (m *EventBusMetrics) Counts(context.Context) (map[shared.EventType]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[shared.EventType]int64, len(m.published))
	for k, v := range m.published {
		out[k] = v
	}
	return out, nil
}

// EventBusMetricsSnapshot is a point-in-time view of EventBusMetrics.
type EventBusMetricsSnapshot struct {
	TotalPublished         int64
	TotalHandlerExecs      int64
	HandlerFailures        int64
	AverageHandlerDuration time.Duration
}

// Snapshot returns the current totals.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	var published int64
	m.mu.RLock()
	for _, n := range m.published {
		published += n
	}
	m.mu.RUnlock()

	s := EventBusMetricsSnapshot{
		TotalPublished:    published,
		TotalHandlerExecs: m.executions.Load(),
		HandlerFailures:   m.failures.Load(),
	}
	if s.TotalHandlerExecs > 0 {
		s.AverageHandlerDuration = time.Duration(m.busyNanos.Load() / s.TotalHandlerExecs)
	}
	return s
}
