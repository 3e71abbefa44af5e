package messaging

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// BufferedEventBus collects analytics events and hands them to a slower bus
// (Redis, the event log) in batches: when the batch is full, on every tick,
// and once more on Close. Batches reach the inner bus in publish order.
// Delivery always happens on the flush goroutine, never in Publish.
type BufferedEventBus struct {
	inner  shared.EventBus
	size   int
	logger *slog.Logger

	mu      sync.Mutex
	batch   []shared.Event
	closed  bool
	flushMu sync.Mutex // serializes hand-off so batches never reorder

	full chan struct{} // capacity 1; wakes the loop early
	stop chan struct{}
	done chan struct{}
}

// BufferedEventBusConfig contains configuration for BufferedEventBus.
type BufferedEventBusConfig struct {
	Inner shared.EventBus

	// BufferSize is the batch size that triggers an immediate flush (default: 64).
	BufferSize int

	// FlushInterval is the period of time-based flushes (default: 1s).
	FlushInterval time.Duration

	Logger *slog.Logger
}

// NewBufferedEventBus starts the flush loop. Call Close to stop it.
func NewBufferedEventBus(config BufferedEventBusConfig) *BufferedEventBus {
	if config.BufferSize <= 0 {
		config.BufferSize = 64
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	b := &BufferedEventBus{
		inner:  config.Inner,
		size:   config.BufferSize,
		logger: config.Logger.With("component", "buffered_event_bus"),
		batch:  make([]shared.Event, 0, config.BufferSize),
		full:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.loop(config.FlushInterval)
	return b
}

// Subscribe registers on the inner bus; handlers see events after a flush.
func (b *BufferedEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.inner.Subscribe(eventType, handler)
}

// SubscribeAll registers on the inner bus.
func (b *BufferedEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.inner.SubscribeAll(handler)
}

// Publish queues event and returns. A full batch only wakes the flush loop.
func (b *BufferedEventBus) Publish(event shared.Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrEventBusClosed
	}
	b.batch = append(b.batch, event)
	full := len(b.batch) >= b.size
	b.mu.Unlock()

	if full {
		select {
		case b.full <- struct{}{}:
		default: // a wake-up is already pending
		}
	}
	return nil
}

// Flush delivers everything queued so far and returns the publish errors
// of the inner bus, joined.
func (b *BufferedEventBus) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	events := b.batch
	b.batch = make([]shared.Event, 0, b.size)
	b.mu.Unlock()

	var errs []error
	for _, event := range events {
		if err := b.inner.Publish(event); err != nil {
			b.logger.Warn("failed to publish buffered event", "event_type", event.EventType(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending returns the number of queued events.
func (b *BufferedEventBus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batch)
}

func (b *BufferedEventBus) loop(every time.Duration) {
	defer close(b.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			_ = b.Flush()
		case <-b.full:
			_ = b.Flush()
		}
	}
}

// Close rejects further events, stops the loop and flushes the rest.
// The inner bus stays open.
func (b *BufferedEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	<-b.done
	return b.Flush()
}
