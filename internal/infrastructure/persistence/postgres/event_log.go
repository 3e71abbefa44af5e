package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/pkg/circuitbreaker"
)

const insertEventSQL = `
INSERT INTO analytics_events (event_type, aggregate_id, user_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)`

// EventLogConfig configures an EventLog.
type EventLogConfig struct {
	DB Execer

	// Breaker defaults to circuitbreaker.EventLogBreaker.
	Breaker *circuitbreaker.CircuitBreaker

	// WriteTimeout bounds a single insert.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// EventLog appends analytics events to analytics_events. While the breaker
// is open events are counted as dropped rather than written.
type EventLog struct {
	db      Execer
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	logger  *slog.Logger

	written atomic.Int64
	dropped atomic.Int64
}

// NewEventLog creates an EventLog.
func NewEventLog(cfg EventLogConfig) *EventLog {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "event_log")
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.EventLogBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		})
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	return &EventLog{
		db:      cfg.DB,
		breaker: cfg.Breaker,
		timeout: cfg.WriteTimeout,
		logger:  logger,
	}
}

// Record writes one event.
func (l *EventLog) Record(ctx context.Context, event shared.Event) error {
	payload := event.Payload()
	var userID interface{}
	if id, ok := payload["user_id"].(string); ok && id != "" {
		userID = id
	}

	return l.breaker.ExecuteWithFallback(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		_, err := l.db.Exec(ctx, insertEventSQL,
			string(event.EventType()),
			event.AggregateID(),
			userID,
			payload,
			event.OccurredAt(),
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", event.EventType(), err)
		}
		l.written.Add(1)
		return nil
	}, func(error) error {
		l.dropped.Add(1)
		l.logger.Debug("event dropped, circuit open", "event_type", event.EventType())
		return nil
	})
}

// Handle is a shared.EventHandler suitable for EventBus.SubscribeAll.
func (l *EventLog) Handle(event shared.Event) error {
	return l.Record(context.Background(), event)
}

// Written returns how many events were inserted.
func (l *EventLog) Written() int64 { return l.written.Load() }

// Dropped returns how many events were skipped while the circuit was open.
func (l *EventLog) Dropped() int64 { return l.dropped.Load() }
