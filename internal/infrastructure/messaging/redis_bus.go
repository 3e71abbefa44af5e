package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// DefaultAnalyticsChannel is the Pub/Sub channel analytics envelopes go to.
const DefaultAnalyticsChannel = "oompa:analytics"

// RedisClient is what RedisEventBus needs from Redis. The go-redis adapter
// lives in persistence/redis.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage is one message received from a subscription. Err is set
// instead of Payload when the subscription reported a failure.
type RedisMessage struct {
	Channel string
	Payload string
	Err     error
}

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	Client RedisClient

	// ChannelName defaults to DefaultAnalyticsChannel.
	ChannelName string

	// InstanceID tags outgoing envelopes so the bus can skip its own echo.
	// A random id is used when empty.
	InstanceID string

	LocalBusConfig InMemoryEventBusConfig
	Logger         *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBus mirrors analytics events onto a Redis channel so that other
// processes can watch a session. Subscribers are local; they receive this
// process's events and those published by other instances.
type RedisEventBus struct {
	*InMemoryEventBus

	client  RedisClient
	channel string
	self    string
	logger  *slog.Logger

	closed atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
	pubCtx context.Context
}

// NewRedisEventBus subscribes to the channel and starts listening for
// remote envelopes.
func NewRedisEventBus(config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis event bus: client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = DefaultAnalyticsChannel
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.LocalBusConfig.Logger == nil {
		config.LocalBusConfig.Logger = config.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	inbox, err := config.Client.Subscribe(ctx, config.ChannelName)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", config.ChannelName, err)
	}

	b := &RedisEventBus{
		InMemoryEventBus: NewInMemoryEventBus(config.LocalBusConfig),
		client:           config.Client,
		channel:          config.ChannelName,
		self:             config.InstanceID,
		logger:           config.Logger.With("component", "redis_event_bus", "channel", config.ChannelName),
		cancel:           cancel,
		done:             make(chan struct{}),
		pubCtx:           ctx,
	}
	go b.listen(ctx, inbox)
	return b, nil
}

// Publish sends the envelope to Redis, then delivers locally. Local delivery
// happens even when Redis is unreachable.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if b.closed.Load() {
		return ErrEventBusClosed
	}

	data, err := EncodeEnvelope(b.self, event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(b.pubCtx, b.channel, data); err != nil {
		b.logger.Warn("redis publish failed", "event_type", event.EventType(), "error", err)
	}
	return b.InMemoryEventBus.Publish(event)
}

func (b *RedisEventBus) listen(ctx context.Context, inbox <-chan RedisMessage) {
	defer close(b.done)
	for {
		var msg RedisMessage
		var ok bool
		select {
		case <-ctx.Done():
			return
		case msg, ok = <-inbox:
		}
		switch {
		case !ok:
			return
		case msg.Err != nil:
			b.logger.Warn("redis subscription error", "error", msg.Err)
		default:
			b.receive(msg.Payload)
		}
	}
}

func (b *RedisEventBus) receive(payload string) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		b.logger.Warn("dropping malformed envelope", "error", err)
		return
	}
	if env.InstanceID == b.self {
		return
	}
	if err := b.InMemoryEventBus.Publish(env.Event()); err != nil {
		b.logger.Warn("failed to deliver remote event", "event_type", env.EventType, "error", err)
	}
}

// Close stops listening, then closes the local bus and the Redis client.
func (b *RedisEventBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.cancel()
	<-b.done

	if err := b.InMemoryEventBus.Close(); err != nil {
		b.logger.Warn("failed to close local bus", "error", err)
	}
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// Envelope is the wire form of an analytics event.
type Envelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// EncodeEnvelope serializes event tagged with the publishing instance.
func EncodeEnvelope(instanceID string, event shared.Event) (string, error) {
	data, err := json.Marshal(Envelope{
		InstanceID:  instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal %s envelope: %w", event.EventType(), err)
	}
	return string(data), nil
}

// DecodeEnvelope parses a message produced by EncodeEnvelope.
func DecodeEnvelope(payload string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.EventType == "" {
		return Envelope{}, errors.New("envelope has no event type")
	}
	return env, nil
}

// Event rebuilds a shared.Event from the envelope.
func (e Envelope) Event() shared.Event {
	ev := shared.NewTrackedEvent(e.EventType, e.AggregateID, e.Payload)
	ev.At = e.OccurredAt
	return ev
}
