// Package redis connects the analytics bus to Redis: Pub/Sub fan-out of
// event envelopes and per-type event counters.
//
// Store state is never written here; Redis only observes analytics.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tyler-paryz/oompa-social/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// URL is a redis:// or rediss:// connection string.
	URL string

	// DialTimeout bounds the initial ping.
	DialTimeout time.Duration

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	Logger *slog.Logger
}

// DefaultConfig returns a local development configuration.
func DefaultConfig() Config {
	return Config{
		URL:         "redis://localhost:6379/0",
		DialTimeout: 5 * time.Second,
		PoolSize:    10,
	}
}

// Options parses the URL into go-redis options.
func (c Config) Options() (*redis.Options, error) {
	if c.URL == "" {
		return nil, ErrEmptyURL
	}
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	return opts, nil
}

var (
	// ErrEmptyURL is returned when no connection string is configured.
	ErrEmptyURL = errors.New("redis: url is empty")

	// ErrConnection is returned when the initial ping fails.
	ErrConnection = errors.New("redis: connection failed")
)

// ══════════════════════════════════════════════════════════════════════════════
// PUB/SUB CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// PubSubClient implements messaging.RedisClient on top of go-redis.
type PubSubClient struct {
	client *redis.Client
	logger *slog.Logger

	mu   sync.Mutex
	subs []*redis.PubSub
}

var _ messaging.RedisClient = (*PubSubClient)(nil)

// NewPubSubClient connects and pings Redis.
func NewPubSubClient(ctx context.Context, cfg Config) (*PubSubClient, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return &PubSubClient{
		client: client,
		logger: cfg.Logger.With("component", "redis_pubsub"),
	}, nil
}

// Client returns the underlying go-redis client.
func (c *PubSubClient) Client() *redis.Client {
	return c.client
}

// Publish sends message on channel.
func (c *PubSubClient) Publish(ctx context.Context, channel string, message interface{}) error {
	if channel == "" {
		return errors.New("redis: channel cannot be empty")
	}
	return c.client.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to channels and forwards messages until ctx is done
// or the client is closed.
func (c *PubSubClient) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := c.client.Subscribe(ctx, channels...)
	// Receive the subscription confirmation so errors surface here.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	out := make(chan messaging.RedisMessage)
	go Forward(ctx, sub.Channel(), out)
	return out, nil
}

// Forward converts go-redis messages until in closes or ctx is done, then
// closes out.
func Forward(ctx context.Context, in <-chan *redis.Message, out chan<- messaging.RedisMessage) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close closes all subscriptions and the connection pool.
func (c *PubSubClient) Close() error {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			c.logger.Warn("failed to close subscription", "error", err)
		}
	}
	return c.client.Close()
}
