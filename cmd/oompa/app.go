package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tyler-paryz/oompa-social/config"
	"github.com/tyler-paryz/oompa-social/internal/application/command"
	"github.com/tyler-paryz/oompa-social/internal/application/query"
	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/fixtures"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/messaging"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/persistence/memory"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/persistence/postgres"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/persistence/redis"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/scheduler/jobs"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/service"
	"github.com/tyler-paryz/oompa-social/internal/interface/navigation"
	"github.com/tyler-paryz/oompa-social/pkg/circuitbreaker"
	"github.com/tyler-paryz/oompa-social/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// app is the fully wired process: analytics sinks, stores seeded with the
// demo community, the session and its handlers.
type app struct {
	cfg *config.Config
	log *slog.Logger

	analytics *analytics
	fixtures  *fixtures.Set
	sess      *session.Context
	auth      *service.MockAuthenticator
	router    *navigation.Router

	commands commandHandlers
	queries  queryHandlers
}

type commandHandlers struct {
	CreatePost        *command.CreatePostHandler
	LikePost          *command.LikePostHandler
	CommentOnPost     *command.CommentOnPostHandler
	SharePost         *command.SharePostHandler
	SendMessage       *command.SendMessageHandler
	OpenConversation  *command.OpenConversationHandler
	SendFriendRequest *command.SendFriendRequestHandler
	RespondFriend     *command.RespondFriendRequestHandler
}

type queryHandlers struct {
	Feed          *query.GetFeedHandler
	Profile       *query.GetProfileHandler
	Conversations *query.ListConversationsHandler
	Friends       *query.GetFriendsHandler
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ANALYTICS
	// ─────────────────────────────────────────────────────────────────────────
	an, err := newAnalytics(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORES & FIXTURES
	// ─────────────────────────────────────────────────────────────────────────
	set, err := fixtures.Default()
	if err != nil {
		an.close(ctx)
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}

	storeOpts := memory.Options{Publisher: an.publisher, Logger: log}
	users := set.Directory()
	sess, err := session.New(session.Config{
		Posts:         memory.NewPostStore(storeOpts),
		Conversations: memory.NewConversationStore(storeOpts),
		Social: memory.NewSocialStore(memory.SocialStoreOptions{
			Options:        storeOpts,
			DedupeRequests: cfg.Features.DedupeFriendRequests,
		}),
		Users:  users,
		Events: an.publisher,
		Logger: log,
	})
	if err != nil {
		an.close(ctx)
		return nil, err
	}
	fixtures.Seed(sess, set)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. HANDLERS & ROUTER
	// ─────────────────────────────────────────────────────────────────────────
	opts := command.Options{Notify: command.NotifyPolicyFrom(cfg.Features), Logger: log}

	router, err := navigation.NewRouter(navigation.RouterConfig{
		Auth:           sess,
		Events:         an.publisher,
		TrackPageViews: cfg.Features.TrackNavigation,
		Logger:         log,
		Debug:          cfg.App.Debug,
	})
	if err != nil {
		an.close(ctx)
		return nil, err
	}

	return &app{
		cfg:       cfg,
		log:       log,
		analytics: an,
		fixtures:  set,
		sess:      sess,
		auth:      service.NewMockAuthenticator(users, log),
		router:    router,
		commands: commandHandlers{
			CreatePost:        command.NewCreatePostHandler(sess, opts),
			LikePost:          command.NewLikePostHandler(sess, opts),
			CommentOnPost:     command.NewCommentOnPostHandler(sess, opts),
			SharePost:         command.NewSharePostHandler(sess),
			SendMessage:       command.NewSendMessageHandler(sess),
			OpenConversation:  command.NewOpenConversationHandler(sess),
			SendFriendRequest: command.NewSendFriendRequestHandler(sess, opts),
			RespondFriend:     command.NewRespondFriendRequestHandler(sess),
		},
		queries: queryHandlers{
			Feed:          query.NewGetFeedHandler(sess),
			Profile:       query.NewGetProfileHandler(sess),
			Conversations: query.NewListConversationsHandler(sess),
			Friends:       query.NewGetFriendsHandler(sess),
		},
	}, nil
}

// signIn logs the email in and loads that user's social state.
func (a *app) signIn(ctx context.Context, email string) (service.LoginResult, error) {
	res, err := service.SignIn(ctx, a.auth, a.sess, email, "")
	if err != nil || !res.Success {
		return res, err
	}
	fixtures.SeedSession(a.sess, a.fixtures, res.User.ID)
	return res, nil
}

// Close flushes analytics within the configured shutdown timeout.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()
	a.analytics.close(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS SINKS
// ══════════════════════════════════════════════════════════════════════════════

// closableBus is the analytics bus the stores publish into.
type closableBus interface {
	shared.EventBus
	Close() error
}

type analytics struct {
	log *slog.Logger

	// publisher is what stores, the session and the router publish into.
	publisher shared.EventPublisher

	// counts backs the report_analytics job.
	counts jobs.CountSource

	closers []func() error
}

func newAnalytics(ctx context.Context, cfg *config.Config, log *slog.Logger) (*analytics, error) {
	an := &analytics{log: log.With("component", "analytics")}

	if !cfg.Analytics.Enabled {
		an.publisher = shared.NopPublisher{}
		an.counts = messaging.NewEventBusMetrics()
		an.log.Info("analytics disabled")
		return an, nil
	}

	busConfig := messaging.InMemoryEventBusConfig{
		AsyncMode:      cfg.Analytics.AsyncMode,
		WorkerPoolSize: cfg.Analytics.WorkerPoolSize,
		Logger:         log,
		EnableMetrics:  true,
	}

	var bus closableBus
	if cfg.Redis.Enabled {
		rb, counter, err := an.connectRedis(ctx, cfg, busConfig)
		if err != nil {
			an.log.Warn("failed to connect to Redis, fan-out disabled", "error", err)
		} else {
			bus = rb
			an.counts = counter
		}
	}
	if bus == nil {
		local := messaging.NewInMemoryEventBus(busConfig)
		bus = local
		an.counts = local.Metrics()
	}
	an.closers = append(an.closers, bus.Close)

	if cfg.Database.Enabled {
		if err := an.connectEventLog(ctx, cfg, bus); err != nil {
			an.log.Warn("failed to open the event log, events will not be stored", "error", err)
		}
	}

	if cfg.Analytics.LogEvents {
		if err := bus.SubscribeAll(an.logEvent); err != nil {
			an.close(ctx)
			return nil, fmt.Errorf("subscribe event logger: %w", err)
		}
	}

	buffered := messaging.NewBufferedEventBus(messaging.BufferedEventBusConfig{
		Inner:         bus,
		BufferSize:    cfg.Analytics.BufferSize,
		FlushInterval: cfg.Analytics.FlushInterval,
		Logger:        log,
	})
	// Flush the buffer before the bus behind it closes.
	an.closers = append([]func() error{buffered.Close}, an.closers...)
	an.publisher = buffered

	return an, nil
}

func (an *analytics) onRetry(target string) func(attempt int, err error, delay time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		an.log.Warn("connect failed, retrying", "target", target, "attempt", attempt, "delay", delay.String(), "error", err)
	}
}

func (an *analytics) connectRedis(ctx context.Context, cfg *config.Config, local messaging.InMemoryEventBusConfig) (*messaging.RedisEventBus, *redis.EventCounter, error) {
	redisCfg := redis.DefaultConfig()
	redisCfg.URL = cfg.Redis.URL
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.Logger = an.log

	var client *redis.PubSubClient
	err := retry.ConnectRetrier(an.onRetry("redis")).Do(ctx, func(ctx context.Context) error {
		c, err := redis.NewPubSubClient(ctx, redisCfg)
		if errors.Is(err, redis.ErrEmptyURL) {
			return retry.Permanent(err)
		}
		client = c
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         client,
		ChannelName:    cfg.Redis.Channel,
		LocalBusConfig: local,
		Logger:         an.log,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	counter := redis.NewEventCounter(client.Client(), cfg.Redis.CountersKey)
	breaker := circuitbreaker.FanoutBreaker(an.onBreakerChange)
	err = bus.SubscribeAll(func(event shared.Event) error {
		return breaker.Execute(context.Background(), func(context.Context) error {
			return counter.Handle(event)
		})
	})
	if err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("subscribe event counter: %w", err)
	}

	an.log.Info("Redis fan-out enabled", "channel", cfg.Redis.Channel)
	return bus, counter, nil
}

func (an *analytics) connectEventLog(ctx context.Context, cfg *config.Config, bus shared.EventSubscriber) error {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = cfg.Database.MaxConns
	pgCfg.ConnectTimeout = cfg.Database.ConnectTimeout

	var conn *postgres.Connection
	err := retry.ConnectRetrier(an.onRetry("postgres")).Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnection(ctx, pgCfg)
		if errors.Is(err, postgres.ErrEmptyURL) {
			return retry.Permanent(err)
		}
		conn = c
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Migrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	eventLog := postgres.NewEventLog(postgres.EventLogConfig{DB: conn, Logger: an.log})
	if err := bus.SubscribeAll(eventLog.Handle); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe event log: %w", err)
	}

	an.closers = append(an.closers, func() error {
		an.log.Info("closing event log", "written", eventLog.Written(), "dropped", eventLog.Dropped())
		conn.Close()
		return nil
	})
	an.log.Info("analytics event log enabled")
	return nil
}

func (an *analytics) onBreakerChange(name string, from, to circuitbreaker.State) {
	an.log.Warn("circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
}

func (an *analytics) logEvent(event shared.Event) error {
	an.log.Debug("analytics event",
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"payload", event.Payload(),
	)
	return nil
}

// close runs the closers in order, giving up when ctx expires.
func (an *analytics) close(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, c := range an.closers {
			if err := c(); err != nil {
				an.log.Warn("analytics shutdown step failed", "error", err)
			}
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		an.log.Warn("analytics shutdown timed out", "error", ctx.Err())
	}
}
