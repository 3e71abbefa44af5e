package shared

import (
	"fmt"
	"log/slog"
	"time"
)

// EventType names an analytics event.
type EventType string

// Analytics event types. Each mutating store operation reports one of these
// after it has completed.
const (
	// Post events
	EventPostCreated   EventType = "post.created"
	EventPostLiked     EventType = "post.liked"
	EventPostCommented EventType = "post.commented"
	EventPostShared    EventType = "post.shared"

	// Conversation events
	EventMessageSent      EventType = "message.sent"
	EventConversationRead EventType = "conversation.read"

	// Social events
	EventFriendAdded            EventType = "friend.added"
	EventFriendRequestCreated   EventType = "friend_request.created"
	EventFriendRequestAccepted  EventType = "friend_request.accepted"
	EventFriendRequestRejected  EventType = "friend_request.rejected"
	EventNotificationAdded      EventType = "notification.added"
	EventNotificationCleared    EventType = "notification.cleared"
	EventNotificationMarkedRead EventType = "notification.read"

	// Session events
	EventSessionLogin  EventType = "session.login"
	EventSessionLogout EventType = "session.logout"

	// Navigation events
	EventPageViewed EventType = "navigation.page_viewed"
)

// Event is what the stores report to analytics.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	// AggregateID names the post, conversation, request or page involved.
	AggregateID() string
	// Payload returns a copy of the attributes.
	Payload() map[string]interface{}
}

// TrackedEvent is the one Event implementation: a type, a subject and
// free-form attributes.
type TrackedEvent struct {
	Type       EventType              `json:"type"`
	At         time.Time              `json:"occurred_at"`
	Subject    string                 `json:"aggregate_id"`
	Attributes map[string]interface{} `json:"attributes"`
}

// NewTrackedEvent stamps an event with the current UTC time.
func NewTrackedEvent(eventType EventType, aggregateID string, attrs map[string]interface{}) TrackedEvent {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	return TrackedEvent{Type: eventType, At: time.Now().UTC(), Subject: aggregateID, Attributes: attrs}
}

func (e TrackedEvent) EventType() EventType  { return e.Type }
func (e TrackedEvent) OccurredAt() time.Time { return e.At }
func (e TrackedEvent) AggregateID() string   { return e.Subject }

func (e TrackedEvent) Payload() map[string]interface{} {
	out := make(map[string]interface{}, len(e.Attributes))
	for k, v := range e.Attributes {
		out[k] = v
	}
	return out
}

// EventHandler consumes one event.
type EventHandler func(event Event) error

// EventPublisher is the analytics collaborator the stores are given.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber is implemented by the buses in messaging.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event. It is the default when no analytics
// collaborator is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(event Event) error

func (f PublisherFunc) Publish(event Event) error { return f(event) }

// PublishSafe reports event to pub and swallows any failure, including a
// panicking publisher. The caller's result never depends on it.
func PublishSafe(pub EventPublisher, event Event, logger *slog.Logger) {
	if pub == nil || event == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("analytics publisher panicked",
				"event_type", event.EventType(),
				"panic", fmt.Sprint(r),
			)
		}
	}()

	if err := pub.Publish(event); err != nil {
		logger.Warn("analytics publish failed",
			"event_type", event.EventType(),
			"error", err,
		)
	}
}
