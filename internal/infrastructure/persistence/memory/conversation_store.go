package memory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/tyler-paryz/oompa-social/internal/domain/conversation"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// ConversationStore buckets messages by conversation.Key. Every lookup goes
// through conversation.KeyFor, so (a, b) and (b, a) address the same bucket.
type ConversationStore struct {
	mu      sync.RWMutex
	buckets map[conversation.Key][]conversation.Message

	ids       shared.IDGenerator
	clock     shared.Clock
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// Compile-time check.
var _ conversation.Store = (*ConversationStore)(nil)

// NewConversationStore creates an empty ConversationStore.
func NewConversationStore(opts Options) *ConversationStore {
	opts = opts.withDefaults(shared.PrefixedIDGenerator{Prefix: "msg_"})
	return &ConversationStore{
		buckets:   make(map[conversation.Key][]conversation.Message),
		ids:       opts.IDs,
		clock:     opts.Clock,
		publisher: opts.Publisher,
		logger:    opts.Logger.With("component", "conversation_store"),
	}
}

// SendMessage implements conversation.Store.
func (s *ConversationStore) SendMessage(senderID, recipientID, content string) conversation.Message {
	msg := conversation.NewMessage(s.ids, s.clock, conversation.NewMessageParams{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	})
	key := msg.Key()

	s.mu.Lock()
	s.buckets[key] = append(s.buckets[key], msg)
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventMessageSent, msg.ID, map[string]interface{}{
		"conversation_id": key.String(),
		"message_id":      msg.ID,
		"recipient_id":    recipientID,
	}), s.logger)
	return msg
}

// GetConversation implements conversation.Store.
func (s *ConversationStore) GetConversation(a, b string) []conversation.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.buckets[conversation.KeyFor(a, b)]
	out := make([]conversation.Message, len(bucket))
	copy(out, bucket)
	return out
}

// MarkConversationRead implements conversation.Store.
func (s *ConversationStore) MarkConversationRead(selfID, otherID string) int {
	key := conversation.KeyFor(selfID, otherID)

	s.mu.Lock()
	bucket := s.buckets[key]
	flipped := 0
	for i := range bucket {
		if bucket[i].IsUnreadFor(selfID) && bucket[i].MarkRead() {
			flipped++
		}
	}
	s.mu.Unlock()

	if flipped > 0 {
		shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventConversationRead, key.String(), map[string]interface{}{
			"conversation_id": key.String(),
			"reader_id":       selfID,
			"marked_read":     flipped,
		}), s.logger)
	}
	return flipped
}

// ListConversations implements conversation.Store.
func (s *ConversationStore) ListConversations(selfID string) []conversation.Summary {
	s.mu.RLock()
	summaries := make([]conversation.Summary, 0)
	for key, bucket := range s.buckets {
		if !key.Has(selfID) || len(bucket) == 0 {
			continue
		}
		unread := 0
		for _, m := range bucket {
			if m.IsUnreadFor(selfID) {
				unread++
			}
		}
		last := bucket[len(bucket)-1]
		summaries = append(summaries, conversation.Summary{
			Key:          key,
			OtherUserID:  key.Other(selfID),
			LastMessage:  last,
			UnreadCount:  unread,
			LastActivity: last.Timestamp,
		})
	}
	s.mu.RUnlock()

	sortSummaries(summaries)
	return summaries
}

// sortSummaries orders by last activity descending. Zero timestamps go last,
// equal timestamps fall back to the key so the order is stable across calls.
func sortSummaries(summaries []conversation.Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		switch {
		case a.LastActivity.IsZero() && b.LastActivity.IsZero():
			return a.Key.String() < b.Key.String()
		case a.LastActivity.IsZero():
			return false
		case b.LastActivity.IsZero():
			return true
		case a.LastActivity.Equal(b.LastActivity):
			return a.Key.String() < b.Key.String()
		default:
			return a.LastActivity.After(b.LastActivity)
		}
	})
}

// Import implements conversation.Store.
func (s *ConversationStore) Import(messages ...conversation.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range messages {
		key := m.Key()
		s.buckets[key] = append(s.buckets[key], m)
	}
}
