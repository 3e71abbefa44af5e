// Package conversation contains the direct-message model.
//
// A conversation is not stored on its own: it is the set of messages whose
// unordered {sender, recipient} pair matches a Key. KeyFor(a, b) == KeyFor(b, a).
package conversation

import (
	"strings"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// KeySeparator joins the two participant ids in Key.String.
const KeySeparator = "_"

// Key identifies a conversation by its sorted participant pair.
type Key struct {
	Low  string
	High string
}

// KeyFor returns the order-independent key for the pair (a, b).
func KeyFor(a, b string) Key {
	low, high := shared.SortedPair(a, b)
	return Key{Low: low, High: high}
}

// ParseKey parses a key in its String form, e.g. "user1_user2".
// The second value is false when the input has no separator.
func ParseKey(s string) (Key, bool) {
	i := strings.Index(s, KeySeparator)
	if i < 0 {
		return Key{}, false
	}
	return KeyFor(s[:i], s[i+len(KeySeparator):]), true
}

// String returns the ids joined by KeySeparator.
func (k Key) String() string {
	return k.Low + KeySeparator + k.High
}

// Has reports whether userID participates in the conversation.
func (k Key) Has(userID string) bool {
	return k.Low == userID || k.High == userID
}

// Other returns the participant that is not userID.
func (k Key) Other(userID string) string {
	if k.Low == userID {
		return k.High
	}
	return k.Low
}

// Message is a direct message between two users.
type Message struct {
	ID          string    `json:"id" yaml:"id"`
	SenderID    string    `json:"sender_id" yaml:"senderId"`
	RecipientID string    `json:"recipient_id" yaml:"recipientId"`
	Content     string    `json:"content" yaml:"content"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Read        bool      `json:"read" yaml:"read"`
}

// Key returns the conversation this message belongs to.
func (m Message) Key() Key {
	return KeyFor(m.SenderID, m.RecipientID)
}

// IsUnreadFor reports whether m is addressed to userID and still unread.
func (m Message) IsUnreadFor(userID string) bool {
	return m.RecipientID == userID && !m.Read
}

// MarkRead flips the read flag. Read state never goes back to unread.
func (m *Message) MarkRead() bool {
	if m.Read {
		return false
	}
	m.Read = true
	return true
}

// NewMessageParams holds the fields accepted when creating a message.
type NewMessageParams struct {
	SenderID    string
	RecipientID string
	Content     string
}

// NewMessage creates an unread message with a fresh id and timestamp.
func NewMessage(ids shared.IDGenerator, clock shared.Clock, params NewMessageParams) Message {
	if ids == nil {
		ids = shared.UUIDGenerator{}
	}
	return Message{
		ID:          ids.NewID(),
		SenderID:    params.SenderID,
		RecipientID: params.RecipientID,
		Content:     params.Content,
		Timestamp:   clock.Now(),
		Read:        false,
	}
}

// Summary is one row of a user's inbox.
type Summary struct {
	Key          Key
	OtherUserID  string
	LastMessage  Message
	UnreadCount  int
	LastActivity time.Time
}
