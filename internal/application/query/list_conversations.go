package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/conversation"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST CONVERSATIONS QUERY
// The session user's inbox, most recent conversation first.
// ══════════════════════════════════════════════════════════════════════════════

// previewLength bounds ConversationDTO.Preview, in runes.
const previewLength = 40

// ListConversationsQuery has no parameters; the inbox belongs to the session user.
type ListConversationsQuery struct{}

// ConversationDTO is one inbox row.
type ConversationDTO struct {
	Key           conversation.Key
	OtherUserID   string
	OtherUserName string
	Preview       string
	LastMessage   conversation.Message
	LastActivity  time.Time
	UnreadCount   int
	LastFromMe    bool
}

// ListConversationsResult contains the inbox.
type ListConversationsResult struct {
	Conversations []ConversationDTO
	TotalUnread   int
}

// ListConversationsHandler handles ListConversationsQuery.
type ListConversationsHandler struct {
	sess *session.Context
}

// NewListConversationsHandler creates a new ListConversationsHandler.
func NewListConversationsHandler(sess *session.Context) *ListConversationsHandler {
	return &ListConversationsHandler{sess: sess}
}

// Handle executes the query.
func (h *ListConversationsHandler) Handle(ctx context.Context, _ ListConversationsQuery) (*ListConversationsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	me, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("list_conversations: %w", err)
	}

	summaries := h.sess.Conversations.ListConversations(me.ID)
	result := &ListConversationsResult{Conversations: make([]ConversationDTO, 0, len(summaries))}
	for _, s := range summaries {
		result.Conversations = append(result.Conversations, ConversationDTO{
			Key:           s.Key,
			OtherUserID:   s.OtherUserID,
			OtherUserName: user.DisplayName(h.sess.Users, s.OtherUserID),
			Preview:       truncate(s.LastMessage.Content, previewLength),
			LastMessage:   s.LastMessage,
			LastActivity:  s.LastActivity,
			UnreadCount:   s.UnreadCount,
			LastFromMe:    s.LastMessage.SenderID == me.ID,
		})
		result.TotalUnread += s.UnreadCount
	}
	return result, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
