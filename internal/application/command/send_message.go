package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/conversation"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND MESSAGE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SendMessageCommand contains the data to send a direct message from the
// session user.
type SendMessageCommand struct {
	RecipientID string
	Content     string
}

// Validate validates the command.
func (c SendMessageCommand) Validate() error {
	if c.RecipientID == "" {
		return errors.New("send_message: recipient_id is required")
	}
	if strings.TrimSpace(c.Content) == "" {
		return errors.New("send_message: content is required")
	}
	return nil
}

// SendMessageResult contains the stored message.
type SendMessageResult struct {
	Message conversation.Message
	Key     conversation.Key
}

// SendMessageHandler handles the SendMessageCommand.
type SendMessageHandler struct {
	sess *session.Context
}

// NewSendMessageHandler creates a new SendMessageHandler.
func NewSendMessageHandler(sess *session.Context) *SendMessageHandler {
	return &SendMessageHandler{sess: sess}
}

// Handle executes the send message command.
func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	me, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("send_message: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("send_message: validation failed: %w", err)
	}

	msg := h.sess.Conversations.SendMessage(me.ID, cmd.RecipientID, cmd.Content)
	return &SendMessageResult{Message: msg, Key: msg.Key()}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OPEN CONVERSATION COMMAND
// Opening a thread marks everything addressed to the session user as read.
// ══════════════════════════════════════════════════════════════════════════════

// OpenConversationCommand names the other participant.
type OpenConversationCommand struct {
	OtherUserID string
}

// Validate validates the command.
func (c OpenConversationCommand) Validate() error {
	if c.OtherUserID == "" {
		return errors.New("open_conversation: other_user_id is required")
	}
	return nil
}

// OpenConversationResult contains the thread after it was marked read.
type OpenConversationResult struct {
	Key        conversation.Key
	Messages   []conversation.Message
	MarkedRead int
}

// OpenConversationHandler handles the OpenConversationCommand.
type OpenConversationHandler struct {
	sess *session.Context
}

// NewOpenConversationHandler creates a new OpenConversationHandler.
func NewOpenConversationHandler(sess *session.Context) *OpenConversationHandler {
	return &OpenConversationHandler{sess: sess}
}

// Handle executes the open conversation command.
func (h *OpenConversationHandler) Handle(ctx context.Context, cmd OpenConversationCommand) (*OpenConversationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	me, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("open_conversation: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("open_conversation: validation failed: %w", err)
	}

	marked := h.sess.Conversations.MarkConversationRead(me.ID, cmd.OtherUserID)
	return &OpenConversationResult{
		Key:        conversation.KeyFor(me.ID, cmd.OtherUserID),
		Messages:   h.sess.Conversations.GetConversation(me.ID, cmd.OtherUserID),
		MarkedRead: marked,
	}, nil
}
