package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND FRIEND REQUEST COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SendFriendRequestCommand contains the data to create a friend request.
type SendFriendRequestCommand struct {
	// RequesterID is the sender. Empty means the session user.
	RequesterID string

	TargetID string
}

// Validate validates the command.
func (c SendFriendRequestCommand) Validate() error {
	if c.TargetID == "" {
		return errors.New("send_friend_request: target_id is required")
	}
	if c.RequesterID != "" && c.RequesterID == c.TargetID {
		return errors.New("send_friend_request: cannot befriend self")
	}
	return nil
}

// SendFriendRequestResult contains the request that was created.
type SendFriendRequestResult struct {
	Request social.FriendRequest

	// Stored is false when the store dropped the request as a duplicate.
	Stored bool

	// Notified is true when the session user was notified.
	Notified bool
}

// SendFriendRequestHandler handles the SendFriendRequestCommand.
type SendFriendRequestHandler struct {
	sess     *session.Context
	ids      shared.IDGenerator
	clock    shared.Clock
	notifier notifier
	enabled  bool
}

// NewSendFriendRequestHandler creates a new SendFriendRequestHandler.
func NewSendFriendRequestHandler(sess *session.Context, opts Options) *SendFriendRequestHandler {
	opts = opts.withDefaults()
	return &SendFriendRequestHandler{
		sess:     sess,
		ids:      opts.idsOr("req_"),
		clock:    opts.Clock,
		notifier: newNotifier(sess, opts),
		enabled:  opts.Notify.OnFriendRequest,
	}
}

// Handle executes the send friend request command.
func (h *SendFriendRequestHandler) Handle(ctx context.Context, cmd SendFriendRequestCommand) (*SendFriendRequestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	me, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("send_friend_request: %w", err)
	}
	if cmd.RequesterID == "" {
		cmd.RequesterID = me.ID
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("send_friend_request: validation failed: %w", err)
	}

	req := social.NewFriendRequest(h.ids, h.clock, cmd.RequesterID, cmd.TargetID)
	result := &SendFriendRequestResult{Request: req}
	result.Stored = h.sess.Social.AddFriendRequest(req)

	if result.Stored && h.enabled {
		result.Notified = h.notifier.notify(req.TargetID, req.RequesterID, social.NotificationFriendRequest, req.ID,
			friendRequestText(h.notifier.name(req.RequesterID)))
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPOND FRIEND REQUEST COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RespondFriendRequestCommand accepts or rejects a pending request.
type RespondFriendRequestCommand struct {
	RequestID string
	Accept    bool
}

// Validate validates the command.
func (c RespondFriendRequestCommand) Validate() error {
	if c.RequestID == "" {
		return errors.New("respond_friend_request: request_id is required")
	}
	return nil
}

// RespondFriendRequestResult contains the resolved request.
type RespondFriendRequestResult struct {
	Request social.FriendRequest

	// Found is false when no pending request had that id.
	Found bool
}

// RespondFriendRequestHandler handles the RespondFriendRequestCommand.
type RespondFriendRequestHandler struct {
	sess *session.Context
}

// NewRespondFriendRequestHandler creates a new RespondFriendRequestHandler.
func NewRespondFriendRequestHandler(sess *session.Context) *RespondFriendRequestHandler {
	return &RespondFriendRequestHandler{sess: sess}
}

// Handle executes the respond command.
func (h *RespondFriendRequestHandler) Handle(ctx context.Context, cmd RespondFriendRequestCommand) (*RespondFriendRequestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := h.sess.RequireUser(); err != nil {
		return nil, fmt.Errorf("respond_friend_request: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("respond_friend_request: validation failed: %w", err)
	}

	var (
		req social.FriendRequest
		ok  bool
	)
	if cmd.Accept {
		req, ok = h.sess.Social.AcceptFriendRequest(cmd.RequestID)
	} else {
		req, ok = h.sess.Social.RejectFriendRequest(cmd.RequestID)
	}
	return &RespondFriendRequestResult{Request: req, Found: ok}, nil
}
