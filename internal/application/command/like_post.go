package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIKE POST COMMAND
// Records a like. When the post belongs to the session user and somebody else
// liked it, the session user gets a "like" notification.
// ══════════════════════════════════════════════════════════════════════════════

// LikePostCommand contains the data to like a post.
type LikePostCommand struct {
	PostID string

	// UserID is the liker. Empty means the session user.
	UserID string
}

// Validate validates the command.
func (c LikePostCommand) Validate() error {
	if c.PostID == "" {
		return errors.New("like_post: post_id is required")
	}
	return nil
}

// LikePostResult contains the result of liking a post.
type LikePostResult struct {
	// Post is the state after the like. Zero when Found is false.
	Post post.Post

	// Found is false when the post does not exist; nothing changed then.
	Found bool

	// AlreadyLiked is true when the like was a repeat.
	AlreadyLiked bool

	// Notified is true when a notification was added.
	Notified bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// LikePostHandler handles the LikePostCommand.
type LikePostHandler struct {
	sess     *session.Context
	notifier notifier
	enabled  bool
}

// NewLikePostHandler creates a new LikePostHandler.
func NewLikePostHandler(sess *session.Context, opts Options) *LikePostHandler {
	opts = opts.withDefaults()
	return &LikePostHandler{
		sess:     sess,
		notifier: newNotifier(sess, opts),
		enabled:  opts.Notify.OnLike,
	}
}

// Handle executes the like post command.
func (h *LikePostHandler) Handle(ctx context.Context, cmd LikePostCommand) (*LikePostResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	me, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("like_post: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("like_post: validation failed: %w", err)
	}
	liker := cmd.UserID
	if liker == "" {
		liker = me.ID
	}

	after, ok, added := h.sess.Posts.LikePost(cmd.PostID, liker)
	if !ok {
		return &LikePostResult{}, nil
	}

	result := &LikePostResult{Post: after, Found: true, AlreadyLiked: !added}
	if added && h.enabled {
		result.Notified = h.notifier.notify(after.AuthorID, liker, social.NotificationLike, after.ID,
			likeText(h.notifier.name(liker)))
	}
	return result, nil
}
