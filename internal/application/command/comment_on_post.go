package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT ON POST COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CommentOnPostCommand contains the data to comment on a post.
type CommentOnPostCommand struct {
	PostID  string
	Content string

	// UserID is the comment author. Empty means the session user.
	UserID string
}

// Validate validates the command.
func (c CommentOnPostCommand) Validate() error {
	if c.PostID == "" {
		return errors.New("comment_on_post: post_id is required")
	}
	if strings.TrimSpace(c.Content) == "" {
		return errors.New("comment_on_post: content is required")
	}
	return nil
}

// CommentOnPostResult contains the result of commenting.
type CommentOnPostResult struct {
	Post    post.Post
	Comment post.Comment
	Found   bool

	// Notified is true when the post author was notified.
	Notified bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CommentOnPostHandler handles the CommentOnPostCommand.
type CommentOnPostHandler struct {
	sess     *session.Context
	factory  post.Factory
	notifier notifier
	enabled  bool
}

// NewCommentOnPostHandler creates a new CommentOnPostHandler.
func NewCommentOnPostHandler(sess *session.Context, opts Options) *CommentOnPostHandler {
	opts = opts.withDefaults()
	factory := post.NewFactory()
	factory.Clock = opts.Clock
	factory.CommentIDs = opts.idsOr("comment_")
	return &CommentOnPostHandler{
		sess:     sess,
		factory:  factory,
		notifier: newNotifier(sess, opts),
		enabled:  opts.Notify.OnComment,
	}
}

// Handle executes the comment command.
func (h *CommentOnPostHandler) Handle(ctx context.Context, cmd CommentOnPostCommand) (*CommentOnPostResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	me, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("comment_on_post: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("comment_on_post: validation failed: %w", err)
	}
	author := cmd.UserID
	if author == "" {
		author = me.ID
	}

	c := h.factory.NewComment(author, cmd.Content)
	p, ok := h.sess.Posts.CommentOnPost(cmd.PostID, c)
	if !ok {
		return &CommentOnPostResult{}, nil
	}

	result := &CommentOnPostResult{Post: p, Comment: c, Found: true}
	if h.enabled {
		result.Notified = h.notifier.notify(p.AuthorID, author, social.NotificationComment, p.ID,
			commentText(h.notifier.name(author)))
	}
	return result, nil
}
