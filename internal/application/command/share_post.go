package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARE POST COMMAND
// The share embeds a snapshot of the original; later likes and comments on
// the original do not show through.
// ══════════════════════════════════════════════════════════════════════════════

// SharePostCommand contains the data to share a post.
type SharePostCommand struct {
	PostID string
}

// Validate validates the command.
func (c SharePostCommand) Validate() error {
	if c.PostID == "" {
		return errors.New("share_post: post_id is required")
	}
	return nil
}

// SharePostResult contains the new share post.
type SharePostResult struct {
	Share post.Post
	Found bool
}

// SharePostHandler handles the SharePostCommand.
type SharePostHandler struct {
	sess *session.Context
}

// NewSharePostHandler creates a new SharePostHandler.
func NewSharePostHandler(sess *session.Context) *SharePostHandler {
	return &SharePostHandler{sess: sess}
}

// Handle executes the share post command.
func (h *SharePostHandler) Handle(ctx context.Context, cmd SharePostCommand) (*SharePostResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	me, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("share_post: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("share_post: validation failed: %w", err)
	}

	share, ok := h.sess.Posts.SharePost(cmd.PostID, me.ID)
	if !ok {
		return &SharePostResult{}, nil
	}
	return &SharePostResult{Share: share, Found: true}, nil
}
