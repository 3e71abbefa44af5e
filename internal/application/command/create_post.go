package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE POST COMMAND
// Publishes a text or image post authored by the session user.
// ══════════════════════════════════════════════════════════════════════════════

// CreatePostCommand contains the data to create a post.
type CreatePostCommand struct {
	// Content is the post text.
	Content string

	// Media is an optional image reference. A non-empty value makes an image post.
	Media string
}

// Validate validates the command.
func (c CreatePostCommand) Validate() error {
	if strings.TrimSpace(c.Content) == "" && c.Media == "" {
		return errors.New("create_post: content or media is required")
	}
	return nil
}

// CreatePostResult contains the created post.
type CreatePostResult struct {
	Post post.Post
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreatePostHandler handles the CreatePostCommand.
type CreatePostHandler struct {
	sess    *session.Context
	factory post.Factory
}

// NewCreatePostHandler creates a new CreatePostHandler.
func NewCreatePostHandler(sess *session.Context, opts Options) *CreatePostHandler {
	opts = opts.withDefaults()
	factory := post.NewFactory()
	factory.Clock = opts.Clock
	if opts.IDs != nil {
		factory.IDs = opts.IDs
	}
	return &CreatePostHandler{sess: sess, factory: factory}
}

// Handle executes the create post command.
func (h *CreatePostHandler) Handle(ctx context.Context, cmd CreatePostCommand) (*CreatePostResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	author, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("create_post: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_post: validation failed: %w", err)
	}

	var p post.Post
	if cmd.Media != "" {
		p = h.factory.NewImagePost(author.ID, cmd.Content, cmd.Media)
	} else {
		p = h.factory.NewTextPost(author.ID, cmd.Content)
	}
	h.sess.Posts.AddPost(p)

	return &CreatePostResult{Post: p}, nil
}
