// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET FEED QUERY
// Returns the feed enriched with author names and the viewer's like state.
// ══════════════════════════════════════════════════════════════════════════════

// GetFeedQuery contains parameters for reading the feed.
type GetFeedQuery struct {
	// Limit caps the number of entries. Zero means no limit.
	Limit int
}

// Validate validates the query.
func (q GetFeedQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("get_feed: limit cannot be negative")
	}
	return nil
}

// FeedEntryDTO is one rendered post.
type FeedEntryDTO struct {
	PostID       string
	AuthorID     string
	AuthorName   string
	Kind         post.Kind
	Content      string
	Media        string
	CreatedAt    time.Time
	LikeCount    int
	CommentCount int
	LikedByMe    bool
	Comments     []CommentDTO

	// Original is the shared post snapshot. Only set for shares.
	Original *FeedEntryDTO
}

// CommentDTO is a comment with its author's name.
type CommentDTO struct {
	ID         string
	AuthorID   string
	AuthorName string
	Content    string
	Timestamp  time.Time
}

// GetFeedResult contains the feed.
type GetFeedResult struct {
	Entries []FeedEntryDTO
	Total   int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetFeedHandler handles GetFeedQuery.
type GetFeedHandler struct {
	sess *session.Context
}

// NewGetFeedHandler creates a new GetFeedHandler.
func NewGetFeedHandler(sess *session.Context) *GetFeedHandler {
	return &GetFeedHandler{sess: sess}
}

// Handle executes the query.
func (h *GetFeedHandler) Handle(ctx context.Context, q GetFeedQuery) (*GetFeedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	viewer, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("get_feed: %w", err)
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_feed: invalid query: %w", err)
	}

	posts := h.sess.Posts.GetFeedPosts()
	result := &GetFeedResult{Total: len(posts)}
	if q.Limit > 0 && len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	result.Entries = renderPosts(h.sess.Users, viewer.ID, posts)
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RENDERING
// ══════════════════════════════════════════════════════════════════════════════

func renderPosts(dir user.Directory, viewerID string, posts []post.Post) []FeedEntryDTO {
	out := make([]FeedEntryDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, renderPost(dir, viewerID, p))
	}
	return out
}

func renderPost(dir user.Directory, viewerID string, p post.Post) FeedEntryDTO {
	entry := FeedEntryDTO{
		PostID:       p.ID,
		AuthorID:     p.AuthorID,
		AuthorName:   user.DisplayName(dir, p.AuthorID),
		Kind:         p.Kind,
		Content:      p.Content,
		Media:        p.Media,
		CreatedAt:    p.CreatedAt,
		LikeCount:    p.LikeCount(),
		CommentCount: len(p.Comments),
		LikedByMe:    p.IsLikedBy(viewerID),
		Comments:     make([]CommentDTO, 0, len(p.Comments)),
	}
	for _, c := range p.Comments {
		entry.Comments = append(entry.Comments, CommentDTO{
			ID:         c.ID,
			AuthorID:   c.AuthorID,
			AuthorName: user.DisplayName(dir, c.AuthorID),
			Content:    c.Content,
			Timestamp:  c.Timestamp,
		})
	}
	if p.Original != nil {
		orig := renderPost(dir, viewerID, *p.Original)
		entry.Original = &orig
	}
	return entry
}
