// Package post contains the domain model for posts, comments and shares.
package post

import (
	"time"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Kind determines how a post is rendered.
type Kind string

const (
	// KindText is a plain text post.
	KindText Kind = "text"

	// KindImage carries a media reference next to its text.
	KindImage Kind = "image"

	// KindShare re-publishes a snapshot of another post.
	KindShare Kind = "share"
)

// IsValid checks that the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindImage, KindShare:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Comment belongs to exactly one Post.
type Comment struct {
	ID        string    `json:"id" yaml:"id"`
	AuthorID  string    `json:"user_id" yaml:"userId"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Post is a feed entry.
type Post struct {
	ID        string    `json:"id" yaml:"id"`
	AuthorID  string    `json:"user_id" yaml:"userId"`
	Kind      Kind      `json:"type" yaml:"type"`
	Content   string    `json:"content" yaml:"content"`
	Media     string    `json:"media,omitempty" yaml:"media,omitempty"`
	Likes     []string  `json:"likes" yaml:"likes"`
	Comments  []Comment `json:"comments" yaml:"comments"`
	CreatedAt time.Time `json:"created_at" yaml:"createdAt"`

	// Original is the snapshot taken at share time. Only set for KindShare.
	Original *Post `json:"original_post,omitempty" yaml:"originalPost,omitempty"`
}

// HasMedia reports whether the post references media.
func (p Post) HasMedia() bool {
	return p.Media != ""
}

// LikeCount returns the number of likers.
func (p Post) LikeCount() int {
	return len(p.Likes)
}

// IsLikedBy reports whether userID is among the likers.
func (p Post) IsLikedBy(userID string) bool {
	return shared.ContainsString(p.Likes, userID)
}

// Like records userID as a liker. Returns false if already present.
func (p *Post) Like(userID string) bool {
	var added bool
	p.Likes, added = shared.AppendUnique(p.Likes, userID)
	return added
}

// AddComment appends c, keeping insertion order.
func (p *Post) AddComment(c Comment) {
	p.Comments = append(p.Comments, c)
}

// Clone returns a deep copy of p; mutating the copy never affects p.
func (p Post) Clone() Post {
	out := p
	if p.Likes != nil {
		out.Likes = append([]string(nil), p.Likes...)
	} else {
		out.Likes = []string{}
	}
	if p.Comments != nil {
		out.Comments = append([]Comment(nil), p.Comments...)
	} else {
		out.Comments = []Comment{}
	}
	if p.Original != nil {
		orig := p.Original.Clone()
		out.Original = &orig
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORIES
// ══════════════════════════════════════════════════════════════════════════════

// Factory builds posts and comments, filling ids and timestamps itself.
type Factory struct {
	IDs        shared.IDGenerator
	ShareIDs   shared.IDGenerator
	CommentIDs shared.IDGenerator
	Clock      shared.Clock
}

// NewFactory returns a Factory using UUIDs and the system clock.
func NewFactory() Factory {
	return Factory{
		IDs:        shared.PrefixedIDGenerator{Prefix: "post_"},
		ShareIDs:   shared.PrefixedIDGenerator{Prefix: "share_"},
		CommentIDs: shared.PrefixedIDGenerator{Prefix: "comment_"},
		Clock:      shared.SystemClock,
	}
}

func (f Factory) newID(share bool) string {
	gen := f.IDs
	if share && f.ShareIDs != nil {
		gen = f.ShareIDs
	}
	if gen == nil {
		gen = shared.UUIDGenerator{}
	}
	return gen.NewID()
}

// NewTextPost creates a text post authored by authorID.
func (f Factory) NewTextPost(authorID, content string) Post {
	return Post{
		ID:        f.newID(false),
		AuthorID:  authorID,
		Kind:      KindText,
		Content:   content,
		Likes:     []string{},
		Comments:  []Comment{},
		CreatedAt: f.Clock.Now(),
	}
}

// NewImagePost creates an image post with a media reference.
func (f Factory) NewImagePost(authorID, content, media string) Post {
	p := f.NewTextPost(authorID, content)
	p.Kind = KindImage
	p.Media = media
	return p
}

// NewShare creates a share post by sharerID embedding a snapshot of original.
func (f Factory) NewShare(original Post, sharerID string) Post {
	snapshot := original.Clone()
	return Post{
		ID:        f.newID(true),
		AuthorID:  sharerID,
		Kind:      KindShare,
		Content:   "",
		Likes:     []string{},
		Comments:  []Comment{},
		CreatedAt: f.Clock.Now(),
		Original:  &snapshot,
	}
}

// NewComment creates a comment by authorID.
func (f Factory) NewComment(authorID, content string) Comment {
	gen := f.CommentIDs
	if gen == nil {
		gen = shared.UUIDGenerator{}
	}
	return Comment{
		ID:        gen.NewID(),
		AuthorID:  authorID,
		Content:   content,
		Timestamp: f.Clock.Now(),
	}
}
