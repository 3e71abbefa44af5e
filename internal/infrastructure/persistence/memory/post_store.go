// Package memory implements the process-local stores behind the post,
// conversation, social and user interfaces.
//
// Every store guards its state with its own mutex. Analytics events are
// published after the lock is released and never influence the result.
package memory

import (
	"log/slog"
	"sync"

	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// Options configures a store.
type Options struct {
	// Publisher receives analytics events (default: shared.NopPublisher).
	Publisher shared.EventPublisher

	// Logger for structured logging
	Logger *slog.Logger

	// Clock stamps new records (default: shared.SystemClock).
	Clock shared.Clock

	// IDs generates record ids (default depends on the store).
	IDs shared.IDGenerator
}

func (o Options) withDefaults(defaultIDs shared.IDGenerator) Options {
	if o.Publisher == nil {
		o.Publisher = shared.NopPublisher{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = shared.SystemClock
	}
	if o.IDs == nil {
		o.IDs = defaultIDs
	}
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// POST STORE
// ══════════════════════════════════════════════════════════════════════════════

// PostStore keeps every post once, in an append-only arena. The feed and the
// per-author index hold arena positions, so a like recorded through one view
// is the like seen through the other.
type PostStore struct {
	mu       sync.RWMutex
	arena    []post.Post
	byID     map[string]int
	feed     []int
	byAuthor map[string][]int

	factory   post.Factory
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// Compile-time check.
var _ post.Store = (*PostStore)(nil)

// NewPostStore creates an empty PostStore.
func NewPostStore(opts Options) *PostStore {
	opts = opts.withDefaults(shared.PrefixedIDGenerator{Prefix: "share_"})
	factory := post.NewFactory()
	factory.ShareIDs = opts.IDs
	factory.Clock = opts.Clock

	return &PostStore{
		byID:      make(map[string]int),
		byAuthor:  make(map[string][]int),
		factory:   factory,
		publisher: opts.Publisher,
		logger:    opts.Logger.With("component", "post_store"),
	}
}

// AddPost implements post.Store.
func (s *PostStore) AddPost(p post.Post) {
	s.mu.Lock()
	if _, exists := s.byID[p.ID]; exists {
		s.mu.Unlock()
		s.logger.Warn("duplicate post id ignored", "post_id", p.ID)
		return
	}
	s.insertLocked(p.Clone())
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventPostCreated, p.ID, map[string]interface{}{
		"post_id":   p.ID,
		"post_type": string(p.Kind),
		"has_media": p.HasMedia(),
	}), s.logger)
}

// insertLocked appends p to the arena and indexes it. Feed order is derived
// by walking the index backwards, which places p at the front.
func (s *PostStore) insertLocked(p post.Post) {
	pos := len(s.arena)
	s.arena = append(s.arena, p)
	s.byID[p.ID] = pos
	s.feed = append(s.feed, pos)
	s.byAuthor[p.AuthorID] = append(s.byAuthor[p.AuthorID], pos)
}

// Import implements post.Store. Posts are inserted in the order given, each
// ahead of the previous one.
func (s *PostStore) Import(posts ...post.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range posts {
		if _, exists := s.byID[p.ID]; exists {
			continue
		}
		if p.Likes == nil {
			p.Likes = []string{}
		}
		if p.Comments == nil {
			p.Comments = []post.Comment{}
		}
		s.insertLocked(p.Clone())
	}
}

// LikePost implements post.Store.
func (s *PostStore) LikePost(postID, userID string) (post.Post, bool, bool) {
	s.mu.Lock()
	pos, ok := s.byID[postID]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("like on unknown post ignored", "post_id", postID)
		return post.Post{}, false, false
	}
	added := s.arena[pos].Like(userID)
	out := s.arena[pos].Clone()
	s.mu.Unlock()

	if added {
		shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventPostLiked, postID, map[string]interface{}{
			"post_id":        postID,
			"post_author_id": out.AuthorID,
			"user_id":        userID,
		}), s.logger)
	}
	return out, true, added
}

// CommentOnPost implements post.Store.
func (s *PostStore) CommentOnPost(postID string, c post.Comment) (post.Post, bool) {
	s.mu.Lock()
	pos, ok := s.byID[postID]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("comment on unknown post ignored", "post_id", postID)
		return post.Post{}, false
	}
	s.arena[pos].AddComment(c)
	out := s.arena[pos].Clone()
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventPostCommented, postID, map[string]interface{}{
		"post_id":        postID,
		"post_author_id": out.AuthorID,
		"comment_id":     c.ID,
	}), s.logger)
	return out, true
}

// SharePost implements post.Store.
func (s *PostStore) SharePost(postID, userID string) (post.Post, bool) {
	s.mu.Lock()
	pos, ok := s.byID[postID]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("share of unknown post ignored", "post_id", postID)
		return post.Post{}, false
	}
	original := s.arena[pos]
	share := s.factory.NewShare(original, userID)
	s.insertLocked(share)
	out := share.Clone()
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventPostShared, share.ID, map[string]interface{}{
		"original_post_id":   postID,
		"original_author_id": original.AuthorID,
		"sharing_user_id":    userID,
	}), s.logger)
	return out, true
}

// GetPost implements post.Store.
func (s *PostStore) GetPost(postID string) (post.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byID[postID]
	if !ok {
		return post.Post{}, false
	}
	return s.arena[pos].Clone(), true
}

// GetPostsByUser implements post.Store.
func (s *PostStore) GetPostsByUser(userID string) []post.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(s.byAuthor[userID])
}

// GetFeedPosts implements post.Store.
func (s *PostStore) GetFeedPosts() []post.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(s.feed)
}

// resolveLocked copies the arena entries at positions, newest first.
func (s *PostStore) resolveLocked(positions []int) []post.Post {
	out := make([]post.Post, 0, len(positions))
	for i := len(positions) - 1; i >= 0; i-- {
		out = append(out, s.arena[positions[i]].Clone())
	}
	return out
}

// Len returns the number of stored posts.
func (s *PostStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.arena)
}
