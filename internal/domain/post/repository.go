package post

// ══════════════════════════════════════════════════════════════════════════════
// STORE INTERFACE
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store owns posts and their comments. It keeps a reverse-chronological feed
// and a per-author index over the same records.
//
// Operations that reference an unknown post id are silent no-ops.
type Store interface {
	// AddPost inserts p at the front of the feed and of its author's index.
	// A post whose id is already stored is ignored, as in Import.
	AddPost(p Post)

	// LikePost records userID as a liker of postID. Liking twice is a no-op.
	// Returns the post after the operation, whether it exists and whether
	// this call added the like.
	LikePost(postID, userID string) (p Post, found, added bool)

	// CommentOnPost appends c to postID's comments.
	// Returns the post after the operation and whether it exists.
	CommentOnPost(postID string, c Comment) (Post, bool)

	// SharePost creates a share of postID authored by userID.
	// Returns the new share post and whether the original exists.
	SharePost(postID, userID string) (Post, bool)

	// GetPost returns a single post by id.
	GetPost(postID string) (Post, bool)

	// GetPostsByUser returns userID's posts, newest first.
	GetPostsByUser(userID string) []Post

	// GetFeedPosts returns every post, newest first.
	GetFeedPosts() []Post

	// Import inserts existing posts without emitting events, each ahead of
	// the previous one. Ids already present are skipped. Used for bootstrap data.
	Import(posts ...Post)
}
